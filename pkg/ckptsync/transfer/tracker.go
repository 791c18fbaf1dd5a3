package transfer

import "github.com/randalmurphal/ckptsync/pkg/ckptsync/progress"

// Tracker converts backend completion fractions into percentage deltas.
//
// Reported deltas are never negative and their sum never exceeds 100.
// Finish tops the sum up to exactly 100 whatever the backend reported.
type Tracker struct {
	obs  progress.Observer
	last float64
}

// NewTracker starts a transfer on obs.
func NewTracker(obs progress.Observer, desc string) *Tracker {
	if obs == nil {
		obs = progress.Nop{}
	}
	obs.Start(desc)
	return &Tracker{obs: obs}
}

// Report records a backend fraction in [0, 1]. Values that do not move
// progress forward are dropped.
func (t *Tracker) Report(fraction float64) {
	p := fraction * 100
	if p > 100 {
		p = 100
	}
	if p <= t.last {
		return
	}
	t.obs.Advance(p - t.last)
	t.last = p
}

// Percent returns the percentage reported so far.
func (t *Tracker) Percent() float64 {
	return t.last
}

// Finish emits the remaining delta and completes the transfer.
func (t *Tracker) Finish() {
	if t.last < 100 {
		t.obs.Advance(100 - t.last)
		t.last = 100
	}
	t.obs.Finish()
}

// Fail aborts the transfer without topping up.
func (t *Tracker) Fail(err error) {
	t.obs.Fail(err)
}
