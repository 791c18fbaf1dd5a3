// Package progress renders transfer progress.
//
// An Observer receives percentage deltas from one transfer at a time.
// Deltas for a completed transfer always sum to 100.
package progress

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/schollz/progressbar/v3"
)

// Observer receives progress for one transfer at a time.
type Observer interface {
	// Start begins a new transfer with a description.
	Start(desc string)
	// Advance adds delta percentage points.
	Advance(delta float64)
	// Finish marks the transfer complete.
	Finish()
	// Fail marks the transfer aborted.
	Fail(err error)
}

// barResolution is the number of bar steps per 100 percent.
const barResolution = 1000

// Bar renders a terminal progress bar.
type Bar struct {
	w     io.Writer
	bar   *progressbar.ProgressBar
	total float64
}

// NewBar creates a bar writing to w.
func NewBar(w io.Writer) *Bar {
	return &Bar{w: w}
}

// Start implements Observer.
func (b *Bar) Start(desc string) {
	b.total = 0
	b.bar = progressbar.NewOptions(barResolution,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(b.w, "\n") }),
	)
}

// Advance implements Observer.
func (b *Bar) Advance(delta float64) {
	if b.bar == nil {
		return
	}
	b.total += delta
	_ = b.bar.Set(int(math.Round(b.total * barResolution / 100)))
}

// Finish implements Observer.
func (b *Bar) Finish() {
	if b.bar == nil {
		return
	}
	_ = b.bar.Finish()
	b.bar = nil
}

// Fail implements Observer.
func (b *Bar) Fail(error) {
	if b.bar == nil {
		return
	}
	_ = b.bar.Exit()
	_, _ = io.WriteString(b.w, "\n")
	b.bar = nil
}

// Log reports progress through slog every Step percent.
type Log struct {
	logger *slog.Logger
	step   float64
	desc   string
	total  float64
	next   float64
}

// NewLog creates a log observer. A non-positive step defaults to 25.
func NewLog(logger *slog.Logger, step float64) *Log {
	if step <= 0 {
		step = 25
	}
	return &Log{logger: logger, step: step}
}

// Start implements Observer.
func (l *Log) Start(desc string) {
	l.desc = desc
	l.total = 0
	l.next = l.step
	if l.logger != nil {
		l.logger.Info("transfer started", slog.String("desc", desc))
	}
}

// Advance implements Observer.
func (l *Log) Advance(delta float64) {
	l.total += delta
	if l.total < l.next || l.total >= 100 {
		return
	}
	for l.next <= l.total {
		l.next += l.step
	}
	if l.logger != nil {
		l.logger.Info("transfer progress",
			slog.String("desc", l.desc),
			slog.Float64("percent", math.Round(l.total*10)/10),
		)
	}
}

// Finish implements Observer.
func (l *Log) Finish() {
	if l.logger != nil {
		l.logger.Info("transfer finished", slog.String("desc", l.desc))
	}
}

// Fail implements Observer.
func (l *Log) Fail(err error) {
	if l.logger != nil {
		l.logger.Warn("transfer failed",
			slog.String("desc", l.desc),
			slog.Float64("percent", math.Round(l.total*10)/10),
			slog.String("error", err.Error()),
		)
	}
}

// Nop discards progress.
type Nop struct{}

// Start implements Observer.
func (Nop) Start(string) {}

// Advance implements Observer.
func (Nop) Advance(float64) {}

// Finish implements Observer.
func (Nop) Finish() {}

// Fail implements Observer.
func (Nop) Fail(error) {}

// Recorder keeps every event. It is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	starts   []string
	deltas   []float64
	finished int
	failed   []error
}

// Start implements Observer.
func (r *Recorder) Start(desc string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, desc)
	r.deltas = nil
}

// Advance implements Observer.
func (r *Recorder) Advance(delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deltas = append(r.deltas, delta)
}

// Finish implements Observer.
func (r *Recorder) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished++
}

// Fail implements Observer.
func (r *Recorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, err)
}

// Starts returns the descriptions of every started transfer.
func (r *Recorder) Starts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.starts...)
}

// Deltas returns the deltas of the current transfer.
func (r *Recorder) Deltas() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.deltas...)
}

// Total returns the sum of the current transfer's deltas.
func (r *Recorder) Total() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum float64
	for _, d := range r.deltas {
		sum += d
	}
	return sum
}

// Finished returns how many transfers finished.
func (r *Recorder) Finished() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// Failed returns the errors of failed transfers.
func (r *Recorder) Failed() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.failed...)
}
