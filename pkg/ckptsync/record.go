package ckptsync

import (
	"fmt"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote"
)

// EpochRecord is the metrics produced by one epoch.
type EpochRecord struct {
	Epoch   int
	Metrics map[string]float64
}

// Metric returns the named metric and whether it is present.
func (r EpochRecord) Metric(name string) (float64, bool) {
	v, ok := r.Metrics[name]
	return v, ok
}

func (r EpochRecord) clone() EpochRecord {
	metrics := make(map[string]float64, len(r.Metrics))
	for k, v := range r.Metrics {
		metrics[k] = v
	}
	return EpochRecord{Epoch: r.Epoch, Metrics: metrics}
}

// RetainedBest is the best epoch seen so far and the files saved for it.
type RetainedBest struct {
	// Record is the best epoch.
	Record EpochRecord
	// Path is the local checkpoint file. It may belong to an earlier epoch
	// when the best epoch was skipped.
	Path string
	// Remote is the uploaded copy of Path, nil until the upload succeeds.
	Remote *remote.Item
}

func (b RetainedBest) clone() RetainedBest {
	out := RetainedBest{Record: b.Record.clone(), Path: b.Path}
	if b.Remote != nil {
		item := *b.Remote
		out.Remote = &item
	}
	return out
}

// Outcome is the decision taken for one epoch.
type Outcome int

// Epoch outcomes.
const (
	// OutcomeImproved means the epoch became the best and was saved.
	OutcomeImproved Outcome = iota
	// OutcomeNoImprovement means the epoch did not beat the best.
	OutcomeNoImprovement
	// OutcomeSkipped means the epoch became the best but no path was given.
	OutcomeSkipped
)

// String returns the ledger name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeImproved:
		return "improved"
	case OutcomeNoImprovement:
		return "no_improvement"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}
