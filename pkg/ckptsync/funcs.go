package ckptsync

import (
	"context"
	"fmt"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote"
)

// CompareFunc returns true if candidate is strictly better than best.
type CompareFunc func(best, candidate EpochRecord) bool

// PathFunc returns the checkpoint path for an epoch. Returning ok=false
// or an empty path skips saving that epoch.
type PathFunc func(candidate EpochRecord) (path string, ok bool)

// Notifier receives the human-readable message for every decision.
type Notifier func(outcome Outcome, message string)

// Model is anything that can write itself to a file.
type Model interface {
	Save(path string) error
}

// ModelFunc adapts a function to Model.
type ModelFunc func(path string) error

// Save implements Model.
func (f ModelFunc) Save(path string) error { return f(path) }

// Remote is the subset of transfer.Executor the checkpointer needs.
type Remote interface {
	Find(ctx context.Context, name string) ([]remote.Item, error)
	Upload(ctx context.Context, localPath string, folder *remote.Item) (remote.Item, error)
	Delete(ctx context.Context, item remote.Item) error
}

// Maximize compares on a metric where larger is better.
// A candidate missing the metric never improves.
func Maximize(metric string) CompareFunc {
	return func(best, candidate EpochRecord) bool {
		c, ok := candidate.Metric(metric)
		if !ok {
			return false
		}
		b, ok := best.Metric(metric)
		return !ok || c > b
	}
}

// Minimize compares on a metric where smaller is better.
// A candidate missing the metric never improves.
func Minimize(metric string) CompareFunc {
	return func(best, candidate EpochRecord) bool {
		c, ok := candidate.Metric(metric)
		if !ok {
			return false
		}
		b, ok := best.Metric(metric)
		return !ok || c < b
	}
}

// EpochPath formats the epoch number into pattern, e.g. "model_%d.h5".
func EpochPath(pattern string) PathFunc {
	return func(candidate EpochRecord) (string, bool) {
		return fmt.Sprintf(pattern, candidate.Epoch), true
	}
}

// SkipBefore wraps next so epochs below first are never saved.
func SkipBefore(first int, next PathFunc) PathFunc {
	return func(candidate EpochRecord) (string, bool) {
		if candidate.Epoch < first {
			return "", false
		}
		return next(candidate)
	}
}
