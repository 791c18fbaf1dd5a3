package ckptsync

import (
	"log/slog"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/ledger"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/observability"
	"github.com/randalmurphal/ckptsync/pkg/ckptsync/remote"
)

// DefaultFolderName is the remote folder looked up when none is configured.
const DefaultFolderName = "checkpoints"

type options struct {
	folderName   string
	folder       *remote.Item
	lookupByName bool
	notifier     Notifier
	logger       *slog.Logger
	metrics      observability.MetricsRecorder
	spans        observability.SpanManager
	store        ledger.Store
	runID        string
}

func defaultOptions() options {
	return options{
		folderName: DefaultFolderName,
		logger:     slog.Default(),
		metrics:    observability.NoopMetrics{},
		spans:      observability.NoopSpanManager{},
	}
}

// Option configures a Checkpointer.
type Option func(*options)

// WithDefaultFolder sets the name of the remote folder looked up by New.
// Default: "checkpoints"
func WithDefaultFolder(name string) Option {
	return func(o *options) {
		if name != "" {
			o.folderName = name
		}
	}
}

// WithFolder uploads into item and skips the folder lookup.
func WithFolder(item remote.Item) Option {
	return func(o *options) {
		o.folder = &item
	}
}

// WithLookupByName finds the previous remote checkpoint by searching for
// its file name instead of using the item returned by the upload. The
// first matching file is deleted.
func WithLookupByName() Option {
	return func(o *options) {
		o.lookupByName = true
	}
}

// WithNotifier receives every decision message.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithSpanManager sets the span manager used for epoch spans.
func WithSpanManager(s observability.SpanManager) Option {
	return func(o *options) {
		if s != nil {
			o.spans = s
		}
	}
}

// WithLedger records every decision in store under runID.
// An empty runID keeps the one set by WithRunID, or generates one.
func WithLedger(store ledger.Store, runID string) Option {
	return func(o *options) {
		o.store = store
		if runID != "" {
			o.runID = runID
		}
	}
}

// WithRunID sets the run ID used in logs, spans and the ledger.
func WithRunID(runID string) Option {
	return func(o *options) {
		o.runID = runID
	}
}
