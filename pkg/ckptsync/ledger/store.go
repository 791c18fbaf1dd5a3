// Package ledger keeps a per-run history of best-checkpoint decisions.
package ledger

import "errors"

// Store persists epoch entries.
// Implementations must be safe for concurrent use.
type Store interface {
	// Append stores an entry. An entry for the same (RunID, Epoch)
	// is replaced.
	Append(e Entry) error

	// List returns all entries for a run ordered by epoch.
	// Returns an empty slice (not error) if the run has no entries.
	List(runID string) ([]Entry, error)

	// Last returns the entry with the highest epoch.
	// Returns ErrNotFound if the run has no entries.
	Last(runID string) (Entry, error)

	// DeleteRun removes all entries for a run.
	DeleteRun(runID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for ledger operations.
var (
	// ErrNotFound indicates a run has no entries.
	ErrNotFound = errors.New("ledger entry not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("ledger store closed")
)
