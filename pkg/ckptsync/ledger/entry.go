package ledger

import (
	"encoding/json"
	"time"
)

// Version is the current entry format version.
const Version = 1

// Entry records the decision taken at the end of one epoch.
type Entry struct {
	Version   int                `json:"version"`
	RunID     string             `json:"run_id"`
	Epoch     int                `json:"epoch"`
	Outcome   string             `json:"outcome"`
	Metrics   map[string]float64 `json:"metrics"`
	Path      string             `json:"path,omitempty"`
	RemoteID  string             `json:"remote_id,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// NewEntry creates an entry stamped with the current time.
// The metrics map is copied.
func NewEntry(runID string, epoch int, outcome string, metrics map[string]float64) Entry {
	copied := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		copied[k] = v
	}
	return Entry{
		Version:   Version,
		RunID:     runID,
		Epoch:     epoch,
		Outcome:   outcome,
		Metrics:   copied,
		Timestamp: time.Now().UTC(),
	}
}

// Marshal serializes an entry to JSON.
func (e Entry) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

// Unmarshal deserializes an entry from JSON.
func Unmarshal(data []byte) (Entry, error) {
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}
