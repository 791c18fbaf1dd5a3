package ledger_test

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Persistence(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	store1, err := ledger.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, store1.Append(entry("run-1", 0, "improved", 0.7)))
	require.NoError(t, store1.Close())

	store2, err := ledger.NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer store2.Close()

	last, err := store2.Last("run-1")
	require.NoError(t, err)
	assert.Equal(t, "improved", last.Outcome)
	assert.InDelta(t, 0.7, last.Metrics["val_acc"], 1e-9)
}

func TestSQLiteStore_InvalidPath(t *testing.T) {
	_, err := ledger.NewSQLiteStore("/nonexistent/path/ledger.db")
	assert.Error(t, err)
}

func TestSQLiteStore_CloseIdempotent(t *testing.T) {
	store, err := ledger.NewSQLiteStore(":memory:")
	require.NoError(t, err)

	assert.NoError(t, store.Close())
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_Concurrent(t *testing.T) {
	store, err := ledger.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	const numRuns = 10
	const numEpochs = 20

	var wg sync.WaitGroup
	for r := 0; r < numRuns; r++ {
		wg.Add(1)
		go func(r int) {
			defer wg.Done()
			runID := fmt.Sprintf("run-%d", r)
			for epoch := 0; epoch < numEpochs; epoch++ {
				assert.NoError(t, store.Append(entry(runID, epoch, "skipped", float64(epoch))))
			}
		}(r)
	}
	wg.Wait()

	for r := 0; r < numRuns; r++ {
		entries, err := store.List(fmt.Sprintf("run-%d", r))
		require.NoError(t, err)
		assert.Len(t, entries, numEpochs)
	}
}
