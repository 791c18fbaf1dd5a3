package benchmarks

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/ckptsync/pkg/ckptsync/ledger"
)

func benchEntry(epoch int) ledger.Entry {
	return ledger.NewEntry("run-1", epoch, "improved", map[string]float64{
		"val_acc":  0.8,
		"val_loss": 0.31,
		"acc":      0.85,
		"loss":     0.27,
	})
}

// BenchmarkMemoryStore_Append measures in-memory ledger appends.
func BenchmarkMemoryStore_Append(b *testing.B) {
	store := ledger.NewMemoryStore()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Append(benchEntry(i % 1000))
	}
}

// BenchmarkMemoryStore_List measures listing a 100-epoch run.
func BenchmarkMemoryStore_List(b *testing.B) {
	store := ledger.NewMemoryStore()
	for i := 0; i < 100; i++ {
		_ = store.Append(benchEntry(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.List("run-1")
	}
}

// BenchmarkSQLiteStore_Append measures SQLite ledger upserts.
func BenchmarkSQLiteStore_Append(b *testing.B) {
	store := createSQLiteStore(b)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Append(benchEntry(i % 100))
	}
}

// BenchmarkSQLiteStore_Last measures reading the latest epoch.
func BenchmarkSQLiteStore_Last(b *testing.B) {
	store := createSQLiteStore(b)
	for i := 0; i < 100; i++ {
		_ = store.Append(benchEntry(i))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = store.Last("run-1")
	}
}

// BenchmarkEntry_Marshal measures entry serialization overhead.
func BenchmarkEntry_Marshal(b *testing.B) {
	e := benchEntry(7)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Marshal()
	}
}

func createSQLiteStore(b *testing.B) *ledger.SQLiteStore {
	b.Helper()
	store, err := ledger.NewSQLiteStore(filepath.Join(b.TempDir(), fmt.Sprintf("bench-%d.db", b.N)))
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { store.Close() })
	return store
}
