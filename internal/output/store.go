package output

import (
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
	"pkg.jsn.cam/fieldminmax/pkg/storage"
)

// StoreWriter persists every result as a storage record.
type StoreWriter struct {
	store storage.Store
	name  string
}

// NewStoreWriter creates a writer saving records of the named function.
// The store stays owned by the caller.
func NewStoreWriter(store storage.Store, name string) *StoreWriter {
	return &StoreWriter{store: store, name: name}
}

// Write saves the results of one cycle in one batch.
func (s *StoreWriter) Write(cycle minmax.Cycle, results []minmax.Result) error {
	records := make([]storage.Record, len(results))
	for i, r := range results {
		records[i] = storage.Record{Function: s.name, Cycle: cycle, Result: r}
	}
	return s.store.Save(records...)
}

// Close does nothing; the store is shared between functions.
func (s *StoreWriter) Close() error {
	return nil
}
