package storage

import (
	"slices"
	"sort"
	"sync"
)

// MemoryStore implements Store using in-memory maps (not persistent)
type MemoryStore struct {
	functions map[string]map[string]map[int][]byte
	mu        sync.RWMutex
}

// NewMemoryStore creates a new in-memory record store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		functions: make(map[string]map[string]map[int][]byte),
	}
}

// Save stores encoded copies of the records
func (m *MemoryStore) Save(records ...Record) error {
	encoded := make([][]byte, len(records))
	for i, r := range records {
		data, err := encodeRecord(r)
		if err != nil {
			return err
		}
		encoded[i] = data
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range records {
		labels, ok := m.functions[r.Function]
		if !ok {
			labels = make(map[string]map[int][]byte)
			m.functions[r.Function] = labels
		}
		cycles, ok := labels[r.Result.Label]
		if !ok {
			cycles = make(map[int][]byte)
			labels[r.Result.Label] = cycles
		}
		cycles[r.Cycle.Index] = encoded[i]
	}

	return nil
}

// History returns the records of one label in cycle order
func (m *MemoryStore) History(function, label string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cycles := m.functions[function][label]
	indices := make([]int, 0, len(cycles))
	for idx := range cycles {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	var records []Record
	for _, idx := range indices {
		r, err := decodeRecord(cycles[idx])
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

// Labels lists the labels recorded for a function
func (m *MemoryStore) Labels(function string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var labels []string
	for label := range m.functions[function] {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels, nil
}

// Functions lists the recorded function names
func (m *MemoryStore) Functions() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.functions {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Close is a no-op for memory store
func (m *MemoryStore) Close() error {
	return nil
}
