package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// Record is one persisted min/max result: the output of one function for
// one field selection at one cycle.
type Record struct {
	Function string        `json:"function"`
	Cycle    minmax.Cycle  `json:"cycle"`
	Result   minmax.Result `json:"result"`
}

// Store persists records and reads back the time series of a label.
// Records are keyed by (function, label, cycle index); saving the same key
// twice overwrites.
type Store interface {
	Save(records ...Record) error
	// History returns the records of one label ordered by cycle index.
	History(function, label string) ([]Record, error)
	// Labels returns the labels recorded for a function, sorted.
	Labels(function string) ([]string, error)
	// Functions returns the recorded function names, sorted.
	Functions() ([]string, error)
	Close() error
}

// cycleKey encodes a cycle index so that byte order equals numeric order.
func cycleKey(index int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(index))
	return key
}

func encodeRecord(r Record) ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("failed to decode record: %w", err)
	}
	return r, nil
}
