package minmax

import (
	"cmp"
	"fmt"
	"slices"
)

// Best returns the index of the item for which better(item, current) held
// against every other item, scanning in order so that earlier items win
// ties. It returns -1 for an empty slice.
func Best[T any](items []T, better func(a, b T) bool) int {
	best := -1
	for i := range items {
		if best < 0 || better(items[i], items[best]) {
			best = i
		}
	}
	return best
}

// ranked is the payload of one reduction: the scalar under comparison and
// the partition that owns it.
type ranked struct {
	value     float64
	partition int
}

// lower orders by value, then by partition id, so equal values resolve to
// the lowest partition regardless of arrival order.
func lower(a, b ranked) bool {
	if a.value != b.value {
		return a.value < b.value
	}
	return a.partition < b.partition
}

func higher(a, b ranked) bool {
	if a.value != b.value {
		return a.value > b.value
	}
	return a.partition < b.partition
}

// ReduceCandidates combines one candidate per partition into the global
// minimum and maximum. Candidates without a local value are ignored; if
// none has one, ErrEmptyField is returned.
func ReduceCandidates(cands []Candidate) (min, max GlobalExtremum, err error) {
	present := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Present {
			present = append(present, c)
		}
	}
	if len(present) == 0 {
		return GlobalExtremum{}, GlobalExtremum{}, ErrEmptyField
	}
	slices.SortFunc(present, func(a, b Candidate) int {
		return cmp.Compare(a.Partition, b.Partition)
	})

	mins := make([]ranked, len(present))
	maxs := make([]ranked, len(present))
	for i, c := range present {
		mins[i] = ranked{value: c.Min.Value, partition: c.Partition}
		maxs[i] = ranked{value: c.Max.Value, partition: c.Partition}
	}

	lo := present[Best(mins, lower)]
	hi := present[Best(maxs, higher)]

	min = GlobalExtremum{
		Value:     lo.Min.Value,
		Location:  lo.MinLocation,
		Partition: lo.Partition,
		Cell:      lo.Min.Cell,
		Raw:       slices.Clone(lo.Min.Raw),
	}
	max = GlobalExtremum{
		Value:     hi.Max.Value,
		Location:  hi.MaxLocation,
		Partition: hi.Partition,
		Cell:      hi.Max.Cell,
		Raw:       slices.Clone(hi.Max.Raw),
	}
	return min, max, nil
}

// AgreeKind checks the presence round of a field: every partition reports
// whether it holds the field and with which kind. All partitions lacking
// it yields ErrFieldNotFound; partial presence or differing kinds is a
// collective mismatch.
func AgreeKind(field string, cands []Candidate) (Kind, error) {
	var kind Kind
	holders := 0
	for _, c := range cands {
		if !c.Present {
			continue
		}
		holders++
		if kind == "" {
			kind = c.Kind
			continue
		}
		if c.Kind != kind {
			return "", fmt.Errorf("%w: field %s is %s on one partition and %s on partition %d",
				ErrCollectiveMismatch, field, kind, c.Kind, c.Partition)
		}
	}

	switch holders {
	case 0:
		return "", fmt.Errorf("%s: %w", field, ErrFieldNotFound)
	case len(cands):
		return kind, nil
	default:
		return "", fmt.Errorf("%w: field %s present on %d of %d partitions",
			ErrCollectiveMismatch, field, holders, len(cands))
	}
}
