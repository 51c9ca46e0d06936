package minmax

import (
	"math"
	"slices"
)

// Collapse reduces one stored tuple to the scalar compared by the scan.
func Collapse(sel Selection, tuple []float64) float64 {
	switch {
	case sel.Scalar:
		return tuple[0]
	case sel.Magnitude:
		return magnitude(tuple)
	default:
		return tuple[sel.Component]
	}
}

// magnitude is the Euclidean norm of the tuple. Components are scaled by
// the largest one so finite tuples never overflow while squaring.
func magnitude(tuple []float64) float64 {
	var scale float64
	for _, v := range tuple {
		a := math.Abs(v)
		if math.IsNaN(a) {
			return a
		}
		if a > scale {
			scale = a
		}
	}
	if scale == 0 || math.IsInf(scale, 1) {
		return scale
	}

	var sum float64
	for _, v := range tuple {
		r := v / scale
		sum += r * r
	}
	return scale * math.Sqrt(sum)
}

// ScanStats summarises a local scan.
type ScanStats struct {
	Cells int
	NaN   int
}

// Scan finds the local minimum and maximum of field under sel. Ties keep
// the first cell in storage order. Cells whose collapsed value is NaN are
// skipped and counted; infinities are ordered and compete like any other
// value. ok is false when no cell qualified, in which case min and max
// must not be used.
func Scan(field Field, sel Selection) (min, max LocalExtremum, stats ScanStats, ok bool) {
	n := field.Cells()
	stats.Cells = n

	minCell, maxCell := -1, -1
	var minVal, maxVal float64

	for i := 0; i < n; i++ {
		v := Collapse(sel, field.At(i))
		if math.IsNaN(v) {
			stats.NaN++
			continue
		}
		if minCell < 0 {
			minCell, maxCell = i, i
			minVal, maxVal = v, v
			continue
		}
		if v < minVal {
			minCell, minVal = i, v
		}
		if v > maxVal {
			maxCell, maxVal = i, v
		}
	}

	if minCell < 0 {
		return LocalExtremum{}, LocalExtremum{}, stats, false
	}

	min = LocalExtremum{Value: minVal, Cell: minCell, Raw: slices.Clone(field.At(minCell))}
	max = LocalExtremum{Value: maxVal, Cell: maxCell, Raw: slices.Clone(field.At(maxCell))}
	return min, max, stats, true
}
