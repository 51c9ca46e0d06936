package minmax

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Kind is the per-cell shape of a field.
type Kind string

const (
	KindScalar          Kind = "scalar"
	KindVector          Kind = "vector"
	KindSphericalTensor Kind = "sphericalTensor"
	KindSymmTensor      Kind = "symmTensor"
	KindTensor          Kind = "tensor"
)

var componentNames = map[Kind][]string{
	KindScalar:          {""},
	KindVector:          {"x", "y", "z"},
	KindSphericalTensor: {"ii"},
	KindSymmTensor:      {"xx", "xy", "xz", "yy", "yz", "zz"},
	KindTensor:          {"xx", "xy", "xz", "yx", "yy", "yz", "zx", "zy", "zz"},
}

// Arity returns the number of stored components per cell, or 0 for an
// unknown kind.
func (k Kind) Arity() int {
	return len(componentNames[k])
}

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	_, ok := componentNames[k]
	return ok
}

// ComponentName returns the conventional name of component i ("x", "yz", ...).
func (k Kind) ComponentName(i int) string {
	names := componentNames[k]
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("%d", i)
	}
	return names[i]
}

// ComponentIndex resolves a component name for this kind.
func (k Kind) ComponentIndex(name string) (int, bool) {
	for i, n := range componentNames[k] {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

// Field is one partition's slice of a named field. Values holds
// Kind.Arity() consecutive components per cell.
type Field struct {
	Name   string    `json:"name"`
	Kind   Kind      `json:"kind"`
	Values []float64 `json:"values"`
}

// Cells returns the number of cells in the field.
func (f Field) Cells() int {
	n := f.Kind.Arity()
	if n == 0 {
		return 0
	}
	return len(f.Values) / n
}

// At returns the stored tuple for cell i. The slice aliases Values.
func (f Field) At(i int) []float64 {
	n := f.Kind.Arity()
	return f.Values[i*n : (i+1)*n]
}

// Validate checks that Values is a whole number of cells of a known kind.
func (f Field) Validate() error {
	if !f.Kind.Valid() {
		return fmt.Errorf("field %s: %w: %q", f.Name, ErrInvalidKind, f.Kind)
	}
	if len(f.Values)%f.Kind.Arity() != 0 {
		return fmt.Errorf("field %s: %d values is not a multiple of arity %d",
			f.Name, len(f.Values), f.Kind.Arity())
	}
	return nil
}

// Source is the partition-local field container.
type Source interface {
	// Field returns the named field or an error wrapping ErrFieldNotFound.
	Field(name string) (Field, error)
	// Locations returns the cell centres, index-aligned with every field.
	Locations() []r3.Vector
}

// Mode selects how multi-component values collapse to a scalar.
type Mode string

const (
	ModeMagnitude Mode = "magnitude"
	ModeComponent Mode = "component"
)

// ParseMode accepts the configuration spellings of a mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "magnitude", "mag":
		return ModeMagnitude, nil
	case "component", "cmpt":
		return ModeComponent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// Selection is one resolved scan of a field: either the whole value
// (scalars), its magnitude, or one component.
type Selection struct {
	Label     string `json:"label"`
	Magnitude bool   `json:"magnitude,omitempty"`
	Component int    `json:"component"`
	Scalar    bool   `json:"scalar,omitempty"`
}

// LocalExtremum is a winner of the scan over one partition.
type LocalExtremum struct {
	Value float64   `json:"value"`
	Cell  int       `json:"cell"`
	Raw   []float64 `json:"raw"`
}

// Candidate is what a partition contributes to a collective round.
// Present is false when the partition holds no usable cell; Min/Max are
// then meaningless and must not take part in the reduction. NaN counts
// the cells the local scan skipped.
type Candidate struct {
	Partition   int           `json:"partition"`
	Present     bool          `json:"present"`
	Kind        Kind          `json:"kind,omitempty"`
	NaN         int           `json:"nan,omitempty"`
	Min         LocalExtremum `json:"min"`
	Max         LocalExtremum `json:"max"`
	MinLocation r3.Vector     `json:"min_location"`
	MaxLocation r3.Vector     `json:"max_location"`
}

// GlobalExtremum is the reduced winner across all partitions.
type GlobalExtremum struct {
	Value     float64   `json:"value"`
	Location  r3.Vector `json:"location"`
	Partition int       `json:"partition"`
	Cell      int       `json:"cell"`
	Raw       []float64 `json:"raw"`
}

// Result is one (field, selection) outcome for one cycle.
type Result struct {
	Field string         `json:"field"`
	Label string         `json:"label"`
	Kind  Kind           `json:"kind"`
	Min   GlobalExtremum `json:"min"`
	Max   GlobalExtremum `json:"max"`

	// NaN counts the cells skipped as NaN on all partitions.
	NaN int `json:"nan,omitempty"`
}

// Cycle identifies one evaluation of the function.
type Cycle struct {
	Index int     `json:"index"`
	Time  float64 `json:"time"`
}

// Writer consumes results. Writers are only invoked on the partition that
// owns output (partition 0).
type Writer interface {
	Write(cycle Cycle, results []Result) error
	Close() error
}
