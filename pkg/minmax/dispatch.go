package minmax

import (
	"fmt"
	"strconv"
)

// AllComponents is the components value that selects every component of a
// multi-component field in component mode. It is also what an empty
// component list means.
const AllComponents = "all"

// Dispatch resolves the scans to run for one field. Scalars always get a
// single selection regardless of mode. In component mode each requested
// component, given by name ("x", "yz") or index ("0"), becomes its own
// selection in the order requested.
func Dispatch(field string, kind Kind, mode Mode, components []string) ([]Selection, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("field %s: %w: %q", field, ErrInvalidKind, kind)
	}

	if kind == KindScalar {
		return []Selection{{Label: field, Scalar: true}}, nil
	}

	switch mode {
	case ModeMagnitude:
		return []Selection{{Label: "mag(" + field + ")", Magnitude: true}}, nil

	case ModeComponent:
		indices, err := resolveComponents(kind, components)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}

		sels := make([]Selection, 0, len(indices))
		for _, i := range indices {
			sels = append(sels, Selection{
				Label:     field + "." + kind.ComponentName(i),
				Component: i,
			})
		}
		return sels, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
}

func resolveComponents(kind Kind, components []string) ([]int, error) {
	arity := kind.Arity()

	if len(components) == 0 || (len(components) == 1 && components[0] == AllComponents) {
		all := make([]int, arity)
		for i := range all {
			all[i] = i
		}
		return all, nil
	}

	seen := make(map[int]bool, len(components))
	indices := make([]int, 0, len(components))
	for _, c := range components {
		i, ok := kind.ComponentIndex(c)
		if !ok {
			n, err := strconv.Atoi(c)
			if err != nil {
				return nil, fmt.Errorf("%w: %q is not a component of a %s", ErrInvalidComponentIndex, c, kind)
			}
			i = n
		}
		if i < 0 || i >= arity {
			return nil, fmt.Errorf("%w: %d (a %s has %d components)", ErrInvalidComponentIndex, i, kind, arity)
		}
		if seen[i] {
			continue
		}
		seen[i] = true
		indices = append(indices, i)
	}
	return indices, nil
}
