package functions

import (
	"context"
	"fmt"
	"sort"

	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// Instance is a configured function object on one partition.
type Instance interface {
	Spec() minmax.FunctionSpec
	Setup(ctx context.Context) error
	RunCycle(ctx context.Context, cycle minmax.Cycle) (minmax.CycleReport, error)
	Close() error
}

// Constructor builds an instance for one partition.
type Constructor func(spec minmax.FunctionSpec, comm minmax.Communicator, src minmax.Source, writers ...minmax.Writer) Instance

type entry struct {
	construct   Constructor
	description string
}

// Registry maps function type names to constructors
var Registry = map[string]entry{
	"fieldMinMax": {
		construct: func(spec minmax.FunctionSpec, comm minmax.Communicator, src minmax.Source, writers ...minmax.Writer) Instance {
			return minmax.NewFunction(spec, comm, src, writers...)
		},
		description: "Value, location and owning partition of the min and max of each listed field",
	},
}

// IsValid reports whether a function type is registered
func IsValid(typeName string) bool {
	_, exists := Registry[typeName]
	return exists
}

// New constructs a registered function type
func New(typeName string, spec minmax.FunctionSpec, comm minmax.Communicator, src minmax.Source, writers ...minmax.Writer) (Instance, error) {
	e, exists := Registry[typeName]
	if !exists {
		return nil, fmt.Errorf("%w: %s", minmax.ErrUnknownFunction, typeName)
	}
	return e.construct(spec, comm, src, writers...), nil
}

// List returns the registered type names, sorted
func List() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Description returns the one-line description of a function type
func Description(typeName string) (string, error) {
	if e, exists := Registry[typeName]; exists {
		return e.description, nil
	}
	return "", fmt.Errorf("%w: %s", minmax.ErrUnknownFunction, typeName)
}
