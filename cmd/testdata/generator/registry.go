package generator

import (
	"fmt"
	"sort"
)

// Registry maps generator names to generator factory functions
var Registry = map[string]func() Generator{
	"uniform": func() Generator { return &UniformGenerator{Scale: 1e5} },
	"vortex":  func() Generator { return &VortexGenerator{Speed: 1} },
	"hotspot": func() Generator { return &HotspotGenerator{Ambient: 300, Peak: 100, Width: 0.1} },
}

// Get returns a generator by name
func Get(name string) (Generator, error) {
	factory, exists := Registry[name]
	if !exists {
		return nil, fmt.Errorf("unknown generator: %s", name)
	}
	return factory(), nil
}

// List returns all available generator names, sorted
func List() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetScale updates the value range of the uniform generator
func SetScale(scale float64) {
	Registry["uniform"] = func() Generator { return &UniformGenerator{Scale: scale} }
}
