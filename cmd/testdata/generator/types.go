package generator

import (
	"math/rand/v2"

	"pkg.jsn.cam/fieldminmax/internal/mesh"
)

// Generator produces the fields of a test case on a mesh
type Generator interface {
	// Init initializes the generator with a per-instance random source
	Init(r *rand.Rand)

	// Fields adds the generator's fields to m, one value per cell
	Fields(m *mesh.Mesh) error

	// Description returns a human-readable description of the fields
	Description() string

	// DefaultCells returns the suggested default number of cells
	DefaultCells() int
}
