package generator

import (
	"math/rand/v2"

	"pkg.jsn.cam/fieldminmax/internal/mesh"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// UniformGenerator fills a scalar p in [0, Scale) and a vector U with
// components in [-1, 1)
type UniformGenerator struct {
	Scale float64
	rand  *rand.Rand
}

func (g *UniformGenerator) Init(r *rand.Rand) {
	g.rand = r
}

func (g *UniformGenerator) Fields(m *mesh.Mesh) error {
	n := len(m.Cells)
	p := make([]float64, n)
	u := make([]float64, 3*n)
	for i := range p {
		p[i] = g.rand.Float64() * g.Scale
	}
	for i := range u {
		u[i] = 2*g.rand.Float64() - 1
	}

	if err := m.AddField(minmax.Field{Name: "p", Kind: minmax.KindScalar, Values: p}); err != nil {
		return err
	}
	return m.AddField(minmax.Field{Name: "U", Kind: minmax.KindVector, Values: u})
}

func (g *UniformGenerator) Description() string {
	return "Uniform noise: scalar p, vector U"
}

func (g *UniformGenerator) DefaultCells() int {
	return 1000
}
