package generator

import (
	"math/rand/v2"

	"pkg.jsn.cam/fieldminmax/internal/mesh"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// VortexGenerator produces solid-body rotation about the z axis through
// the cube centre. The pressure is the dynamic pressure deficit and R the
// velocity outer product (a Reynolds-stress-like symmTensor).
type VortexGenerator struct {
	Speed float64
	rand  *rand.Rand
}

func (g *VortexGenerator) Init(r *rand.Rand) {
	g.rand = r
}

func (g *VortexGenerator) Fields(m *mesh.Mesh) error {
	n := len(m.Cells)
	u := make([]float64, 0, 3*n)
	p := make([]float64, 0, n)
	r := make([]float64, 0, 6*n)

	for _, c := range m.Cells {
		// A small perturbation keeps extrema from tying on symmetric grids.
		x, y := c.X-0.5, c.Y-0.5
		ux := -g.Speed*y + 1e-6*g.rand.NormFloat64()
		uy := g.Speed*x + 1e-6*g.rand.NormFloat64()
		uz := 1e-6 * g.rand.NormFloat64()

		u = append(u, ux, uy, uz)
		p = append(p, -0.5*(ux*ux+uy*uy+uz*uz))
		r = append(r, ux*ux, ux*uy, ux*uz, uy*uy, uy*uz, uz*uz)
	}

	for _, f := range []minmax.Field{
		{Name: "U", Kind: minmax.KindVector, Values: u},
		{Name: "p", Kind: minmax.KindScalar, Values: p},
		{Name: "R", Kind: minmax.KindSymmTensor, Values: r},
	} {
		if err := m.AddField(f); err != nil {
			return err
		}
	}
	return nil
}

func (g *VortexGenerator) Description() string {
	return "Solid-body vortex: vector U, scalar p, symmTensor R"
}

func (g *VortexGenerator) DefaultCells() int {
	return 8000
}
