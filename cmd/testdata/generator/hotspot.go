package generator

import (
	"math"
	"math/rand/v2"

	"github.com/golang/geo/r3"
	"pkg.jsn.cam/fieldminmax/internal/mesh"
	"pkg.jsn.cam/fieldminmax/pkg/minmax"
)

// HotspotGenerator places a Gaussian temperature peak at a random point.
// T peaks at Ambient+Peak; gradT is its analytic gradient, gradGradT
// the full Hessian tensor and lapT the isotropic part of the Hessian.
type HotspotGenerator struct {
	Ambient float64
	Peak    float64
	Width   float64
	rand    *rand.Rand
}

func (g *HotspotGenerator) Init(r *rand.Rand) {
	g.rand = r
}

func (g *HotspotGenerator) Fields(m *mesh.Mesh) error {
	centre := r3.Vector{X: g.rand.Float64(), Y: g.rand.Float64(), Z: g.rand.Float64()}
	w2 := g.Width * g.Width

	n := len(m.Cells)
	t := make([]float64, 0, n)
	grad := make([]float64, 0, 3*n)
	hess := make([]float64, 0, 9*n)
	lap := make([]float64, 0, n)

	for _, c := range m.Cells {
		d := c.Sub(centre)
		bump := g.Peak * math.Exp(-d.Norm2()/w2)
		t = append(t, g.Ambient+bump)

		// dT/dx_i = -2 d_i / w^2 * bump
		gd := d.Mul(-2 * bump / w2)
		grad = append(grad, gd.X, gd.Y, gd.Z)

		// d2T/dx_i dx_j = bump * (4 d_i d_j / w^4 - 2 delta_ij / w^2)
		comps := []float64{d.X, d.Y, d.Z}
		var trace float64
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				v := 4 * comps[i] * comps[j] / (w2 * w2)
				if i == j {
					v -= 2 / w2
					trace += bump * v
				}
				hess = append(hess, bump*v)
			}
		}
		lap = append(lap, trace/3)
	}

	for _, f := range []minmax.Field{
		{Name: "T", Kind: minmax.KindScalar, Values: t},
		{Name: "gradT", Kind: minmax.KindVector, Values: grad},
		{Name: "gradGradT", Kind: minmax.KindTensor, Values: hess},
		{Name: "lapT", Kind: minmax.KindSphericalTensor, Values: lap},
	} {
		if err := m.AddField(f); err != nil {
			return err
		}
	}
	return nil
}

func (g *HotspotGenerator) Description() string {
	return "Gaussian hot spot: scalar T, vector gradT, tensor gradGradT, sphericalTensor lapT"
}

func (g *HotspotGenerator) DefaultCells() int {
	return 27000
}
