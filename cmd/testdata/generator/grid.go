package generator

import (
	"math"

	"github.com/golang/geo/r3"
)

// Grid returns the centres of roughly n cells filling the unit cube,
// ordered x fastest. The count is rounded to the nearest cube.
func Grid(n int) []r3.Vector {
	side := max(int(math.Round(math.Cbrt(float64(n)))), 1)
	h := 1 / float64(side)

	cells := make([]r3.Vector, 0, side*side*side)
	for k := 0; k < side; k++ {
		for j := 0; j < side; j++ {
			for i := 0; i < side; i++ {
				cells = append(cells, r3.Vector{
					X: (float64(i) + 0.5) * h,
					Y: (float64(j) + 0.5) * h,
					Z: (float64(k) + 0.5) * h,
				})
			}
		}
	}
	return cells
}
