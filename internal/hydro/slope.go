package hydro

import (
	"math"

	"github.com/forest-guardian/hydroprep/internal/raster"
)

// Slope returns the Horn gradient (rise over run) of dem. Neighbours outside
// the grid or missing take the centre value.
func Slope(dem *raster.Grid) *raster.Grid {
	out := dem.Like(math.NaN())
	dx, dy := dem.CellSize()

	for row := 0; row < dem.Height; row++ {
		for col := 0; col < dem.Width; col++ {
			z := dem.At(col, row)
			if math.IsNaN(z) {
				continue
			}
			at := func(c, r int) float64 {
				if !dem.InBounds(c, r) {
					return z
				}
				v := dem.At(c, r)
				if math.IsNaN(v) {
					return z
				}
				return v
			}

			a, b, c := at(col-1, row-1), at(col, row-1), at(col+1, row-1)
			d, f := at(col-1, row), at(col+1, row)
			g, h, i := at(col-1, row+1), at(col, row+1), at(col+1, row+1)

			dzdx := ((c + 2*f + i) - (a + 2*d + g)) / (8 * dx)
			dzdy := ((g + 2*h + i) - (a + 2*b + c)) / (8 * dy)
			out.Set(col, row, math.Hypot(dzdx, dzdy))
		}
	}
	return out
}

// Gradient converts slope to the sine of the slope angle, floored at
// minGradient.
func Gradient(slope *raster.Grid, minGradient float64) *raster.Grid {
	return slope.Map(func(s float64) float64 {
		if math.IsNaN(s) {
			return s
		}
		return math.Max(minGradient, math.Sin(math.Atan(s)))
	})
}
