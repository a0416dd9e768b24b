package landsat

import (
	"math"

	"github.com/forest-guardian/hydroprep/internal/raster"
)

// NDVI computes (nir - red) / (nir + red). Cells where the sum is zero are
// missing.
func NDVI(red, nir *raster.Grid) (*raster.Grid, error) {
	return raster.Combine(nir, red, ndvi)
}

func ndvi(nir, red float64) float64 {
	sum := nir + red
	if sum == 0 {
		return math.NaN()
	}
	return (nir - red) / sum
}

// PositiveOnly replaces every value that is not strictly positive with NaN.
func PositiveOnly(g *raster.Grid) *raster.Grid {
	return g.Map(func(v float64) float64 {
		if v > 0 {
			return v
		}
		return math.NaN()
	})
}
