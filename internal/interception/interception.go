package interception

import (
	"fmt"
	"math"

	"github.com/forest-guardian/hydroprep/internal/landcover"
	"github.com/forest-guardian/hydroprep/internal/raster"
)

// CoverFactor derives the vegetation cover fraction from NDVI.
func CoverFactor(ndvi *raster.Grid) *raster.Grid {
	return ndvi.Map(func(v float64) float64 {
		return 1 - math.Exp(-2*v/(1.5-v))
	})
}

// LAI inverts the cover factor into a leaf area index. Cells with a cover of
// one or more are missing.
func LAI(cover *raster.Grid) *raster.Grid {
	return cover.Map(func(c float64) float64 {
		if !(c < 1) {
			return math.NaN()
		}
		return math.Log(1-c) / -0.4
	})
}

// Smax computes the maximum canopy storage from the land cover classes and
// LAI. Both grids must have the same dimensions.
func Smax(lulc, lai *raster.Grid) (*raster.Grid, error) {
	if !lulc.SameShape(lai) {
		return nil, fmt.Errorf("land cover is %dx%d but LAI is %dx%d: %w",
			lulc.Width, lulc.Height, lai.Width, lai.Height, raster.ErrNotAligned)
	}
	return raster.Combine(lulc, lai, func(code, l float64) float64 {
		class, ok := landcover.FromValue(code)
		if !ok {
			return math.NaN()
		}
		return landcover.MaxInterception(class, l)
	})
}
