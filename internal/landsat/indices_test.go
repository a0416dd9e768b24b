package landsat

import (
	"math"
	"testing"

	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(values ...float64) *raster.Grid {
	g := raster.New(len(values), 1, [6]float64{0, 30, 0, 0, 0, -30}, "")
	copy(g.Data, values)
	return g
}

func TestNDVI(t *testing.T) {
	red := row(0.1, 0, 0.3, 2)
	nir := row(0.3, 0, 0.1, 2)

	out, err := NDVI(red, nir)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, out.Data[0], 1e-12)
	assert.True(t, math.IsNaN(out.Data[1]))
	assert.InDelta(t, -0.5, out.Data[2], 1e-12)
	assert.Equal(t, 0.0, out.Data[3])
}

func TestNDVIShapeMismatch(t *testing.T) {
	_, err := NDVI(row(1, 2), row(1))
	assert.ErrorIs(t, err, raster.ErrNotAligned)
}

func TestPositiveOnly(t *testing.T) {
	out := PositiveOnly(row(-1, 0, 0.5, math.NaN()))
	assert.True(t, math.IsNaN(out.Data[0]))
	assert.True(t, math.IsNaN(out.Data[1]))
	assert.Equal(t, 0.5, out.Data[2])
	assert.True(t, math.IsNaN(out.Data[3]))
}

func TestBandPath(t *testing.T) {
	assert.Equal(t, "raw-maps/Landsat_Bands/LC08_SR_B4.TIF",
		BandPath("raw-maps/Landsat_Bands", "LC08_SR_B%d.TIF", 4))
}
