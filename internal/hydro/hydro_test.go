package hydro

import (
	"math"
	"testing"

	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nan = math.NaN()

func grid(width int, values ...float64) *raster.Grid {
	g := raster.New(width, len(values)/width, [6]float64{0, 1, 0, float64(len(values) / width), 0, -1}, "")
	copy(g.Data, values)
	return g
}

func TestFillDepressionsRaisesPit(t *testing.T) {
	dem := grid(3,
		9, 9, 9,
		9, 1, 9,
		9, 9, 9,
	)
	filled := FillDepressions(dem)
	assert.Greater(t, filled.At(1, 1), 9.0)
	assert.Equal(t, math.Nextafter(9, math.Inf(1)), filled.At(1, 1))
	assert.Equal(t, 1.0, dem.At(1, 1), "input must not be modified")
}

func TestFillDepressionsDrainsFlats(t *testing.T) {
	dem := grid(5,
		5, 5, 5, 5, 5,
		5, 2, 2, 2, 5,
		5, 5, 5, 5, 5,
	)
	ldd := LddCreateDEM(dem)
	for col := 1; col <= 3; col++ {
		assert.NotEqual(t, float64(Pit), ldd.At(col, 1), "col %d", col)
	}
}

func TestFillDepressionsKeepsCellsNextToMissing(t *testing.T) {
	dem := grid(4,
		9, 9, 9, 9,
		9, 1, nan, 9,
		9, 9, 9, 9,
	)
	filled := FillDepressions(dem)
	assert.Equal(t, 1.0, filled.At(1, 1))
	assert.True(t, math.IsNaN(filled.At(2, 1)))
}

func TestLddCreate(t *testing.T) {
	dem := grid(3,
		3, 2, 1,
		4, 3, 2,
		5, 4, 3,
	)
	ldd := LddCreate(dem)
	assert.Equal(t, float64(East), ldd.At(0, 0))
	assert.Equal(t, float64(Pit), ldd.At(2, 0))
	assert.Equal(t, float64(NorthEast), ldd.At(1, 1))
	assert.Equal(t, float64(North), ldd.At(2, 2))
}

func TestLddCreateSkipsMissing(t *testing.T) {
	dem := grid(2, 5, nan)
	ldd := LddCreate(dem)
	assert.Equal(t, float64(Pit), ldd.At(0, 0))
	assert.True(t, math.IsNaN(ldd.At(1, 0)))
}

func TestPitIDs(t *testing.T) {
	ids := PitIDs(grid(4, 5, 6, nan, 5))
	assert.Equal(t, 1.0, ids.Data[0])
	assert.Equal(t, 0.0, ids.Data[1])
	assert.True(t, math.IsNaN(ids.Data[2]))
	assert.Equal(t, 2.0, ids.Data[3])
}

// two branches joining into a pit:
//
//	3 . 1
//	. 2 .
//	6 5 4
func confluence() *raster.Grid {
	return grid(3,
		SouthEast, nan, SouthWest,
		nan, South, nan,
		East, Pit, West,
	)
}

func TestAccuflux(t *testing.T) {
	ldd := confluence()
	flux, err := Accuflux(ldd, ldd.Like(1))
	require.NoError(t, err)

	assert.Equal(t, 1.0, flux.At(0, 0))
	assert.Equal(t, 3.0, flux.At(1, 1))
	assert.Equal(t, 6.0, flux.At(1, 2))
	assert.True(t, math.IsNaN(flux.At(1, 0)))
}

func TestAccufluxFlowsOffGrid(t *testing.T) {
	flux, err := Accuflux(grid(3, 6, 6, 6), grid(3, 1, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, flux.Data)
}

func TestStreamOrder(t *testing.T) {
	order, err := StreamOrder(confluence())
	require.NoError(t, err)

	assert.Equal(t, 1.0, order.At(0, 0))
	assert.Equal(t, 1.0, order.At(2, 0))
	assert.Equal(t, 2.0, order.At(1, 1))
	assert.Equal(t, 1.0, order.At(0, 2))
	assert.Equal(t, 2.0, order.At(1, 2))
}

func TestUnsoundLDD(t *testing.T) {
	cycle := grid(2, East, West)
	_, err := Accuflux(cycle, cycle.Like(1))
	assert.ErrorIs(t, err, ErrUnsoundLDD)

	_, err = StreamOrder(grid(1, 12))
	assert.ErrorIs(t, err, ErrUnsoundLDD)
}

func TestSlopeAndGradient(t *testing.T) {
	dem := grid(3,
		0, 2, 4,
		0, 2, 4,
		0, 2, 4,
	)
	slope := Slope(dem)
	assert.InDelta(t, 2.0, slope.At(1, 1), 1e-12)

	gradient := Gradient(slope, 0.01)
	assert.InDelta(t, 2/math.Sqrt(5), gradient.At(1, 1), 1e-12)

	flat := Gradient(Slope(grid(2, 1, 1, 1, 1)), 0.01)
	assert.Equal(t, 0.01, flat.Data[0])
}
