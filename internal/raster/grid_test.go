package raster

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var northUp = [6]float64{100, 30, 0, 500, 0, -30}

func TestGridAccessors(t *testing.T) {
	g := New(3, 2, northUp, "")
	assert.Equal(t, 6, len(g.Data))
	assert.True(t, IsMissing(g.At(2, 1)))

	g.Set(2, 1, 7)
	assert.Equal(t, 7.0, g.Data[5])
	assert.Equal(t, 5, g.Index(2, 1))
	assert.True(t, g.InBounds(2, 1))
	assert.False(t, g.InBounds(3, 0))
	assert.Equal(t, 1, g.Valid())

	x, y := g.CellCenter(0, 0)
	assert.Equal(t, 115.0, x)
	assert.Equal(t, 485.0, y)

	dx, dy := g.CellSize()
	assert.Equal(t, 30.0, dx)
	assert.Equal(t, 30.0, dy)
}

func TestCombinePropagatesMissing(t *testing.T) {
	a := NewFilled(2, 1, northUp, "", 2)
	b := NewFilled(2, 1, northUp, "", 3)
	b.Data[1] = math.NaN()

	out, err := Mul(a, b)
	require.NoError(t, err)
	assert.Equal(t, 6.0, out.Data[0])
	assert.True(t, math.IsNaN(out.Data[1]))

	_, err = Mul(a, NewFilled(3, 1, northUp, "", 1))
	assert.ErrorIs(t, err, ErrNotAligned)
}

func TestAligned(t *testing.T) {
	a := New(4, 4, northUp, "")
	b := New(4, 4, northUp, "")
	assert.True(t, a.Aligned(b))

	shifted := northUp
	shifted[0] += 30
	assert.False(t, a.Aligned(New(4, 4, shifted, "")))
}

func TestWindowFromBounds(t *testing.T) {
	tests := []struct {
		name                   string
		minX, minY, maxX, maxY float64
		want                   Window
		err                    error
	}{
		{"exact pixels", 130, 410, 190, 470, Window{XOff: 1, YOff: 1, Width: 2, Height: 2}, nil},
		{"snapped outward", 135, 415, 185, 465, Window{XOff: 1, YOff: 1, Width: 2, Height: 2}, nil},
		{"partial pixel grows", 131, 409, 191, 470, Window{XOff: 1, YOff: 1, Width: 3, Height: 3}, nil},
		{"clamped", 0, 0, 1000, 1000, Window{XOff: 0, YOff: 0, Width: 10, Height: 10}, nil},
		{"outside", 2000, 2000, 3000, 3000, Window{}, ErrNoOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := WindowFromBounds(northUp, 10, 10, tt.minX, tt.minY, tt.maxX, tt.maxY)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, w)
		})
	}
}

func TestWindowTransform(t *testing.T) {
	w := Window{XOff: 2, YOff: 3, Width: 4, Height: 4}
	tr := w.Transform(northUp)
	assert.Equal(t, [6]float64{160, 30, 0, 410, 0, -30}, tr)
}

func TestSummarize(t *testing.T) {
	g := New(4, 1, northUp, "")
	copy(g.Data, []float64{1, 2, math.NaN(), 3})

	s := Summarize(g)
	assert.Equal(t, 3, s.Count)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.InDelta(t, 2.0, s.Mean, 1e-12)
	assert.InDelta(t, 1.0, s.StdDev, 1e-12)

	empty := Summarize(New(2, 2, northUp, ""))
	assert.Equal(t, 0, empty.Count)
	assert.True(t, math.IsNaN(empty.Mean))
}
