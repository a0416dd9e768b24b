package raster

import (
	"errors"
	"fmt"
	"math"
)

// Grid is a single band raster held in memory. Cells are stored row-major and
// missing cells are NaN.
type Grid struct {
	Width      int
	Height     int
	Transform  [6]float64
	Projection string
	Data       []float64
}

var ErrNotAligned = errors.New("rasters are not aligned")

// New returns a grid filled with missing values.
func New(width, height int, transform [6]float64, projection string) *Grid {
	return NewFilled(width, height, transform, projection, math.NaN())
}

func NewFilled(width, height int, transform [6]float64, projection string, value float64) *Grid {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = value
	}
	return &Grid{
		Width:      width,
		Height:     height,
		Transform:  transform,
		Projection: projection,
		Data:       data,
	}
}

// Like returns a grid with the same geometry as g, filled with value.
func (g *Grid) Like(value float64) *Grid {
	return NewFilled(g.Width, g.Height, g.Transform, g.Projection, value)
}

func (g *Grid) Clone() *Grid {
	data := make([]float64, len(g.Data))
	copy(data, g.Data)
	return &Grid{
		Width:      g.Width,
		Height:     g.Height,
		Transform:  g.Transform,
		Projection: g.Projection,
		Data:       data,
	}
}

func (g *Grid) Index(col, row int) int {
	return row*g.Width + col
}

func (g *Grid) InBounds(col, row int) bool {
	return col >= 0 && col < g.Width && row >= 0 && row < g.Height
}

func (g *Grid) At(col, row int) float64 {
	return g.Data[row*g.Width+col]
}

func (g *Grid) Set(col, row int, value float64) {
	g.Data[row*g.Width+col] = value
}

// Aligned reports whether both grids share dimensions and geotransform.
func (g *Grid) Aligned(other *Grid) bool {
	if g.Width != other.Width || g.Height != other.Height {
		return false
	}
	for i := range g.Transform {
		if math.Abs(g.Transform[i]-other.Transform[i]) > 1e-9*math.Max(1, math.Abs(g.Transform[i])) {
			return false
		}
	}
	return true
}

// SameShape only compares dimensions.
func (g *Grid) SameShape(other *Grid) bool {
	return g.Width == other.Width && g.Height == other.Height
}

// CellSize returns the absolute pixel width and height in map units.
func (g *Grid) CellSize() (float64, float64) {
	return math.Abs(g.Transform[1]), math.Abs(g.Transform[5])
}

// CellCenter converts a pixel position to the map coordinates of its centre.
func (g *Grid) CellCenter(col, row int) (float64, float64) {
	x := g.Transform[0] + g.Transform[1]*(float64(col)+0.5) + g.Transform[2]*(float64(row)+0.5)
	y := g.Transform[3] + g.Transform[4]*(float64(col)+0.5) + g.Transform[5]*(float64(row)+0.5)
	return x, y
}

func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Map applies fn to every cell. Missing cells are passed to fn as NaN.
func (g *Grid) Map(fn func(v float64) float64) *Grid {
	out := g.Like(math.NaN())
	for i, v := range g.Data {
		out.Data[i] = fn(v)
	}
	return out
}

// Combine applies fn cell-wise on two aligned grids.
func Combine(a, b *Grid, fn func(a, b float64) float64) (*Grid, error) {
	if !a.SameShape(b) {
		return nil, fmt.Errorf("%w: %dx%d vs %dx%d", ErrNotAligned, a.Width, a.Height, b.Width, b.Height)
	}
	out := a.Like(math.NaN())
	for i := range a.Data {
		out.Data[i] = fn(a.Data[i], b.Data[i])
	}
	return out, nil
}

// Mul multiplies two grids cell-wise; missing cells propagate.
func Mul(a, b *Grid) (*Grid, error) {
	return Combine(a, b, func(x, y float64) float64 { return x * y })
}

// Scale multiplies every cell by factor.
func (g *Grid) Scale(factor float64) *Grid {
	return g.Map(func(v float64) float64 { return v * factor })
}

// Valid counts the non missing cells.
func (g *Grid) Valid() int {
	n := 0
	for _, v := range g.Data {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}
