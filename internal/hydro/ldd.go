package hydro

import (
	"errors"
	"math"

	"github.com/forest-guardian/hydroprep/internal/raster"
)

// Local drain directions use the numeric keypad layout.
const (
	SouthWest = 1
	South     = 2
	SouthEast = 3
	West      = 4
	Pit       = 5
	East      = 6
	NorthWest = 7
	North     = 8
	NorthEast = 9
)

var ErrUnsoundLDD = errors.New("ldd contains a cycle or an invalid direction")

// offsets[d] is the column and row step of direction d.
var offsets = [10][2]int{
	{0, 0},
	{-1, 1}, {0, 1}, {1, 1},
	{-1, 0}, {0, 0}, {1, 0},
	{-1, -1}, {0, -1}, {1, -1},
}

// Downstream returns the index of the cell that cell i drains into, or -1
// for pits, missing cells and flows leaving the grid.
func Downstream(ldd *raster.Grid, i int) int {
	v := ldd.Data[i]
	if math.IsNaN(v) {
		return -1
	}
	d := int(v)
	if d < 1 || d > 9 || d == Pit {
		return -1
	}
	col, row := i%ldd.Width+offsets[d][0], i/ldd.Width+offsets[d][1]
	if !ldd.InBounds(col, row) || math.IsNaN(ldd.At(col, row)) {
		return -1
	}
	return ldd.Index(col, row)
}

// LddCreate assigns every cell the D8 direction of steepest descent, measured
// as drop over distance. Cells without a strictly lower neighbour are pits.
// Ties keep the first direction in keypad order.
func LddCreate(dem *raster.Grid) *raster.Grid {
	out := dem.Like(math.NaN())
	dx, dy := dem.CellSize()
	if dx == 0 {
		dx = 1
	}
	if dy == 0 {
		dy = dx
	}

	var dist [10]float64
	for d := 1; d <= 9; d++ {
		dist[d] = math.Hypot(float64(offsets[d][0])*dx, float64(offsets[d][1])*dy)
	}

	for row := 0; row < dem.Height; row++ {
		for col := 0; col < dem.Width; col++ {
			z := dem.At(col, row)
			if math.IsNaN(z) {
				continue
			}
			best := Pit
			bestSlope := 0.0
			for d := 1; d <= 9; d++ {
				if d == Pit {
					continue
				}
				c, r := col+offsets[d][0], row+offsets[d][1]
				if !dem.InBounds(c, r) {
					continue
				}
				zn := dem.At(c, r)
				if math.IsNaN(zn) || zn >= z {
					continue
				}
				slope := (z - zn) / dist[d]
				if slope > bestSlope {
					bestSlope = slope
					best = d
				}
			}
			out.Set(col, row, float64(best))
		}
	}
	return out
}

// LddCreateDEM removes every depression from dem before direction
// assignment, so all cells drain to the grid edge or a missing value boundary.
func LddCreateDEM(dem *raster.Grid) *raster.Grid {
	return LddCreate(FillDepressions(dem))
}

// PitIDs numbers the pits of ldd 1..n in row-major order. Other valid cells
// get 0 and missing cells stay missing.
func PitIDs(ldd *raster.Grid) *raster.Grid {
	out := ldd.Like(math.NaN())
	id := 0
	for i, v := range ldd.Data {
		if math.IsNaN(v) {
			continue
		}
		if int(v) == Pit {
			id++
			out.Data[i] = float64(id)
		} else {
			out.Data[i] = 0
		}
	}
	return out
}

// topologicalOrder returns valid cells ordered from sources to outlets.
func topologicalOrder(ldd *raster.Grid) ([]int, []int, error) {
	n := len(ldd.Data)
	down := make([]int, n)
	inDegree := make([]int, n)
	valid := 0
	for i, v := range ldd.Data {
		down[i] = -1
		if math.IsNaN(v) {
			continue
		}
		valid++
		d := int(v)
		if float64(d) != v || d < 1 || d > 9 {
			return nil, nil, ErrUnsoundLDD
		}
		down[i] = Downstream(ldd, i)
		if down[i] >= 0 {
			inDegree[down[i]]++
		}
	}

	order := make([]int, 0, valid)
	for i, v := range ldd.Data {
		if !math.IsNaN(v) && inDegree[i] == 0 {
			order = append(order, i)
		}
	}
	for k := 0; k < len(order); k++ {
		j := down[order[k]]
		if j < 0 {
			continue
		}
		inDegree[j]--
		if inDegree[j] == 0 {
			order = append(order, j)
		}
	}
	if len(order) != valid {
		return nil, nil, ErrUnsoundLDD
	}
	return order, down, nil
}
