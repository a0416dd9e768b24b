package lulc

import (
	"math"

	"github.com/forest-guardian/hydroprep/internal/raster"
)

// MajorityFilter replaces every cell by the most frequent class in its 3x3
// neighbourhood. Missing cells are ignored; ties go to the smallest class and
// a neighbourhood without any class yields NaN.
func MajorityFilter(g *raster.Grid) *raster.Grid {
	out := g.Like(math.NaN())
	counts := make(map[float64]int, 9)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			clear(counts)
			for dr := -1; dr <= 1; dr++ {
				for dc := -1; dc <= 1; dc++ {
					c, r := col+dc, row+dr
					if !g.InBounds(c, r) {
						continue
					}
					if v := g.At(c, r); !math.IsNaN(v) {
						counts[v]++
					}
				}
			}

			best, bestCount := math.NaN(), 0
			for v, n := range counts {
				if n > bestCount || (n == bestCount && v < best) {
					best, bestCount = v, n
				}
			}
			out.Set(col, row, best)
		}
	}
	return out
}
