package hydro

import (
	"container/heap"
	"math"

	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/gammazero/deque"
)

type cell struct {
	index int
	z     float64
}

// cellQueue is a min-heap on elevation; equal elevations pop in insertion
// order so results do not depend on heap internals.
type cellQueue struct {
	items []cell
	seq   []int
	next  int
}

func (q *cellQueue) Len() int { return len(q.items) }
func (q *cellQueue) Less(i, j int) bool {
	if q.items[i].z == q.items[j].z {
		return q.seq[i] < q.seq[j]
	}
	return q.items[i].z < q.items[j].z
}
func (q *cellQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.seq[i], q.seq[j] = q.seq[j], q.seq[i]
}
func (q *cellQueue) Push(x any) {
	q.items = append(q.items, x.(cell))
	q.seq = append(q.seq, q.next)
	q.next++
}
func (q *cellQueue) Pop() any {
	n := len(q.items) - 1
	c := q.items[n]
	q.items = q.items[:n]
	q.seq = q.seq[:n]
	return c
}

// FillDepressions raises every cell that has no downhill path to the grid edge
// or to a missing cell, using priority flood with the smallest representable
// increment so filled flats still drain.
func FillDepressions(dem *raster.Grid) *raster.Grid {
	out := dem.Clone()
	w, h := dem.Width, dem.Height
	closed := make([]bool, len(out.Data))

	open := &cellQueue{}
	pits := deque.New[int]()

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			i := out.Index(col, row)
			if math.IsNaN(out.Data[i]) {
				closed[i] = true
				continue
			}
			if isBoundary(out, col, row) {
				closed[i] = true
				heap.Push(open, cell{index: i, z: out.Data[i]})
			}
		}
	}

	for open.Len() > 0 || pits.Len() > 0 {
		var c int
		if pits.Len() > 0 {
			c = pits.PopFront()
		} else {
			c = heap.Pop(open).(cell).index
		}
		z := out.Data[c]
		col, row := c%w, c/w

		for d := 1; d <= 9; d++ {
			if d == Pit {
				continue
			}
			nc, nr := col+offsets[d][0], row+offsets[d][1]
			if !out.InBounds(nc, nr) {
				continue
			}
			n := out.Index(nc, nr)
			if closed[n] {
				continue
			}
			closed[n] = true
			if out.Data[n] <= z {
				out.Data[n] = math.Nextafter(z, math.Inf(1))
				pits.PushBack(n)
			} else {
				heap.Push(open, cell{index: n, z: out.Data[n]})
			}
		}
	}
	return out
}

// isBoundary reports whether a valid cell touches the grid edge or a missing
// neighbour.
func isBoundary(g *raster.Grid, col, row int) bool {
	if col == 0 || row == 0 || col == g.Width-1 || row == g.Height-1 {
		return true
	}
	for d := 1; d <= 9; d++ {
		if d == Pit {
			continue
		}
		if math.IsNaN(g.At(col+offsets[d][0], row+offsets[d][1])) {
			return true
		}
	}
	return false
}
