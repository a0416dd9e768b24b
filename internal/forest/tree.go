package forest

import (
	"math/rand"
	"sort"
)

// Node is a decision tree node. Leaves have Feature == -1 and carry the class
// distribution of the training samples that reached them.
type Node struct {
	Feature   int       `json:"f"`
	Threshold float64   `json:"t,omitempty"`
	Left      int       `json:"l,omitempty"`
	Right     int       `json:"r,omitempty"`
	Proba     []float64 `json:"p,omitempty"`
}

type Tree struct {
	Nodes []Node `json:"nodes"`
}

func (t *Tree) proba(row []float64) []float64 {
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Proba
		}
		if row[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeBuilder struct {
	x         [][]float64
	y         []int
	nClasses  int
	mtry      int
	minSplit  int
	maxDepth  int
	rng       *rand.Rand
	nodes     []Node
	features  []int
	sortOrder []int
}

func buildTree(x [][]float64, y []int, samples []int, nClasses int, p Params, rng *rand.Rand) Tree {
	nFeatures := len(x[0])
	b := &treeBuilder{
		x:        x,
		y:        y,
		nClasses: nClasses,
		mtry:     p.maxFeatures(nFeatures),
		minSplit: p.minSamplesSplit(),
		maxDepth: p.MaxDepth,
		rng:      rng,
		features: make([]int, nFeatures),
	}
	for i := range b.features {
		b.features[i] = i
	}
	b.grow(samples, 0)
	return Tree{Nodes: b.nodes}
}

func (b *treeBuilder) counts(samples []int) []int {
	counts := make([]int, b.nClasses)
	for _, s := range samples {
		counts[b.y[s]]++
	}
	return counts
}

func (b *treeBuilder) leaf(counts []int, total int) int {
	proba := make([]float64, b.nClasses)
	for c, n := range counts {
		proba[c] = float64(n) / float64(total)
	}
	b.nodes = append(b.nodes, Node{Feature: -1, Proba: proba})
	return len(b.nodes) - 1
}

func pure(counts []int) bool {
	nonZero := 0
	for _, n := range counts {
		if n > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// grow appends the subtree for samples and returns its root index.
func (b *treeBuilder) grow(samples []int, depth int) int {
	counts := b.counts(samples)
	if pure(counts) || len(samples) < b.minSplit || (b.maxDepth > 0 && depth >= b.maxDepth) {
		return b.leaf(counts, len(samples))
	}

	feature, threshold, ok := b.bestSplit(samples, counts)
	if !ok {
		return b.leaf(counts, len(samples))
	}

	var left, right []int
	for _, s := range samples {
		if b.x[s][feature] <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	b.nodes = append(b.nodes, Node{Feature: feature, Threshold: threshold})
	idx := len(b.nodes) - 1
	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

// bestSplit draws candidate features without replacement. Once mtry features
// have been visited the search stops, unless none of them could split the
// node, in which case the remaining features are tried as well.
func (b *treeBuilder) bestSplit(samples []int, counts []int) (int, float64, bool) {
	b.rng.Shuffle(len(b.features), func(i, j int) {
		b.features[i], b.features[j] = b.features[j], b.features[i]
	})

	bestScore := -1.0
	bestFeature := -1
	bestThreshold := 0.0
	total := float64(len(samples))

	if cap(b.sortOrder) < len(samples) {
		b.sortOrder = make([]int, len(samples))
	}
	order := b.sortOrder[:len(samples)]
	leftCounts := make([]int, b.nClasses)
	rightCounts := make([]int, b.nClasses)

	for visited, f := range b.features {
		if visited >= b.mtry && bestFeature >= 0 {
			break
		}

		copy(order, samples)
		sort.Slice(order, func(i, j int) bool { return b.x[order[i]][f] < b.x[order[j]][f] })
		if b.x[order[0]][f] == b.x[order[len(order)-1]][f] {
			continue
		}

		for c := range leftCounts {
			leftCounts[c] = 0
			rightCounts[c] = counts[c]
		}
		// Sum of squared class counts on each side; the split minimising the
		// weighted Gini impurity maximises sqL/nL + sqR/nR.
		sqL := 0.0
		sqR := 0.0
		for _, n := range counts {
			sqR += float64(n) * float64(n)
		}

		for i := 0; i < len(order)-1; i++ {
			c := b.y[order[i]]
			sqL += float64(2*leftCounts[c] + 1)
			sqR -= float64(2*rightCounts[c] - 1)
			leftCounts[c]++
			rightCounts[c]--

			v := b.x[order[i]][f]
			next := b.x[order[i+1]][f]
			if v == next {
				continue
			}
			nL := float64(i + 1)
			nR := total - nL
			score := sqL/nL + sqR/nR
			if score > bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = v + (next-v)/2
				if bestThreshold >= next {
					bestThreshold = v
				}
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
