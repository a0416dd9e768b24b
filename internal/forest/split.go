package forest

import (
	"math"
	"math/rand"
	"sort"
)

// StratifiedSplit partitions sample indices into train and test sets keeping
// the class proportions of y. Every class with at least two samples
// contributes at least one sample to each side; singleton classes stay in
// the training set.
func StratifiedSplit(y []int, testFraction float64, seed int64) (train, test []int) {
	byClass := make(map[int][]int)
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}
	classes := make([]int, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	rng := rand.New(rand.NewSource(seed))
	for _, c := range classes {
		idx := byClass[c]
		rng.Shuffle(len(idx), func(i, j int) { idx[i], idx[j] = idx[j], idx[i] })

		n := len(idx)
		nTest := 0
		if n >= 2 {
			nTest = int(math.Round(testFraction * float64(n)))
			nTest = max(1, min(nTest, n-1))
		}
		test = append(test, idx[:nTest]...)
		train = append(train, idx[nTest:]...)
	}
	sort.Ints(train)
	sort.Ints(test)
	return train, test
}

// Subset picks the rows and labels at the given indices.
func Subset(x [][]float64, y []int, indices []int) ([][]float64, []int) {
	xs := make([][]float64, len(indices))
	ys := make([]int, len(indices))
	for i, idx := range indices {
		xs[i] = x[idx]
		ys[i] = y[idx]
	}
	return xs, ys
}
