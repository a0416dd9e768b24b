package forest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

type Params struct {
	Trees int   `json:"trees"`
	Seed  int64 `json:"seed"`

	// MaxFeatures is the number of candidate features per split. Zero means
	// floor(sqrt(n_features)).
	MaxFeatures int `json:"max_features"`

	// MaxDepth limits tree depth. Zero grows trees until leaves are pure.
	MaxDepth        int  `json:"max_depth"`
	MinSamplesSplit int  `json:"min_samples_split"`
	Workers         int  `json:"workers"`
	ShowProgress    bool `json:"-"`
}

func DefaultParams() Params {
	return Params{
		Trees:           500,
		Seed:            42,
		MinSamplesSplit: 2,
		ShowProgress:    true,
	}
}

func (p Params) maxFeatures(n int) int {
	if p.MaxFeatures > 0 && p.MaxFeatures <= n {
		return p.MaxFeatures
	}
	m := int(math.Sqrt(float64(n)))
	if m < 1 {
		m = 1
	}
	return m
}

func (p Params) minSamplesSplit() int {
	if p.MinSamplesSplit < 2 {
		return 2
	}
	return p.MinSamplesSplit
}

func (p Params) workers() int {
	if p.Workers > 0 {
		return p.Workers
	}
	return runtime.NumCPU()
}

// Forest is a fitted random forest classifier.
type Forest struct {
	Classes   []int  `json:"classes"`
	NFeatures int    `json:"n_features"`
	Trees     []Tree `json:"trees"`
}

var ErrNoSamples = errors.New("no training samples")

// Train fits a forest on the rows of x with labels y. Each tree gets its own
// bootstrap sample and random source derived from the seed, so the result
// does not depend on the number of workers.
func Train(x [][]float64, y []int, p Params) (*Forest, error) {
	if len(x) == 0 {
		return nil, ErrNoSamples
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("got %d samples and %d labels", len(x), len(y))
	}
	nFeatures := len(x[0])
	for i, row := range x {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("sample %d has %d features, expected %d", i, len(row), nFeatures)
		}
	}
	if p.Trees <= 0 {
		return nil, fmt.Errorf("invalid number of trees: %d", p.Trees)
	}

	classes := uniqueSorted(y)
	classIndex := make(map[int]int, len(classes))
	for i, c := range classes {
		classIndex[c] = i
	}
	encoded := make([]int, len(y))
	for i, label := range y {
		encoded[i] = classIndex[label]
	}

	f := &Forest{
		Classes:   classes,
		NFeatures: nFeatures,
		Trees:     make([]Tree, p.Trees),
	}

	var (
		mu          sync.Mutex
		progressBar *progressbar.ProgressBar
	)
	if p.ShowProgress {
		progressBar = progressbar.Default(int64(p.Trees), "Training random forest")
	}

	wp := workerpool.New(p.workers())
	for i := 0; i < p.Trees; i++ {
		i := i
		wp.Submit(func() {
			rng := rand.New(rand.NewSource(p.Seed + int64(i)))
			samples := make([]int, len(x))
			for j := range samples {
				samples[j] = rng.Intn(len(x))
			}
			f.Trees[i] = buildTree(x, encoded, samples, len(classes), p, rng)

			if progressBar != nil {
				mu.Lock()
				progressBar.Add(1)
				mu.Unlock()
			}
		})
	}
	wp.StopWait()

	if progressBar != nil {
		progressBar.Finish()
	}
	return f, nil
}

// PredictProba averages the leaf class distributions of all trees. The
// returned slice is indexed like f.Classes.
func (f *Forest) PredictProba(row []float64) []float64 {
	proba := make([]float64, len(f.Classes))
	for i := range f.Trees {
		for c, p := range f.Trees[i].proba(row) {
			proba[c] += p
		}
	}
	for c := range proba {
		proba[c] /= float64(len(f.Trees))
	}
	return proba
}

// Predict returns the class with the highest mean probability. Ties go to the
// smallest class code.
func (f *Forest) Predict(row []float64) int {
	proba := f.PredictProba(row)
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.Classes[best]
}

// PredictAll classifies rows concurrently in contiguous chunks.
func (f *Forest) PredictAll(ctx context.Context, rows [][]float64, workers int) ([]int, error) {
	out := make([]int, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	for i, row := range rows {
		if len(row) != f.NFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), f.NFeatures)
		}
	}

	chunk := (len(rows) + workers - 1) / workers
	g, ctx := errgroup.WithContext(ctx)
	for start := 0; start < len(rows); start += chunk {
		start := start
		end := min(start+chunk, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if (i-start)%4096 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				out[i] = f.Predict(rows[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("prediction cancelled: %w", err)
	}
	return out, nil
}

func uniqueSorted(values []int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}
