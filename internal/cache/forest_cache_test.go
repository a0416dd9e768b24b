package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/forest-guardian/hydroprep/internal/forest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedForest(t *testing.T, p forest.Params) *forest.Forest {
	x := [][]float64{{0, 0}, {0, 1}, {1, 0}, {5, 5}, {5, 6}, {6, 5}}
	y := []int{1, 1, 1, 4, 4, 4}
	f, err := forest.Train(x, y, p)
	require.NoError(t, err)
	return f
}

func testParams() forest.Params {
	return forest.Params{Trees: 3, Seed: 42, MinSamplesSplit: 2, Workers: 1}
}

func TestForestCacheRoundTrip(t *testing.T) {
	t.Setenv("HYDROPREP_CACHE_DIR", t.TempDir())
	fc := NewForestCache()
	p := testParams()

	_, ok := fc.Get("samples", p)
	assert.False(t, ok)

	want := trainedForest(t, p)
	require.NoError(t, fc.Set("samples", p, want))

	got, ok := fc.Get("samples", p)
	require.True(t, ok)
	assert.Equal(t, want, got)

	// worker count does not change the trees
	p.Workers = 8
	_, ok = fc.Get("samples", p)
	assert.True(t, ok)
}

func TestForestCacheMissesOtherTraining(t *testing.T) {
	t.Setenv("HYDROPREP_CACHE_DIR", t.TempDir())
	fc := NewForestCache()
	p := testParams()
	require.NoError(t, fc.Set("samples", p, trainedForest(t, p)))

	_, ok := fc.Get("other-samples", p)
	assert.False(t, ok)

	seeded := p
	seeded.Seed = 7
	_, ok = fc.Get("samples", seeded)
	assert.False(t, ok)

	deeper := p
	deeper.MaxDepth = 4
	_, ok = fc.Get("samples", deeper)
	assert.False(t, ok)
}

func TestForestCacheRejectsEntryWithOtherParams(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HYDROPREP_CACHE_DIR", dir)
	fc := NewForestCache()
	p := testParams()

	// an entry stored under p's key but trained with more trees
	other := p
	other.Trees = 5
	require.NoError(t, fc.Set("samples", other, trainedForest(t, other)))
	require.NoError(t, os.Rename(
		filepath.Join(dir, "forest", fc.Key("samples", other)+".json"),
		filepath.Join(dir, "forest", fc.Key("samples", p)+".json"),
	))

	_, ok := fc.Get("samples", p)
	assert.False(t, ok)
}

func TestForestCacheRejectsTamperedEntry(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HYDROPREP_CACHE_DIR", dir)
	fc := NewForestCache()
	p := testParams()

	require.NoError(t, fc.Set("samples", p, trainedForest(t, p)))
	path := filepath.Join(dir, "forest", fc.Key("samples", p)+".json")
	require.FileExists(t, path)

	tampered := `{"samples":"samples","params":{"trees":3,"seed":42,"min_samples_split":2},"forest":{"classes":[2]},"checksum":"x"}`
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0644))

	_, ok := fc.Get("samples", p)
	assert.False(t, ok)
}

func TestForestCacheKey(t *testing.T) {
	fc := &ForestCache{}
	p := testParams()
	assert.Equal(t, fc.Key("a", p), fc.Key("a", p))
	assert.NotEqual(t, fc.Key("a", p), fc.Key("b", p))

	p2 := p
	p2.Trees = 4
	assert.NotEqual(t, fc.Key("a", p), fc.Key("a", p2))
}

func TestFileDigest(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.shp")
	require.NoError(t, os.WriteFile(a, []byte("one"), 0644))

	d1, err := FileDigest(a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(a, []byte("two"), 0644))
	d2, err := FileDigest(a)
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)

	_, err = FileDigest(filepath.Join(dir, "missing.shp"))
	assert.Error(t, err)
}
