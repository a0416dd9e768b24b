package cache

import (
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forest-guardian/hydroprep/internal/forest"
	"github.com/forest-guardian/hydroprep/internal/properties"
	log "github.com/sirupsen/logrus"
)

// ForestEntry is a trained forest stored with what it was trained from.
type ForestEntry struct {
	Samples   string         `json:"samples"`
	Params    forest.Params  `json:"params"`
	Forest    *forest.Forest `json:"forest"`
	CreatedAt time.Time      `json:"created_at"`
	Checksum  string         `json:"checksum"`
}

// ForestCache keeps trained forests on disk, one JSON document per training
// set and parameter combination.
type ForestCache struct {
	cacheDir string
}

func NewForestCache() *ForestCache {
	return &ForestCache{cacheDir: filepath.Join(properties.CacheDir(), "forest")}
}

// Key identifies a forest by the digest of its samples and the parameters
// that change the fitted trees. Workers and progress output do not.
func (fc *ForestCache) Key(samples string, p forest.Params) string {
	h := sha1.New()
	fmt.Fprintf(h, "%s_%d_%d_%d_%d_%d", samples, p.Trees, p.Seed, p.MaxFeatures, p.MaxDepth, p.MinSamplesSplit)
	return hex.EncodeToString(h.Sum(nil))
}

func sameTraining(a, b forest.Params) bool {
	return a.Trees == b.Trees &&
		a.Seed == b.Seed &&
		a.MaxFeatures == b.MaxFeatures &&
		a.MaxDepth == b.MaxDepth &&
		a.MinSamplesSplit == b.MinSamplesSplit
}

func (fc *ForestCache) path(key string) string {
	return filepath.Join(fc.cacheDir, key+".json")
}

// Get returns the cached forest for samples and p. Unreadable or corrupted
// entries, and entries trained on something else, are misses.
func (fc *ForestCache) Get(samples string, p forest.Params) (*forest.Forest, bool) {
	cacheFile := fc.path(fc.Key(samples, p))
	data, err := os.ReadFile(cacheFile)
	if err != nil {
		return nil, false
	}

	var entry ForestEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		log.WithError(err).WithField("file", cacheFile).Warn("ignoring unreadable cache entry")
		return nil, false
	}
	if entry.Forest == nil || entry.Checksum != checksum(entry.Forest) {
		log.WithField("file", cacheFile).Warn("ignoring corrupted cache entry")
		return nil, false
	}
	if entry.Samples != samples || !sameTraining(entry.Params, p) {
		log.WithFields(log.Fields{"file": cacheFile, "params": entry.Params}).Warn("ignoring forest trained with other samples or parameters")
		return nil, false
	}
	if len(entry.Forest.Trees) != p.Trees {
		log.WithField("file", cacheFile).Warn("ignoring incomplete cached forest")
		return nil, false
	}

	log.WithFields(log.Fields{"file": cacheFile, "created_at": entry.CreatedAt}).Debug("cache hit")
	return entry.Forest, true
}

func (fc *ForestCache) Set(samples string, p forest.Params, f *forest.Forest) error {
	if err := os.MkdirAll(fc.cacheDir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	jsonData, err := json.Marshal(ForestEntry{
		Samples:   samples,
		Params:    p,
		Forest:    f,
		CreatedAt: time.Now(),
		Checksum:  checksum(f),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	cacheFile := fc.path(fc.Key(samples, p))
	tmpFile := cacheFile + ".tmp"
	if err := os.WriteFile(tmpFile, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := os.Rename(tmpFile, cacheFile); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}
	return nil
}

func checksum(f *forest.Forest) string {
	jsonData, _ := json.Marshal(f)
	hash := md5.Sum(jsonData)
	return hex.EncodeToString(hash[:])
}
