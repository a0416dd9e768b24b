package delivery

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forest-guardian/hydroprep/internal/cache"
	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/gocarina/gocsv"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Artifact is a file produced by a stage.
type Artifact struct {
	Stage string
	Name  string
	Path  string
	Scale string
	Grid  *raster.Grid
}

type ManifestRow struct {
	RunID     string  `csv:"run_id"`
	Stage     string  `csv:"stage"`
	Name      string  `csv:"name"`
	Path      string  `csv:"path"`
	Scale     string  `csv:"value_scale"`
	Width     int     `csv:"width"`
	Height    int     `csv:"height"`
	Count     int     `csv:"valid_cells"`
	Min       float64 `csv:"min"`
	Max       float64 `csv:"max"`
	Mean      float64 `csv:"mean"`
	StdDev    float64 `csv:"std_dev"`
	Checksum  string  `csv:"sha1"`
	CreatedAt string  `csv:"created_at"`
}

// Manifest collects the artifacts of one run.
type Manifest struct {
	RunID string
	Rows  []ManifestRow
	now   func() time.Time
}

func NewManifest() *Manifest {
	return &Manifest{RunID: uuid.NewString(), now: time.Now}
}

func (m *Manifest) Add(artifacts ...Artifact) {
	for _, a := range artifacts {
		row := ManifestRow{
			RunID:     m.RunID,
			Stage:     a.Stage,
			Name:      a.Name,
			Path:      a.Path,
			Scale:     a.Scale,
			CreatedAt: m.now().UTC().Format(time.RFC3339),
		}
		if a.Grid != nil {
			s := raster.Summarize(a.Grid)
			row.Width, row.Height = a.Grid.Width, a.Grid.Height
			row.Count, row.Min, row.Max, row.Mean, row.StdDev = s.Count, s.Min, s.Max, s.Mean, s.StdDev
		}
		if a.Path != "" {
			if digest, err := cache.FileDigest(a.Path); err == nil {
				row.Checksum = digest
			} else {
				log.WithError(err).Debug("no checksum for artifact")
			}
		}
		m.Rows = append(m.Rows, row)
	}
}

// Write stores the manifest as CSV at path.
func (m *Manifest) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create manifest folder: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create manifest: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&m.Rows, f); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
