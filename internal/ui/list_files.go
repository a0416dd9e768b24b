package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/forest-guardian/hydroprep/internal/params"
	"github.com/forest-guardian/hydroprep/internal/properties"
)

// InputStatus reports whether an expected input exists.
type InputStatus struct {
	Name    string
	Path    string
	Present bool
}

// ExpectedInputs lists the files the pipeline reads before any stage has run.
func ExpectedInputs() []InputStatus {
	paths := []string{
		properties.WatershedPath(),
		properties.TrainingSamplesPath(),
	}
	for band := 1; band <= 7; band++ {
		paths = append(paths, filepath.Join(properties.LandsatDir(), fmt.Sprintf(properties.BandPattern(), band)))
	}
	for _, name := range []string{"mask.map", "dem.map", "soil.map"} {
		paths = append(paths, properties.RawMap(name))
	}
	for _, lm := range append(append([]params.LookupMap{}, params.SoilTables...), params.LandcoverTables...) {
		paths = append(paths, properties.RawMap(lm.Table))
	}

	statuses := make([]InputStatus, 0, len(paths))
	for _, p := range paths {
		_, err := os.Stat(p)
		statuses = append(statuses, InputStatus{Name: filepath.Base(p), Path: p, Present: err == nil})
	}
	return statuses
}

// ListInputs prints the expected inputs and marks the missing ones.
func ListInputs() {
	PrintWarning(fmt.Sprintf("Inputs are resolved against the root path '%s'.", properties.RootPath()))
	missing := 0
	for _, s := range ExpectedInputs() {
		if s.Present {
			success.Printf("- %s\n", s.Path)
		} else {
			missing++
			failure.Printf("- %s (missing)\n", s.Path)
		}
	}
	if missing > 0 {
		PrintError(fmt.Sprintf("%d inputs are missing", missing))
	}
}

// OutputFiles returns the files below dir, sorted by relative path.
func OutputFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.Sort(files)
	return files, nil
}

// ListOutputs prints the products of earlier runs.
func ListOutputs() {
	dir := properties.OutputDir()
	files, err := OutputFiles(dir)
	if err != nil {
		PrintError(fmt.Sprintf("Error reading output folder: %s", err.Error()))
		return
	}
	if len(files) == 0 {
		PrintWarning("No outputs yet. Run the pipeline first.")
		return
	}

	success.Printf("\nOutputs in %s:\n", dir)
	for _, f := range files {
		if strings.HasPrefix(f, "quicklook") {
			info.Printf("- %s\n", f)
			continue
		}
		success.Printf("- %s\n", f)
	}
}
