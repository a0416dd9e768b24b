package lulc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/forest-guardian/hydroprep/internal/forest"
	"github.com/gocarina/gocsv"
)

// WriteReport stores the classification report rows as CSV.
func WriteReport(path string, report forest.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report folder: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	rows := report.Rows()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
