package delivery

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/forest-guardian/hydroprep/internal/convert"
	"github.com/forest-guardian/hydroprep/internal/interception"
	"github.com/forest-guardian/hydroprep/internal/lulc"
	"github.com/forest-guardian/hydroprep/internal/mapio"
	"github.com/forest-guardian/hydroprep/internal/notification"
	"github.com/forest-guardian/hydroprep/internal/params"
	"github.com/forest-guardian/hydroprep/internal/properties"
	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/forest-guardian/hydroprep/internal/utils"
	log "github.com/sirupsen/logrus"
)

const (
	StageLULC         = "lulc"
	StageInterception = "interception"
	StageConversion   = "conversion"
	StageParameters   = "parameters"
)

func RunLULC(ctx context.Context) ([]Artifact, error) {
	cfg := lulc.ConfigFromProperties()
	result, err := lulc.Run(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("lulc: %w", err)
	}
	return []Artifact{{
		Stage: StageLULC,
		Name:  "LULC",
		Path:  cfg.OutputPath,
		Scale: "Int16",
		Grid:  result.Classification,
	}}, nil
}

func RunInterception(ctx context.Context) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	maps, err := interception.Run(interception.ConfigFromProperties())
	if err != nil {
		return nil, fmt.Errorf("interception: %w", err)
	}
	grids := map[string]*raster.Grid{
		"ndvi":     maps.NDVI,
		"c_factor": maps.Cover,
		"lai":      maps.LAI,
		"smax":     maps.Smax,
	}
	var artifacts []Artifact
	for _, name := range utils.GetSortedKeys(maps.Output, true) {
		artifacts = append(artifacts, Artifact{
			Stage: StageInterception,
			Name:  name,
			Path:  maps.Output[name],
			Scale: "Float32",
			Grid:  grids[name],
		})
	}
	return artifacts, nil
}

func RunConversion(ctx context.Context) ([]Artifact, error) {
	conversions := convert.DefaultConversions()
	if err := convert.Run(ctx, conversions, properties.Workers(), convert.ConvertToPCRaster); err != nil {
		return nil, fmt.Errorf("conversion: %w", err)
	}
	var artifacts []Artifact
	for _, c := range conversions {
		g, err := mapio.ReadGrid(c.Output)
		if err != nil {
			return nil, fmt.Errorf("conversion: %w", err)
		}
		artifacts = append(artifacts, Artifact{
			Stage: StageConversion,
			Name:  strings.TrimSuffix(filepath.Base(c.Output), filepath.Ext(c.Output)),
			Path:  c.Output,
			Scale: c.Scale.String(),
			Grid:  g,
		})
	}
	return artifacts, nil
}

func RunParameterMaps(ctx context.Context) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	written, err := params.Run(params.ConfigFromProperties())
	if err != nil {
		return nil, fmt.Errorf("parameter maps: %w", err)
	}
	artifacts := make([]Artifact, 0, len(written))
	for _, w := range written {
		artifacts = append(artifacts, Artifact{
			Stage: StageParameters,
			Name:  w.Name,
			Path:  w.Path,
			Scale: w.Scale.String(),
			Grid:  w.Grid,
		})
	}
	return artifacts, nil
}

// StageFunc runs one pipeline stage.
type StageFunc func(ctx context.Context) ([]Artifact, error)

// Step is a stage with the messages printed around it.
type Step struct {
	Before string
	After  string
	Run    StageFunc
}

func Pipeline() []Step {
	return []Step{
		{"Getting the LULC...", "Done!", RunLULC},
		{"Getting the Interception...", "", RunInterception},
		{"Converting generated maps to pcraster maps...", "", RunConversion},
		{"Generating the rest of the maps...", "Done!", RunParameterMaps},
	}
}

// RunAll runs the four stages in order and writes the run manifest to the
// output directory.
func RunAll(ctx context.Context) (*Manifest, error) {
	manifest, err := RunSteps(ctx, Pipeline(), properties.OutputFile("manifest.csv"))
	if err != nil {
		return manifest, err
	}

	msg := fmt.Sprintf("Run %s produced %d files.", manifest.RunID, len(manifest.Rows))
	if err := notification.SendDiscordSuccessNotification(msg); err != nil {
		log.WithError(err).Warn("failed to send success notification")
	}
	return manifest, nil
}

// RunSteps runs steps in order, aborting on the first error. The manifest is
// only written when every step succeeded.
func RunSteps(ctx context.Context, steps []Step, manifestPath string) (*Manifest, error) {
	manifest := NewManifest()
	log.WithField("run_id", manifest.RunID).Info("starting pipeline")

	for _, step := range steps {
		fmt.Println(step.Before)
		artifacts, err := step.Run(ctx)
		if err != nil {
			return manifest, err
		}
		manifest.Add(artifacts...)
		if step.After != "" {
			fmt.Println(step.After)
		}
	}

	if err := manifest.Write(manifestPath); err != nil {
		return manifest, err
	}
	log.WithField("path", manifestPath).Info("manifest written")
	return manifest, nil
}
