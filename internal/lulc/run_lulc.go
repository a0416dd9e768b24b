package lulc

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/forest-guardian/hydroprep/internal/cache"
	"github.com/forest-guardian/hydroprep/internal/forest"
	"github.com/forest-guardian/hydroprep/internal/geometry"
	"github.com/forest-guardian/hydroprep/internal/landcover"
	"github.com/forest-guardian/hydroprep/internal/landsat"
	"github.com/forest-guardian/hydroprep/internal/mapio"
	"github.com/forest-guardian/hydroprep/internal/properties"
	"github.com/forest-guardian/hydroprep/internal/raster"
	"github.com/forest-guardian/hydroprep/output"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	BandsDir       string
	BandPattern    string
	WatershedPath  string
	SamplesPath    string
	ClassField     string
	OutputPath     string
	ReportPath     string
	ValidationPath string
	QuicklookPath  string
	TestFraction   float64
	Forest         forest.Params
	UseCache       bool
}

func ConfigFromProperties() Config {
	p := forest.DefaultParams()
	p.Trees = properties.Trees()
	p.Seed = properties.Seed()
	p.MaxDepth = properties.MaxDepth()
	p.Workers = properties.Workers()

	return Config{
		BandsDir:       properties.LandsatDir(),
		BandPattern:    properties.BandPattern(),
		WatershedPath:  properties.WatershedPath(),
		SamplesPath:    properties.TrainingSamplesPath(),
		ClassField:     properties.ClassField(),
		OutputPath:     properties.OutputFile("LULC.tif"),
		ReportPath:     properties.OutputFile("classification_report.csv"),
		ValidationPath: properties.OutputFile("validation.geojson"),
		QuicklookPath:  properties.OutputFile(filepath.Join("quicklook", "LULC.png")),
		TestFraction:   properties.TestFraction(),
		Forest:         p,
		UseCache:       properties.CacheEnabled(),
	}
}

type Result struct {
	Classification *raster.Grid
	Matrix         *forest.ConfusionMatrix
	Report         forest.Report
}

// Run classifies the watershed into land cover classes and writes the
// classification as an Int16 GeoTIFF with nodata 0.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	clips, err := landsat.LoadBands(cfg.BandsDir, cfg.BandPattern, 1, 7, cfg.WatershedPath)
	if err != nil {
		return nil, err
	}
	bands := make([]*raster.Grid, len(clips))
	for i, c := range clips {
		bands[i] = c.Grid
	}
	ref := clips[0]

	stack, err := BuildStack(bands)
	if err != nil {
		return nil, err
	}

	samples, err := readSamples(cfg.SamplesPath, ref.Grid)
	if err != nil {
		return nil, err
	}
	labels, err := LabelGrid(ref.Grid, samples, cfg.ClassField)
	if err != nil {
		return nil, err
	}

	x, y, cells := Samples(stack, labels)
	if len(x) == 0 {
		return nil, fmt.Errorf("no training pixels fall inside the band window: %w", forest.ErrNoSamples)
	}
	log.WithField("samples", len(x)).Info("training pixels collected")

	trainIdx, testIdx := forest.StratifiedSplit(y, cfg.TestFraction, cfg.Forest.Seed)
	xTrain, yTrain := forest.Subset(x, y, trainIdx)
	xTest, yTest := forest.Subset(x, y, testIdx)

	clf, err := trainOrLoad(xTrain, yTrain, cfg)
	if err != nil {
		return nil, err
	}

	classification, err := Classify(ctx, clf, stack, ref.Inside, cfg.Forest.Workers)
	if err != nil {
		return nil, err
	}
	cleaned := MajorityFilter(classification)
	geometry.ApplyMask(cleaned, ref.Inside, math.NaN())

	result := &Result{Classification: cleaned}
	if len(xTest) > 0 {
		predicted, err := clf.PredictAll(ctx, xTest, cfg.Forest.Workers)
		if err != nil {
			return nil, err
		}
		result.Matrix, err = forest.NewConfusionMatrix(yTest, predicted)
		if err != nil {
			return nil, err
		}
		result.Report = forest.NewReport(result.Matrix, className)

		fmt.Println("========== Confusion Matrix ==========")
		fmt.Println(result.Matrix)
		fmt.Println("========== Classification Report ==========")
		fmt.Println(result.Report)

		if cfg.ReportPath != "" {
			if err := WriteReport(cfg.ReportPath, result.Report); err != nil {
				return nil, err
			}
		}
		if cfg.ValidationPath != "" {
			points := validationPoints(ref.Grid, cells, testIdx, yTest, predicted)
			if _, err := output.CreateValidationGeoJSON(points, cfg.ValidationPath); err != nil {
				return nil, err
			}
		}
	} else {
		log.Warn("no held out pixels, skipping classification report")
	}

	if err := mapio.WriteGeoTIFF(cfg.OutputPath, cleaned, godal.Int16, 0); err != nil {
		return nil, err
	}
	if cfg.QuicklookPath != "" {
		if _, err := output.CreateClassImage(cleaned, cfg.QuicklookPath); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Classify predicts every cell inside the watershed. Cells outside it or
// with non finite features are NaN.
func Classify(ctx context.Context, clf *forest.Forest, stack *Stack, inside []bool, workers int) (*raster.Grid, error) {
	var rows [][]float64
	var cells []int
	for i := range stack.Rows {
		if !inside[i] || !stack.Finite(i) {
			continue
		}
		rows = append(rows, stack.Rows[i])
		cells = append(cells, i)
	}

	predicted, err := clf.PredictAll(ctx, rows, workers)
	if err != nil {
		return nil, err
	}
	out := stack.Ref.Like(math.NaN())
	for k, i := range cells {
		out.Data[i] = float64(predicted[k])
	}
	return out, nil
}

func readSamples(path string, ref *raster.Grid) ([]geometry.Feature, error) {
	var target *godal.SpatialRef
	if ref.Projection != "" {
		sr, err := godal.NewSpatialRefFromWKT(ref.Projection)
		if err != nil {
			return nil, fmt.Errorf("failed to parse band projection: %w", err)
		}
		defer sr.Close()
		target = sr
	}
	return mapio.ReadFeatures(path, target)
}

func trainOrLoad(x [][]float64, y []int, cfg Config) (*forest.Forest, error) {
	if !cfg.UseCache {
		return forest.Train(x, y, cfg.Forest)
	}

	fc := cache.NewForestCache()
	samples := sampleDigest(x, y)
	if clf, ok := fc.Get(samples, cfg.Forest); ok {
		fmt.Println("Using cached random forest")
		return clf, nil
	}

	clf, err := forest.Train(x, y, cfg.Forest)
	if err != nil {
		return nil, err
	}
	if err := fc.Set(samples, cfg.Forest, clf); err != nil {
		log.WithError(err).Warn("failed to cache random forest")
	}
	return clf, nil
}

func sampleDigest(x [][]float64, y []int) string {
	h := sha1.New()
	var buf [8]byte
	for i, row := range x {
		for _, v := range row {
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
		binary.LittleEndian.PutUint64(buf[:], uint64(y[i]))
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

func className(class int) string {
	return landcover.Class(class).String()
}

func validationPoints(ref *raster.Grid, cells, testIdx, truth, predicted []int) []output.ValidationPoint {
	points := make([]output.ValidationPoint, len(testIdx))
	for k, idx := range testIdx {
		cell := cells[idx]
		col, row := cell%ref.Width, cell/ref.Width
		x, y := ref.CellCenter(col, row)
		points[k] = output.ValidationPoint{
			X:         x,
			Y:         y,
			Col:       col,
			Row:       row,
			Truth:     className(truth[k]),
			Predicted: className(predicted[k]),
		}
	}
	return points
}
