package convert

import (
	"context"
	"fmt"

	"github.com/forest-guardian/hydroprep/internal/mapio"
	"github.com/forest-guardian/hydroprep/internal/properties"
	"golang.org/x/sync/errgroup"
)

// Conversion turns one GeoTIFF into a PCRaster map.
type Conversion struct {
	Input  string           `csv:"input"`
	Output string           `csv:"output"`
	Scale  mapio.ValueScale `csv:"-"`
}

// DefaultConversions feeds the stage 1 and 2 products to the parameter map
// stage.
func DefaultConversions() []Conversion {
	return []Conversion{
		{Input: properties.OutputFile("c_factor.tif"), Output: properties.RawMap("cover.map"), Scale: mapio.Scalar},
		{Input: properties.OutputFile("lai.tif"), Output: properties.RawMap("lai.map"), Scale: mapio.Scalar},
		{Input: properties.OutputFile("LULC.tif"), Output: properties.RawMap("landcover.map"), Scale: mapio.Nominal},
		{Input: properties.OutputFile("smax.tif"), Output: properties.RawMap("smax.map"), Scale: mapio.Scalar},
	}
}

// Translator performs a single conversion.
type Translator func(input, output string, vs mapio.ValueScale) error

// ConvertToPCRaster converts input to a PCRaster map with the given value
// scale.
func ConvertToPCRaster(input, output string, vs mapio.ValueScale) error {
	if err := mapio.Translate(input, output, vs); err != nil {
		return err
	}
	fmt.Printf("Saved %s as PCRaster map.\n", output)
	return nil
}

// Run performs the conversions with at most workers in flight and returns the
// first error.
func Run(ctx context.Context, conversions []Conversion, workers int, translate Translator) error {
	if translate == nil {
		translate = ConvertToPCRaster
	}
	if workers <= 0 {
		workers = 1
	}

	// Two conversions writing the same map would race.
	seen := make(map[string]bool)
	for _, c := range conversions {
		if seen[c.Output] {
			return fmt.Errorf("%s is the output of more than one conversion", c.Output)
		}
		seen[c.Output] = true
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, c := range conversions {
		c := c
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := translate(c.Input, c.Output, c.Scale); err != nil {
				return fmt.Errorf("error converting %s: %w", c.Input, err)
			}
			return nil
		})
	}
	return g.Wait()
}
