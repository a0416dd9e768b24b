package main

import (
	"fmt"

	"github.com/forest-guardian/hydroprep/internal/convert"
	"github.com/forest-guardian/hydroprep/internal/delivery"
	"github.com/forest-guardian/hydroprep/internal/mapio"
	"github.com/forest-guardian/hydroprep/internal/ui"
	"github.com/spf13/cobra"
)

func runStage(cmd *cobra.Command, stage delivery.StageFunc) error {
	artifacts, err := stage(cmd.Context())
	if err != nil {
		ui.PrintError(err.Error())
		return err
	}
	for _, a := range artifacts {
		fmt.Printf("%s\t%s\n", a.Name, a.Path)
	}
	return nil
}

func stageCmd(use, short string, stage delivery.StageFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, stage)
		},
	}
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the four stages in order and write the run manifest",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd)
	},
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Interactive menu to run stages and inspect inputs and outputs",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ui.ShowMenu(cmd.Context())
	},
}

// convertCmd converts the default list, or a single raster when given
// input, output and value scale.
var convertCmd = &cobra.Command{
	Use:   "convert [input output scale]",
	Short: "Convert the generated GeoTIFFs to PCRaster maps in raw-maps/",
	Long: `Convert the generated GeoTIFFs to PCRaster maps in raw-maps/.

	With three arguments a single raster is converted instead, e.g.
		hydroprep convert output/ndvi.tif raw-maps/ndvi.map scalar
	The scale is a PCRaster value scale: boolean, nominal, ordinal,
	scalar, direction or ldd (VS_ prefixed names are accepted too).`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 3 {
			return fmt.Errorf("expected no arguments or input, output and scale, got %d", len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return runStage(cmd, delivery.RunConversion)
		}
		vs, err := mapio.ParseValueScale(args[2])
		if err != nil {
			return err
		}
		return convert.Run(cmd.Context(), []convert.Conversion{{Input: args[0], Output: args[1], Scale: vs}}, 1, convert.ConvertToPCRaster)
	},
}

func init() {
	rootCmd.AddCommand(runCmd, menuCmd, convertCmd,
		stageCmd("lulc", "Classify land use and land cover into output/LULC.tif", delivery.RunLULC),
		stageCmd("interception", "Compute NDVI, cover, LAI and canopy storage GeoTIFFs", delivery.RunInterception),
		stageCmd("params", "Derive the parameter maps from the raw base maps", delivery.RunParameterMaps),
	)
}
