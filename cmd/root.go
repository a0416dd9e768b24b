package main

import (
	"github.com/forest-guardian/hydroprep/internal/delivery"
	"github.com/forest-guardian/hydroprep/internal/notification"
	"github.com/forest-guardian/hydroprep/internal/ui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "hydroprep",
	Short: "Prepare the input maps of a distributed hydrological model",
	Long: `Prepare the input maps of a distributed hydrological model from
	Landsat 8 surface reflectance, a watershed boundary and a set of
	raw PCRaster base maps.

	Without a subcommand the full pipeline runs:
		1. land use / land cover classification (random forest)
		2. NDVI, vegetation cover, LAI and canopy storage
		3. conversion of the generated GeoTIFFs to PCRaster maps
		4. derivation of the soil, land use, surface, drainage and channel maps

	Paths are resolved against --root (or ROOT_PATH). Every setting can also
	be given as a HYDROPREP_ prefixed environment variable.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setLogLevels()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd)
	},
}

func runPipeline(cmd *cobra.Command) error {
	manifest, err := delivery.RunAll(cmd.Context())
	if err != nil {
		ui.PrintError(err.Error())
		if nerr := notification.SendDiscordErrorNotification(err.Error()); nerr != nil {
			logrus.WithError(nerr).Warn("failed to send error notification")
		}
		return err
	}
	ui.PrintSuccess("Manifest of run " + manifest.RunID + " written.")
	return nil
}

func setLogLevels() {
	if viper.GetBool("debug") {
		logrus.SetLevel(logrus.DebugLevel)
	} else if viper.GetBool("verbose") {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		logrus.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Log progress information")
	flags.Bool("debug", false, "Log debug information")
	flags.String("root", ".", "Directory every relative path is resolved against")
	flags.IntP("workers", "n", 0, "Number of workers for training, prediction and conversion. 0 uses every CPU")
	flags.Int("trees", 500, "Number of trees of the random forest")
	flags.Int64("seed", 42, "Random seed of the sample split and the forest")
	flags.Bool("cache", true, "Reuse a trained forest for identical training samples")

	bindFlag("verbose", "verbose")
	bindFlag("debug", "debug")
	bindFlag("root_path", "root")
	bindFlag("workers", "workers")
	bindFlag("forest.trees", "trees")
	bindFlag("forest.seed", "seed")
	bindFlag("cache", "cache")
}
