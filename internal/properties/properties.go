package properties

import (
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const EnvPrefix = "HYDROPREP"

func init() {
	SetDefaults(viper.GetViper())
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	// ROOT_PATH is shared with the other tools of the team.
	_ = viper.BindEnv("root_path", EnvPrefix+"_ROOT_PATH", "ROOT_PATH")
	_ = viper.BindEnv("discord.error_url", EnvPrefix+"_DISCORD_ERROR_URL", "DISCORD_ERROR_NOTIFICATION_URL")
	_ = viper.BindEnv("discord.success_url", EnvPrefix+"_DISCORD_SUCCESS_URL", "DISCORD_SUCCESS_NOTIFICATION_URL")
}

// SetDefaults registers the default configuration on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("root_path", ".")
	v.SetDefault("raw_maps_dir", "raw-maps")
	v.SetDefault("output_dir", "output")
	v.SetDefault("cache_dir", "data/cache")
	v.SetDefault("cache", true)

	v.SetDefault("landsat.dir", "raw-maps/Landsat_Bands")
	v.SetDefault("landsat.band_pattern", "LC08_L2SP_116050_20201224_20210310_02_T1_SR_B%d.TIF")
	v.SetDefault("watershed", "raw-maps/Marikina Data Extracted/Marikina_Watershed_projected.shp")
	v.SetDefault("training.samples", "raw-maps/Marikina Training Samples (20201224) - Sted/training_samples_20251109_combined_dissolved.shp")
	v.SetDefault("training.class_field", "Class")

	v.SetDefault("forest.trees", 500)
	v.SetDefault("forest.seed", 42)
	v.SetDefault("forest.test_fraction", 0.3)
	v.SetDefault("forest.max_depth", 0)
	v.SetDefault("workers", 0)

	v.SetDefault("channel.accuflux_threshold", 100000.0)
	v.SetDefault("channel.streamorder_threshold", 6)
	v.SetDefault("channel.cohesion", 8.0)
	v.SetDefault("channel.mannings", 0.04)
	v.SetDefault("channel.side_slope", 0.0)
	v.SetDefault("channel.ksat", 1.0)
	v.SetDefault("channel.gradient", 0.002)
	v.SetDefault("channel.width", 6.0)
	v.SetDefault("min_gradient", 0.01)

	v.SetDefault("discord.error_url", "")
	v.SetDefault("discord.success_url", "")
}

func RootPath() string {
	return viper.GetString("root_path")
}

// Path resolves p against the root path unless it is absolute.
func Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(RootPath(), p)
}

func RawMapsDir() string {
	return Path(viper.GetString("raw_maps_dir"))
}

func OutputDir() string {
	return Path(viper.GetString("output_dir"))
}

func RawMap(name string) string {
	return filepath.Join(RawMapsDir(), name)
}

func OutputFile(name string) string {
	return filepath.Join(OutputDir(), name)
}

func CacheDir() string {
	return Path(viper.GetString("cache_dir"))
}

func CacheEnabled() bool {
	return viper.GetBool("cache")
}

func LandsatDir() string {
	return Path(viper.GetString("landsat.dir"))
}

func BandPattern() string {
	return viper.GetString("landsat.band_pattern")
}

func WatershedPath() string {
	return Path(viper.GetString("watershed"))
}

func TrainingSamplesPath() string {
	return Path(viper.GetString("training.samples"))
}

func ClassField() string {
	return viper.GetString("training.class_field")
}

func Trees() int {
	return viper.GetInt("forest.trees")
}

func Seed() int64 {
	return viper.GetInt64("forest.seed")
}

func TestFraction() float64 {
	return viper.GetFloat64("forest.test_fraction")
}

func MaxDepth() int {
	return viper.GetInt("forest.max_depth")
}

// Workers is the parallelism of training and prediction; 0 uses every CPU.
func Workers() int {
	return viper.GetInt("workers")
}

type Channel struct {
	AccufluxThreshold    float64
	StreamOrderThreshold float64
	Cohesion             float64
	Mannings             float64
	SideSlope            float64
	Ksat                 float64
	Gradient             float64
	Width                float64
}

func ChannelParams() Channel {
	return Channel{
		AccufluxThreshold:    viper.GetFloat64("channel.accuflux_threshold"),
		StreamOrderThreshold: viper.GetFloat64("channel.streamorder_threshold"),
		Cohesion:             viper.GetFloat64("channel.cohesion"),
		Mannings:             viper.GetFloat64("channel.mannings"),
		SideSlope:            viper.GetFloat64("channel.side_slope"),
		Ksat:                 viper.GetFloat64("channel.ksat"),
		Gradient:             viper.GetFloat64("channel.gradient"),
		Width:                viper.GetFloat64("channel.width"),
	}
}

func MinGradient() float64 {
	return viper.GetFloat64("min_gradient")
}

type Color struct {
	R, G, B uint8
}

// ColorMap is the quicklook palette of the land cover classes, keyed by class
// code.
var ColorMap = map[int]Color{
	1: {255, 211, 0},
	2: {166, 124, 82},
	3: {228, 26, 28},
	4: {34, 139, 34},
	5: {152, 223, 138},
	6: {31, 120, 180},
}

func DiscordErrorNotificationUrl() string {
	return viper.GetString("discord.error_url")
}

func DiscordSuccessNotificationUrl() string {
	return viper.GetString("discord.success_url")
}
