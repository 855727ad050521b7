package configs

import "github.com/spf13/viper"

// SetDefaults registers the default configuration values
func SetDefaults(v *viper.Viper) {
	// Application defaults
	v.SetDefault("verbose", false)
	v.SetDefault("log_level", "info")
	v.SetDefault("output_format", "table")

	// Analysis defaults
	v.SetDefault("analysis.slice_duration", 86400.0)
	v.SetDefault("analysis.overlap_ratio", 0.5)
	v.SetDefault("analysis.freq_min", 0.0)
	v.SetDefault("analysis.freq_max", 0.001)
	v.SetDefault("analysis.fft_size_factor", 8)

	// Filter defaults
	v.SetDefault("analysis.filter.enable", false)
	v.SetDefault("analysis.filter.type", 1)
	v.SetDefault("analysis.filter.window", 5)
	v.SetDefault("analysis.filter.cutoff", 0.01)
	v.SetDefault("analysis.filter.order", 4)

	// Waterfall defaults
	v.SetDefault("analysis.waterfall.history_size", 20)

	// Output defaults
	v.SetDefault("output.precision", 6)
	v.SetDefault("output.timestamps", true)
}
