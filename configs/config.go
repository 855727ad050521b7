// Package configs defines the application configuration loaded through viper
package configs

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Application settings
	Verbose      bool   `mapstructure:"verbose"`
	LogLevel     string `mapstructure:"log_level"`
	OutputFormat string `mapstructure:"output_format"`

	// Analysis configuration
	Analysis AnalysisConfig `mapstructure:"analysis"`

	// Output configuration
	Output OutputConfig `mapstructure:"output"`
}

// AnalysisConfig contains the default analysis parameters
type AnalysisConfig struct {
	SliceDuration float64         `mapstructure:"slice_duration"`
	OverlapRatio  float64         `mapstructure:"overlap_ratio"`
	FreqMin       float64         `mapstructure:"freq_min"`
	FreqMax       float64         `mapstructure:"freq_max"`
	FFTSizeFactor int             `mapstructure:"fft_size_factor"`
	Filter        FilterConfig    `mapstructure:"filter"`
	Waterfall     WaterfallConfig `mapstructure:"waterfall"`
}

// FilterConfig contains the filter stage settings
type FilterConfig struct {
	Enable bool    `mapstructure:"enable"`
	Type   int     `mapstructure:"type"`
	Window int     `mapstructure:"window"`
	Cutoff float64 `mapstructure:"cutoff"`
	Order  int     `mapstructure:"order"`
}

// WaterfallConfig contains the waterfall history settings
type WaterfallConfig struct {
	HistorySize int `mapstructure:"history_size"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Precision  int  `mapstructure:"precision"`
	Timestamps bool `mapstructure:"timestamps"`
}

// Load unmarshals the current viper state into a Config
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	a := c.Analysis
	if a.SliceDuration <= 0 {
		return fmt.Errorf("analysis.slice_duration must be positive, got %g", a.SliceDuration)
	}
	if a.OverlapRatio < 0 || a.OverlapRatio >= 1 {
		return fmt.Errorf("analysis.overlap_ratio must be in [0, 1), got %g", a.OverlapRatio)
	}
	if a.FreqMin < 0 || a.FreqMin >= a.FreqMax {
		return fmt.Errorf("analysis frequency band (%g, %g) is invalid", a.FreqMin, a.FreqMax)
	}
	if a.FFTSizeFactor < 1 {
		return fmt.Errorf("analysis.fft_size_factor must be >= 1, got %d", a.FFTSizeFactor)
	}
	if a.Waterfall.HistorySize < 2 {
		return fmt.Errorf("analysis.waterfall.history_size must be >= 2, got %d", a.Waterfall.HistorySize)
	}
	if a.Filter.Order < 1 {
		return fmt.Errorf("analysis.filter.order must be >= 1, got %d", a.Filter.Order)
	}
	return nil
}
