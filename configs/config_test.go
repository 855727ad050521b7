package configs

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "table", cfg.OutputFormat)
	assert.Equal(t, 86400.0, cfg.Analysis.SliceDuration)
	assert.Equal(t, 0.5, cfg.Analysis.OverlapRatio)
	assert.Equal(t, 0.001, cfg.Analysis.FreqMax)
	assert.Equal(t, 8, cfg.Analysis.FFTSizeFactor)
	assert.False(t, cfg.Analysis.Filter.Enable)
	assert.Equal(t, 20, cfg.Analysis.Waterfall.HistorySize)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  any
	}{
		{"zero slice duration", "analysis.slice_duration", 0.0},
		{"overlap at 1", "analysis.overlap_ratio", 1.0},
		{"negative overlap", "analysis.overlap_ratio", -0.1},
		{"inverted band", "analysis.freq_min", 0.01},
		{"zero fft factor", "analysis.fft_size_factor", 0},
		{"tiny history", "analysis.waterfall.history_size", 1},
		{"zero filter order", "analysis.filter.order", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.val)

			_, err := Load(v)
			assert.Error(t, err)
		})
	}
}
