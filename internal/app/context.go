// Package app wires configuration and logging into a runnable analyzer
package app

import (
	"fmt"

	"tfscope/configs"
	"tfscope/internal/nodes"
	"tfscope/internal/workflow"
	"tfscope/pkg/logging"
)

// Context holds the application context shared by CLI commands
type Context struct {
	ConfigFile   string
	OutputFormat string
	Verbose      bool

	Logger logging.Logger
	Config *configs.Config
}

// Analyzer runs the time-frequency workflow for the CLI
type Analyzer struct {
	ctx    *Context
	flow   *workflow.TimeFrequency
	logger logging.Logger
}

// Result is the summary of a single analysis pass
type Result struct {
	File         string    `json:"file" yaml:"file"`
	SamplingRate float64   `json:"sampling_rate" yaml:"sampling_rate"`
	NumSlices    int       `json:"num_slices" yaml:"num_slices"`
	CurrentSlice int       `json:"current_slice" yaml:"current_slice"`
	SlicePoints  int       `json:"slice_points" yaml:"slice_points"`
	TimeRange    string    `json:"time_range" yaml:"time_range"`
	PeakFreq     float64   `json:"peak_freq" yaml:"peak_freq"`
	PeakMag      float64   `json:"peak_mag" yaml:"peak_mag"`
	FreqRange    []float64 `json:"freq_range" yaml:"freq_range"`
	HistoryRows  int       `json:"history_rows" yaml:"history_rows"`
}

// NewAnalyzer creates an analyzer from the application context
func NewAnalyzer(ctx *Context) (*Analyzer, error) {
	if ctx.Logger == nil {
		level := ctx.Config.LogLevel
		if ctx.Verbose {
			level = "debug"
		}
		ctx.Logger = logging.NewLogger(level)
		logging.SetDefaultLogger(ctx.Logger)
	}

	flow, err := workflow.New()
	if err != nil {
		return nil, fmt.Errorf("failed to build workflow: %w", err)
	}

	return &Analyzer{
		ctx:  ctx,
		flow: flow,
		logger: ctx.Logger.WithFields(logging.Fields{
			"component": "analyzer",
		}),
	}, nil
}

// Run performs a single analysis pass over the given file using the
// configured parameters and returns a summary. slice selects the 1-based
// window to analyze.
func (a *Analyzer) Run(path string, slice int) (*Result, error) {
	cfg := a.ctx.Config.Analysis

	flow := a.flow
	if err := flow.LoadData(path); err != nil {
		return nil, err
	}
	if err := flow.SetSliceParameters(cfg.SliceDuration, cfg.OverlapRatio); err != nil {
		return nil, err
	}
	if cfg.Filter.Enable {
		param := float64(cfg.Filter.Window)
		if cfg.Filter.Type == nodes.FilterLowPass {
			param = cfg.Filter.Cutoff
		}
		if err := flow.SetFilterParameters(true, cfg.Filter.Type, param); err != nil {
			return nil, err
		}
	}
	if err := flow.SetFrequencyRange(cfg.FreqMin, cfg.FreqMax); err != nil {
		return nil, err
	}
	if err := flow.SetWaterfallHistorySize(cfg.Waterfall.HistorySize); err != nil {
		return nil, err
	}
	if slice >= 1 {
		if err := flow.SetCurrentSlice(slice); err != nil {
			return nil, err
		}
	}

	fs, err := flow.SamplingRate()
	if err != nil {
		return nil, err
	}
	sliceData, err := flow.SliceData()
	if err != nil {
		return nil, err
	}
	specData, err := flow.SpectrumData()
	if err != nil {
		return nil, err
	}
	wfData, err := flow.WaterfallData()
	if err != nil {
		return nil, err
	}

	peakFreq, peakMag := 0.0, 0.0
	for i, m := range specData.P1Plot {
		if m > peakMag {
			peakMag = m
			peakFreq = specData.FPlot[i]
		}
	}

	a.logger.Info("analysis complete", logging.Fields{
		"file":       path,
		"fs":         fs,
		"num_slices": sliceData.NumSlices,
	})

	return &Result{
		File:         path,
		SamplingRate: fs,
		NumSlices:    sliceData.NumSlices,
		CurrentSlice: sliceData.CurrentSlice,
		SlicePoints:  sliceData.SlicePoints,
		TimeRange:    sliceData.TimeRange,
		PeakFreq:     peakFreq,
		PeakMag:      peakMag,
		FreqRange:    []float64{specData.FreqRange[0], specData.FreqRange[1]},
		HistoryRows:  wfData.Size,
	}, nil
}

// Workflow exposes the underlying workflow for interactive callers
func (a *Analyzer) Workflow() *workflow.TimeFrequency {
	return a.flow
}
