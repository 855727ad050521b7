// Package workflow wires the processing nodes into the time-frequency
// analysis pipeline and exposes the high-level verbs the presentation layer
// drives.
package workflow

import (
	"time"

	"tfscope/internal/graph"
	"tfscope/internal/nodes"
	"tfscope/pkg/logging"
	"tfscope/pkg/textio"
)

// Node names inside the workflow graph
const (
	NodeLoader    = "loader"
	NodeFilter    = "filter"
	NodeSlicer    = "slicer"
	NodeSpectrum  = "spectrum"
	NodeWaterfall = "waterfall"
)

// SliceData bundles the slicer outputs for the time-domain plot
type SliceData struct {
	Time            []time.Time
	Value           []float64
	Fs              float64
	NumSlices       int
	SliceStartTimes []string
	CurrentSlice    int
	SliceIndex      [2]int
	TimeRange       string
	SlicePoints     int
	StepPoints      int
}

// SpectrumData bundles the zoom-FFT outputs for the spectrum plot
type SpectrumData struct {
	FPlot     []float64
	P1Plot    []float64
	FreqRange [2]float64
}

// WaterfallData bundles the rolling history for the heatmap
type WaterfallData struct {
	History    [][]float64
	LogHistory [][]float64
	Times      []time.Time
	Size       int
}

// TimeFrequency is the façade over the dataflow graph. Construction wires
// loader -> filter -> slicer -> spectrum -> waterfall; every parameter verb
// ends with a graph execute so outputs are consistent with the parameters.
// Reset does not execute; the pipeline re-runs on the next output read.
type TimeFrequency struct {
	graph     *graph.Graph
	loader    *nodes.Loader
	filter    *nodes.Filter
	slicer    *nodes.Slicer
	spectrum  *nodes.Spectrum
	waterfall *nodes.Waterfall
	logger    logging.Logger
}

// New builds the workflow graph
func New() (*TimeFrequency, error) {
	tf := &TimeFrequency{
		graph:     graph.New(),
		loader:    nodes.NewLoader(NodeLoader),
		filter:    nodes.NewFilter(NodeFilter),
		slicer:    nodes.NewSlicer(NodeSlicer),
		spectrum:  nodes.NewSpectrum(NodeSpectrum),
		waterfall: nodes.NewWaterfall(NodeWaterfall),
		logger: logging.WithFields(logging.Fields{
			"component": "time_frequency_workflow",
		}),
	}

	for _, n := range []graph.Node{tf.loader, tf.filter, tf.slicer, tf.spectrum, tf.waterfall} {
		if err := tf.graph.AddNode(n); err != nil {
			return nil, err
		}
	}

	connections := [][4]string{
		{NodeLoader, nodes.PortTime, NodeFilter, nodes.PortTime},
		{NodeLoader, nodes.PortValue, NodeFilter, nodes.PortValue},
		{NodeLoader, nodes.PortFs, NodeFilter, nodes.PortFs},
		{NodeFilter, nodes.PortTime, NodeSlicer, nodes.PortTime},
		{NodeFilter, nodes.PortValue, NodeSlicer, nodes.PortValue},
		{NodeFilter, nodes.PortFs, NodeSlicer, nodes.PortFs},
		{NodeSlicer, nodes.PortValue, NodeSpectrum, nodes.PortValue},
		{NodeSlicer, nodes.PortFs, NodeSpectrum, nodes.PortFs},
		{NodeSpectrum, nodes.PortP1Plot, NodeWaterfall, nodes.PortSpectrum},
		{NodeSlicer, nodes.PortTime, NodeWaterfall, nodes.PortTimePoint},
	}
	for _, c := range connections {
		if err := tf.graph.Connect(c[0], c[1], c[2], c[3]); err != nil {
			return nil, err
		}
	}
	return tf, nil
}

// Graph exposes the underlying graph, mainly for tests
func (tf *TimeFrequency) Graph() *graph.Graph {
	return tf.graph
}

// LoadData points the loader at a new file. The waterfall history is cleared
// because a new signal invalidates the accumulated spectra (their width may
// change with the window length).
func (tf *TimeFrequency) LoadData(path string) error {
	tf.logger.Info("loading data", logging.Fields{"path": path})
	if err := tf.graph.SetNodeParameter(NodeLoader, nodes.ParamFilename, graph.TextValue(path)); err != nil {
		return err
	}
	tf.waterfall.ClearHistory()
	return tf.graph.Execute()
}

// SetSliceParameters updates window duration and overlap and clears the
// waterfall history, whose rows would otherwise mix window layouts
func (tf *TimeFrequency) SetSliceParameters(duration, overlap float64) error {
	if err := tf.graph.SetNodeParameter(NodeSlicer, nodes.ParamSliceDuration, graph.ScalarValue(duration)); err != nil {
		return err
	}
	if err := tf.graph.SetNodeParameter(NodeSlicer, nodes.ParamOverlapRatio, graph.ScalarValue(overlap)); err != nil {
		return err
	}
	tf.waterfall.ClearHistory()
	return tf.graph.Execute()
}

// SetFilterParameters configures the filter stage. The numeric param is the
// downsample window for FilterMeanDownsample and the cutoff frequency in Hz
// for FilterLowPass.
func (tf *TimeFrequency) SetFilterParameters(enable bool, filterType int, param float64) error {
	if err := tf.graph.SetNodeParameter(NodeFilter, nodes.ParamEnable, graph.BoolValue(enable)); err != nil {
		return err
	}
	if err := tf.graph.SetNodeParameter(NodeFilter, nodes.ParamFilterType, graph.ScalarValue(float64(filterType))); err != nil {
		return err
	}
	switch filterType {
	case nodes.FilterMeanDownsample:
		if err := tf.graph.SetNodeParameter(NodeFilter, nodes.ParamWindow, graph.ScalarValue(param)); err != nil {
			return err
		}
	case nodes.FilterLowPass:
		if err := tf.graph.SetNodeParameter(NodeFilter, nodes.ParamCutoffFreq, graph.ScalarValue(param)); err != nil {
			return err
		}
	}
	return tf.graph.Execute()
}

// SetFrequencyRange updates the analysis band and clears the waterfall
// history since its rows are no longer comparable
func (tf *TimeFrequency) SetFrequencyRange(fmin, fmax float64) error {
	if err := tf.graph.SetNodeParameter(NodeSpectrum, nodes.ParamFreqRange, graph.RealValue([]float64{fmin, fmax})); err != nil {
		return err
	}
	tf.waterfall.ClearHistory()
	return tf.graph.Execute()
}

// SetWaterfallHistorySize changes the waterfall capacity
func (tf *TimeFrequency) SetWaterfallHistorySize(k int) error {
	if err := tf.waterfall.SetHistorySize(k); err != nil {
		return err
	}
	return tf.graph.Execute()
}

// SetCurrentSlice selects the 1-based window to analyze. Playback is just
// repeated calls with increasing indices.
func (tf *TimeFrequency) SetCurrentSlice(i int) error {
	if err := tf.graph.SetNodeParameter(NodeSlicer, nodes.ParamCurrentSlice, graph.ScalarValue(float64(i))); err != nil {
		return err
	}
	return tf.graph.Execute()
}

// Reset drops all node outputs and the waterfall history and marks the graph
// dirty. It does not execute the graph; the next output read re-runs the
// pipeline from the retained parameters.
func (tf *TimeFrequency) Reset() {
	tf.loader.Reset()
	tf.filter.Reset()
	tf.slicer.Reset()
	tf.spectrum.Reset()
	tf.waterfall.ClearHistory()
	tf.graph.Invalidate()
}

// SamplingRate returns the sampling rate derived by the loader
func (tf *TimeFrequency) SamplingRate() (float64, error) {
	v, err := tf.graph.NodeOutput(NodeLoader, nodes.PortFs)
	if err != nil {
		return 0, err
	}
	fs, _ := v.Scalar()
	return fs, nil
}

// SliceData returns the current window and the slicing layout
func (tf *TimeFrequency) SliceData() (*SliceData, error) {
	out := &SliceData{}
	ports := map[string]func(graph.Value){
		nodes.PortTime: func(v graph.Value) { out.Time, _ = v.Times() },
		nodes.PortValue: func(v graph.Value) {
			out.Value, _ = v.Reals()
		},
		nodes.PortFs: func(v graph.Value) {
			fs, _ := v.Scalar()
			out.Fs = fs
		},
		nodes.PortNumSlices: func(v graph.Value) {
			s, _ := v.Scalar()
			out.NumSlices = int(s)
		},
		nodes.PortSliceStartTimes: func(v graph.Value) {
			ts, _ := v.Times()
			out.SliceStartTimes = formatDays(ts)
		},
		nodes.PortCurrentSlice: func(v graph.Value) {
			s, _ := v.Scalar()
			out.CurrentSlice = int(s)
		},
		nodes.PortSliceIndex: func(v graph.Value) {
			idx, _ := v.Reals()
			if len(idx) == 2 {
				out.SliceIndex = [2]int{int(idx[0]), int(idx[1])}
			}
		},
		nodes.PortSliceTimeRange: func(v graph.Value) {
			out.TimeRange, _ = v.Text()
		},
		nodes.PortSlicePoints: func(v graph.Value) {
			s, _ := v.Scalar()
			out.SlicePoints = int(s)
		},
		nodes.PortStepPoints: func(v graph.Value) {
			s, _ := v.Scalar()
			out.StepPoints = int(s)
		},
	}
	for port, assign := range ports {
		v, err := tf.graph.NodeOutput(NodeSlicer, port)
		if err != nil {
			return nil, err
		}
		assign(v)
	}
	return out, nil
}

// SpectrumData returns the zoom-FFT result for the current window
func (tf *TimeFrequency) SpectrumData() (*SpectrumData, error) {
	fPlot, err := tf.graph.NodeOutput(NodeSpectrum, nodes.PortFPlot)
	if err != nil {
		return nil, err
	}
	p1, err := tf.graph.NodeOutput(NodeSpectrum, nodes.PortP1Plot)
	if err != nil {
		return nil, err
	}
	band, err := tf.graph.NodeOutput(NodeSpectrum, nodes.PortFreqRange)
	if err != nil {
		return nil, err
	}

	out := &SpectrumData{}
	out.FPlot, _ = fPlot.Reals()
	out.P1Plot, _ = p1.Reals()
	if b, _ := band.Reals(); len(b) == 2 {
		out.FreqRange = [2]float64{b[0], b[1]}
	}
	return out, nil
}

// WaterfallData returns the rolling spectrogram history
func (tf *TimeFrequency) WaterfallData() (*WaterfallData, error) {
	hist, err := tf.graph.NodeOutput(NodeWaterfall, nodes.PortHistory)
	if err != nil {
		return nil, err
	}
	logHist, err := tf.graph.NodeOutput(NodeWaterfall, nodes.PortLogHistory)
	if err != nil {
		return nil, err
	}
	size, err := tf.graph.NodeOutput(NodeWaterfall, nodes.PortSize)
	if err != nil {
		return nil, err
	}

	out := &WaterfallData{}
	if h, ok := hist.History(); ok {
		out.History = h.Rows
		out.Times = h.Times
	}
	if lh, ok := logHist.History(); ok {
		out.LogHistory = lh.Rows
	}
	if s, ok := size.Scalar(); ok {
		out.Size = int(s)
	}
	return out, nil
}

func formatDays(ts []time.Time) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Format(textio.DateLayout)
	}
	return out
}
