package nodes

import (
	"fmt"
	"math"
	"time"

	"tfscope/internal/graph"
	"tfscope/pkg/logging"
	"tfscope/pkg/textio"
)

// Slicer parameter and port names
const (
	ParamSliceDuration = "slice_duration"
	ParamOverlapRatio  = "overlap_ratio"
	ParamCurrentSlice  = "current_slice"

	PortNumSlices       = "num_slices"
	PortSliceStartTimes = "slice_start_times"
	PortCurrentSlice    = "current_slice"
	PortSliceIndex      = "slice_index"
	PortSliceTimeRange  = "slice_time_range"
	PortSlicePoints     = "slice_points"
	PortStepPoints      = "step_points"
)

// Slicer cuts the signal into overlapping fixed-duration windows and exposes
// one window at a time, selected by the 1-based current_slice parameter.
type Slicer struct {
	graph.BaseNode
	logger logging.Logger
}

// NewSlicer creates a slicer node with defaulted parameters
func NewSlicer(name string) *Slicer {
	n := &Slicer{
		BaseNode: graph.NewBaseNode(name,
			map[string]graph.Kind{
				ParamSliceDuration: graph.KindScalar,
				ParamOverlapRatio:  graph.KindScalar,
				ParamCurrentSlice:  graph.KindScalar,
			},
			map[string]graph.Kind{
				PortTime:  graph.KindTime,
				PortValue: graph.KindReal,
				PortFs:    graph.KindScalar,
			},
			map[string]graph.Kind{
				PortTime:            graph.KindTime,
				PortValue:           graph.KindReal,
				PortFs:              graph.KindScalar,
				PortNumSlices:       graph.KindScalar,
				PortSliceStartTimes: graph.KindTime,
				PortCurrentSlice:    graph.KindScalar,
				PortSliceIndex:      graph.KindReal,
				PortSliceTimeRange:  graph.KindText,
				PortSlicePoints:     graph.KindScalar,
				PortStepPoints:      graph.KindScalar,
			},
		),
		logger: logging.WithFields(logging.Fields{
			"component": "slicer_node",
			"node":      name,
		}),
	}
	n.Bind(n)
	_ = n.SetParameter(ParamSliceDuration, graph.ScalarValue(86400))
	_ = n.SetParameter(ParamOverlapRatio, graph.ScalarValue(0.5))
	_ = n.SetParameter(ParamCurrentSlice, graph.ScalarValue(1))
	return n
}

// Execute computes the window layout and emits the selected window
func (n *Slicer) Execute() error {
	timeVal, err := n.RequireInput(PortTime)
	if err != nil {
		return err
	}
	valueVal, err := n.RequireInput(PortValue)
	if err != nil {
		return err
	}
	fsVal, err := n.RequireInput(PortFs)
	if err != nil {
		return err
	}
	times, _ := timeVal.Times()
	values, _ := valueVal.Reals()
	fs, _ := fsVal.Scalar()

	if len(times) != len(values) {
		return n.ValidationError("time and value lengths differ: %d vs %d", len(times), len(values))
	}
	if len(values) == 0 {
		return n.ValidationError("input signal is empty")
	}

	duration := 86400.0
	if v, ok := n.Parameter(ParamSliceDuration); ok {
		duration, _ = v.Scalar()
	}
	overlap := 0.5
	if v, ok := n.Parameter(ParamOverlapRatio); ok {
		overlap, _ = v.Scalar()
	}
	current := 1
	if v, ok := n.Parameter(ParamCurrentSlice); ok {
		s, _ := v.Scalar()
		current = int(math.Round(s))
	}

	if duration <= 0 {
		return n.ValidationError("slice duration must be positive, got %g", duration)
	}
	if overlap < 0 || overlap >= 1 {
		return n.ValidationError("overlap ratio must be in [0, 1), got %g", overlap)
	}

	nSamples := len(values)
	slicePoints := int(math.Round(duration * fs))
	if slicePoints < 1 {
		return n.ValidationError("slice duration %g s covers less than one sample at fs=%g Hz", duration, fs)
	}
	stepPoints := int(math.Round(float64(slicePoints) * (1 - overlap)))
	if stepPoints < 1 {
		return n.ValidationError("overlap ratio %g leaves a zero step", overlap)
	}

	numSlices := (nSamples-slicePoints)/stepPoints + 1
	if numSlices < 1 {
		numSlices = 1
	}

	if current < 1 {
		current = 1
	}
	if current > numSlices {
		current = numSlices
	}

	start := (current - 1) * stepPoints
	end := start + slicePoints
	if end > nSamples {
		end = nSamples
	}

	startTimes := sliceStartDays(times, numSlices, stepPoints)

	timeRange := fmt.Sprintf("%s - %s",
		times[start].Format(textio.TimestampLayout),
		times[end-1].Format(textio.TimestampLayout))

	n.logger.Debug("signal sliced", logging.Fields{
		"num_slices":    numSlices,
		"current_slice": current,
		"slice_points":  slicePoints,
		"step_points":   stepPoints,
	})

	outputs := []struct {
		port string
		v    graph.Value
	}{
		{PortTime, graph.TimeValue(append([]time.Time(nil), times[start:end]...))},
		{PortValue, graph.RealValue(append([]float64(nil), values[start:end]...))},
		{PortFs, graph.ScalarValue(fs)},
		{PortNumSlices, graph.ScalarValue(float64(numSlices))},
		{PortSliceStartTimes, graph.TimeValue(startTimes)},
		{PortCurrentSlice, graph.ScalarValue(float64(current))},
		{PortSliceIndex, graph.RealValue([]float64{float64(start + 1), float64(end)})},
		{PortSliceTimeRange, graph.TextValue(timeRange)},
		{PortSlicePoints, graph.ScalarValue(float64(slicePoints))},
		{PortStepPoints, graph.ScalarValue(float64(stepPoints))},
	}
	for _, o := range outputs {
		if err := n.SetOutput(o.port, o.v); err != nil {
			return err
		}
	}
	n.MarkClean()
	return nil
}

// sliceStartDays collects the start timestamp of every window truncated to
// day granularity, deduplicated while preserving order
func sliceStartDays(times []time.Time, numSlices, stepPoints int) []time.Time {
	seen := make(map[string]bool)
	var out []time.Time
	for i := 0; i < numSlices; i++ {
		idx := i * stepPoints
		if idx >= len(times) {
			break
		}
		t := times[idx]
		day := t.Format(textio.DateLayout)
		if seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()))
	}
	return out
}
