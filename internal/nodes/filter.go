package nodes

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat"

	"tfscope/internal/graph"
	"tfscope/pkg/dsp"
	"tfscope/pkg/logging"
)

// Filter types
const (
	FilterMeanDownsample = 1
	FilterLowPass        = 2
)

// Filter parameter and port names
const (
	ParamEnable      = "enable"
	ParamFilterType  = "filter_type"
	ParamWindow      = "window"
	ParamCutoffFreq  = "cutoff_freq"
	ParamFilterOrder = "filter_order"

	PortIsFiltered = "is_filtered"
	PortFilterType = "filter_type"
	PortFilterInfo = "filter_info"
)

// Filter smooths the signal before slicing. Disabled it passes the signal
// through untouched; enabled it either mean-downsamples and resamples back
// to the original grid, or applies a zero-phase Butterworth low-pass.
type Filter struct {
	graph.BaseNode
	logger logging.Logger
}

// NewFilter creates a filter node with defaulted parameters
func NewFilter(name string) *Filter {
	n := &Filter{
		BaseNode: graph.NewBaseNode(name,
			map[string]graph.Kind{
				ParamEnable:      graph.KindBool,
				ParamFilterType:  graph.KindScalar,
				ParamWindow:      graph.KindScalar,
				ParamCutoffFreq:  graph.KindScalar,
				ParamFilterOrder: graph.KindScalar,
			},
			map[string]graph.Kind{
				PortTime:  graph.KindTime,
				PortValue: graph.KindReal,
				PortFs:    graph.KindScalar,
			},
			map[string]graph.Kind{
				PortTime:       graph.KindTime,
				PortValue:      graph.KindReal,
				PortFs:         graph.KindScalar,
				PortIsFiltered: graph.KindBool,
				PortFilterType: graph.KindScalar,
				PortFilterInfo: graph.KindText,
			},
		),
		logger: logging.WithFields(logging.Fields{
			"component": "filter_node",
			"node":      name,
		}),
	}
	n.Bind(n)
	_ = n.SetParameter(ParamEnable, graph.BoolValue(false))
	_ = n.SetParameter(ParamFilterType, graph.ScalarValue(FilterMeanDownsample))
	_ = n.SetParameter(ParamWindow, graph.ScalarValue(5))
	_ = n.SetParameter(ParamCutoffFreq, graph.ScalarValue(0.01))
	_ = n.SetParameter(ParamFilterOrder, graph.ScalarValue(4))
	return n
}

// Execute applies the configured filter to the value vector
func (n *Filter) Execute() error {
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
	values, _ := valueVal.Reals()
	fs, _ := fsVal.Scalar()

	enable := false
	if v, ok := n.Parameter(ParamEnable); ok {
		enable, _ = v.Bool()
	}
	ftype := FilterMeanDownsample
	if v, ok := n.Parameter(ParamFilterType); ok {
		s, _ := v.Scalar()
		ftype = int(s)
	}

	filtered := values
	info := ""
	if enable {
		switch ftype {
		case FilterMeanDownsample:
			w := 5
			if v, ok := n.Parameter(ParamWindow); ok {
				s, _ := v.Scalar()
				w = int(math.Round(s))
			}
			if w < 1 {
				return n.ValidationError("mean downsample window must be >= 1, got %d", w)
			}
			filtered = meanDownsampleResample(values, w)
			info = fmt.Sprintf("mean downsample, window=%d", w)

		case FilterLowPass:
			cutoff := 0.01
			if v, ok := n.Parameter(ParamCutoffFreq); ok {
				cutoff, _ = v.Scalar()
			}
			order := 4
			if v, ok := n.Parameter(ParamFilterOrder); ok {
				s, _ := v.Scalar()
				order = int(s)
			}
			if order < 1 {
				return n.ValidationError("filter order must be >= 1, got %d", order)
			}
			if cutoff <= 0 || cutoff >= fs/2 {
				return n.ValidationError("cutoff %g Hz must satisfy 0 < cutoff < fs/2 (%g Hz)", cutoff, fs/2)
			}
			b, a, err := dsp.Butterworth(order, cutoff/(fs/2))
			if err != nil {
				return n.ValidationError("%v", err)
			}
			filtered, err = dsp.FiltFilt(b, a, values)
			if err != nil {
				return n.ValidationError("%v", err)
			}
			info = fmt.Sprintf("lowpass, cutoff=%g Hz", cutoff)

		default:
			return n.ValidationError("unsupported filter type %d", ftype)
		}
		n.logger.Debug("filter applied", logging.Fields{"info": info})
	}

	if err := n.SetOutput(PortTime, timeVal.Clone()); err != nil {
		return err
	}
	if err := n.SetOutput(PortValue, graph.RealValue(filtered)); err != nil {
		return err
	}
	if err := n.SetOutput(PortFs, graph.ScalarValue(fs)); err != nil {
		return err
	}
	if err := n.SetOutput(PortIsFiltered, graph.BoolValue(enable)); err != nil {
		return err
	}
	if err := n.SetOutput(PortFilterType, graph.ScalarValue(float64(ftype))); err != nil {
		return err
	}
	if err := n.SetOutput(PortFilterInfo, graph.TextValue(info)); err != nil {
		return err
	}
	n.MarkClean()
	return nil
}

// meanDownsampleResample computes block means of size w, then linearly
// interpolates them back onto the original sample grid. The output keeps the
// input length; frequency content above the block rate is smeared, which is
// the intended smoothing behavior.
func meanDownsampleResample(x []float64, w int) []float64 {
	n := len(x)
	if w <= 1 || n == 0 {
		out := make([]float64, n)
		copy(out, x)
		return out
	}

	m := n / w
	var means []float64
	for i := 0; i < m; i++ {
		means = append(means, stat.Mean(x[i*w:(i+1)*w], nil))
	}
	if n%w != 0 {
		means = append(means, stat.Mean(x[m*w:], nil))
	}
	if len(means) == 0 {
		means = []float64{stat.Mean(x, nil)}
	}

	out := make([]float64, n)
	if len(means) == 1 {
		for i := range out {
			out[i] = means[0]
		}
		return out
	}

	xs := make([]float64, len(means))
	floats.Span(xs, 0, float64(n-1))
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, means); err != nil {
		// xs is strictly increasing by construction
		copy(out, x)
		return out
	}
	for i := range out {
		out[i] = pl.Predict(float64(i))
	}
	return out
}
