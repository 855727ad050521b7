package nodes

import (
	"math"

	"tfscope/internal/graph"
	"tfscope/pkg/dsp"
	"tfscope/pkg/logging"
)

// Spectrum parameter and port names
const (
	ParamFreqRange     = "freq_range"
	ParamFFTSizeFactor = "fft_size_factor"

	PortFPlot     = "f_plot"
	PortP1Plot    = "P1_plot"
	PortFreqRange = "freq_range"
)

// Spectrum computes a zoom-FFT magnitude spectrum of the current window over
// a narrow frequency band, giving high relative resolution without
// oversampling the whole signal.
type Spectrum struct {
	graph.BaseNode
	logger logging.Logger
}

// NewSpectrum creates a spectrum node with defaulted parameters
func NewSpectrum(name string) *Spectrum {
	n := &Spectrum{
		BaseNode: graph.NewBaseNode(name,
			map[string]graph.Kind{
				ParamFreqRange:     graph.KindReal,
				ParamFFTSizeFactor: graph.KindScalar,
			},
			map[string]graph.Kind{
				PortValue: graph.KindReal,
				PortFs:    graph.KindScalar,
			},
			map[string]graph.Kind{
				PortFPlot:     graph.KindReal,
				PortP1Plot:    graph.KindReal,
				PortFreqRange: graph.KindReal,
			},
		),
		logger: logging.WithFields(logging.Fields{
			"component": "spectrum_node",
			"node":      name,
		}),
	}
	n.Bind(n)
	_ = n.SetParameter(ParamFreqRange, graph.RealValue([]float64{0, 0.001}))
	_ = n.SetParameter(ParamFFTSizeFactor, graph.ScalarValue(8))
	return n
}

// Execute runs the zoom-FFT over the configured band
func (n *Spectrum) Execute() error {
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

	rangeVal, err := n.RequireParameter(ParamFreqRange)
	if err != nil {
		return err
	}
	band, _ := rangeVal.Reals()
	if len(band) != 2 {
		return n.ValidationError("freq_range wants exactly 2 values, got %d", len(band))
	}
	fmin, fmax := band[0], band[1]
	if fmin < 0 || fmin >= fmax || fmax > fs/2 {
		return n.ValidationError("freq_range (%g, %g) must satisfy 0 <= fmin < fmax <= fs/2 (%g)", fmin, fmax, fs/2)
	}

	factor := 8
	if v, ok := n.Parameter(ParamFFTSizeFactor); ok {
		s, _ := v.Scalar()
		factor = int(math.Round(s))
	}
	if factor < 1 {
		return n.ValidationError("fft size factor must be >= 1, got %d", factor)
	}
	if len(values) == 0 {
		return n.ValidationError("input window is empty")
	}

	result, err := dsp.ZoomFFT(values, fs, fmin, fmax, factor)
	if err != nil {
		return n.ValidationError("%v", err)
	}

	n.logger.Debug("spectrum computed", logging.Fields{
		"bins": len(result.Freqs),
		"band": []float64{fmin, fmax},
	})

	if err := n.SetOutput(PortFPlot, graph.RealValue(result.Freqs)); err != nil {
		return err
	}
	if err := n.SetOutput(PortP1Plot, graph.RealValue(result.Mags)); err != nil {
		return err
	}
	if err := n.SetOutput(PortFreqRange, graph.RealValue([]float64{fmin, fmax})); err != nil {
		return err
	}
	n.MarkClean()
	return nil
}
