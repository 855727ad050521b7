package nodes

import (
	"math"
	"time"

	"tfscope/internal/graph"
	"tfscope/pkg/logging"
)

// Waterfall parameter and port names
const (
	ParamHistorySize = "history_size"

	PortSpectrum   = "spectrum"
	PortTimePoint  = "time_point"
	PortHistory    = "history"
	PortTimes      = "times"
	PortSize       = "size"
	PortLogHistory = "log_history"
)

// Waterfall keeps a fixed-capacity FIFO of past spectra and their
// timestamps, rendered downstream as a rolling spectrogram.
//
// Whenever the buffer is empty a zero row is inserted before the first
// append; the row lingers until ordinary eviction removes it. The reference
// implementation seeds its history this way and downstream plots expect it.
type Waterfall struct {
	graph.BaseNode
	logger logging.Logger

	rows  [][]float64
	times []time.Time
	width int
}

// NewWaterfall creates a waterfall node with defaulted parameters
func NewWaterfall(name string) *Waterfall {
	n := &Waterfall{
		BaseNode: graph.NewBaseNode(name,
			map[string]graph.Kind{
				ParamHistorySize: graph.KindScalar,
			},
			map[string]graph.Kind{
				PortSpectrum:  graph.KindReal,
				PortTimePoint: graph.KindTime,
			},
			map[string]graph.Kind{
				PortHistory:    graph.KindHistory,
				PortTimes:      graph.KindTime,
				PortSize:       graph.KindScalar,
				PortLogHistory: graph.KindHistory,
			},
		),
		logger: logging.WithFields(logging.Fields{
			"component": "waterfall_node",
			"node":      name,
		}),
	}
	n.Bind(n)
	_ = n.SetParameter(ParamHistorySize, graph.ScalarValue(20))
	return n
}

// Execute appends the incoming spectrum to the history and evicts the oldest
// rows past capacity. Re-delivery of an unchanged spectrum and timestamp is
// a no-op so repeated passes over a clean upstream keep the history stable.
func (n *Waterfall) Execute() error {
	historySize := 20
	if v, ok := n.Parameter(ParamHistorySize); ok {
		s, _ := v.Scalar()
		historySize = int(s)
	}
	if historySize < 2 {
		return n.ValidationError("history size must be >= 2, got %d", historySize)
	}

	specVal, err := n.RequireInput(PortSpectrum)
	if err != nil {
		return err
	}
	tpVal, err := n.RequireInput(PortTimePoint)
	if err != nil {
		return err
	}
	spectrum, _ := specVal.Reals()
	tpSlice, _ := tpVal.Times()
	if len(spectrum) == 0 {
		return n.ValidationError("incoming spectrum is empty")
	}
	if len(tpSlice) == 0 {
		return n.ValidationError("time point is empty")
	}
	tp := tpSlice[0]

	if len(n.rows) > 0 && len(spectrum) != n.width {
		return n.ValidationError("spectrum width %d does not match history width %d", len(spectrum), n.width)
	}

	last := len(n.rows) - 1
	duplicate := last >= 0 && n.times[last].Equal(tp) && rowsEqual(n.rows[last], spectrum)
	if !duplicate {
		if len(n.rows) == 0 {
			n.rows = append(n.rows, make([]float64, len(spectrum)))
			n.times = append(n.times, tp)
			n.width = len(spectrum)
		}
		row := make([]float64, len(spectrum))
		copy(row, spectrum)
		n.rows = append(n.rows, row)
		n.times = append(n.times, tp)

		for len(n.rows) > historySize {
			n.rows = n.rows[1:]
			n.times = n.times[1:]
		}
	}

	n.logger.Debug("waterfall updated", logging.Fields{
		"rows":      len(n.rows),
		"width":     n.width,
		"duplicate": duplicate,
	})

	return n.publish()
}

// ClearHistory empties the buffer and marks the node dirty
func (n *Waterfall) ClearHistory() {
	n.rows = nil
	n.times = nil
	n.width = 0
	n.Reset()
}

// SetHistorySize changes the capacity, truncating from the head when the
// current buffer exceeds it
func (n *Waterfall) SetHistorySize(k int) error {
	if k < 2 {
		return n.ValidationError("history size must be >= 2, got %d", k)
	}
	if err := n.SetParameter(ParamHistorySize, graph.ScalarValue(float64(k))); err != nil {
		return err
	}
	for len(n.rows) > k {
		n.rows = n.rows[1:]
		n.times = n.times[1:]
	}
	return nil
}

func (n *Waterfall) publish() error {
	rows := make([][]float64, len(n.rows))
	logRows := make([][]float64, len(n.rows))
	for i, row := range n.rows {
		rows[i] = append([]float64(nil), row...)
		logRows[i] = make([]float64, len(row))
		for j, v := range row {
			logRows[i][j] = math.Log10(v)
		}
	}
	times := append([]time.Time(nil), n.times...)

	if err := n.SetOutput(PortHistory, graph.HistoryValue(graph.History{Rows: rows, Times: times})); err != nil {
		return err
	}
	if err := n.SetOutput(PortTimes, graph.TimeValue(times)); err != nil {
		return err
	}
	if err := n.SetOutput(PortSize, graph.ScalarValue(float64(len(n.rows)))); err != nil {
		return err
	}
	if err := n.SetOutput(PortLogHistory, graph.HistoryValue(graph.History{Rows: logRows, Times: times})); err != nil {
		return err
	}
	n.MarkClean()
	return nil
}

func rowsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
