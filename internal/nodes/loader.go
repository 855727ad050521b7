// Package nodes implements the processing nodes of the time-frequency
// workflow: data loading, filtering, slicing, zoom spectrum and the rolling
// waterfall history.
package nodes

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"tfscope/internal/graph"
	"tfscope/pkg/logging"
	"tfscope/pkg/textio"
)

// Loader parameter and port names
const (
	ParamFilename = "filename"
	ParamEncoding = "encoding"
	ParamMaxRows  = "max_rows"

	PortTime  = "time"
	PortValue = "value"
	PortFs    = "fs"
)

// Loader reads a delimited text file of (timestamp, value) rows, sorts both
// vectors jointly by time and derives the sampling rate from the median
// sample interval.
type Loader struct {
	graph.BaseNode
	logger logging.Logger
}

// NewLoader creates a loader node with defaulted parameters
func NewLoader(name string) *Loader {
	n := &Loader{
		BaseNode: graph.NewBaseNode(name,
			map[string]graph.Kind{
				ParamFilename: graph.KindText,
				ParamEncoding: graph.KindText,
				ParamMaxRows:  graph.KindScalar,
			},
			map[string]graph.Kind{},
			map[string]graph.Kind{
				PortTime:  graph.KindTime,
				PortValue: graph.KindReal,
				PortFs:    graph.KindScalar,
			},
		),
		logger: logging.WithFields(logging.Fields{
			"component": "loader_node",
			"node":      name,
		}),
	}
	n.Bind(n)
	_ = n.SetParameter(ParamEncoding, graph.TextValue("utf-8"))
	_ = n.SetParameter(ParamMaxRows, graph.ScalarValue(0))
	return n
}

// Execute parses the file and populates time, value and fs
func (n *Loader) Execute() error {
	fnVal, err := n.RequireParameter(ParamFilename)
	if err != nil {
		return err
	}
	filename, _ := fnVal.Text()
	if strings.TrimSpace(filename) == "" {
		return graph.NewGraphError(graph.ErrCodeMissingParameter, n.Name(),
			"filename is empty", nil)
	}

	encoding := "utf-8"
	if v, ok := n.Parameter(ParamEncoding); ok {
		encoding, _ = v.Text()
	}
	maxRows := 0
	if v, ok := n.Parameter(ParamMaxRows); ok {
		s, _ := v.Scalar()
		maxRows = int(s)
	}

	times, values, err := n.readFile(filename, encoding, maxRows)
	if err != nil {
		return err
	}
	if len(times) < 2 {
		return n.ValidationError("need at least 2 rows to derive a sampling rate, got %d", len(times))
	}

	// Joint sort by ascending time; duplicates are retained
	idx := make([]int, len(times))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return times[idx[a]].Before(times[idx[b]])
	})
	sortedTimes := make([]time.Time, len(times))
	sortedValues := make([]float64, len(values))
	for i, j := range idx {
		sortedTimes[i] = times[j]
		sortedValues[i] = values[j]
	}

	diffs := make([]float64, len(sortedTimes)-1)
	for i := 1; i < len(sortedTimes); i++ {
		diffs[i-1] = sortedTimes[i].Sub(sortedTimes[i-1]).Seconds()
	}
	sort.Float64s(diffs)
	mid := len(diffs) / 2
	median := diffs[mid]
	if len(diffs)%2 == 0 {
		median = (diffs[mid-1] + diffs[mid]) / 2
	}
	if median <= 0 {
		return n.ValidationError("median sample interval is not positive")
	}
	fs := 1 / median

	n.logger.Debug("data loaded", logging.Fields{
		"rows": len(sortedTimes),
		"fs":   fs,
	})

	if err := n.SetOutput(PortTime, graph.TimeValue(sortedTimes)); err != nil {
		return err
	}
	if err := n.SetOutput(PortValue, graph.RealValue(sortedValues)); err != nil {
		return err
	}
	if err := n.SetOutput(PortFs, graph.ScalarValue(fs)); err != nil {
		return err
	}
	n.MarkClean()
	return nil
}

func (n *Loader) readFile(filename, encoding string, maxRows int) ([]time.Time, []float64, error) {
	f, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, graph.NewGraphError(graph.ErrCodeFileNotFound, n.Name(),
				fmt.Sprintf("file %q does not exist", filename), err)
		}
		return nil, nil, graph.NewGraphError(graph.ErrCodeFileNotFound, n.Name(),
			fmt.Sprintf("cannot open %q", filename), err)
	}
	defer f.Close()

	reader, err := textio.DecodingReader(f, encoding)
	if err != nil {
		return nil, nil, n.ValidationError("%v", err)
	}

	var times []time.Time
	var values []float64
	scanner := bufio.NewScanner(reader)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, ",", 2)
		if len(parts) != 2 {
			return nil, nil, n.parseError(lineNo, "expected 2 comma-separated columns")
		}
		ts, err := textio.ParseTimestamp(parts[0])
		if err != nil {
			// An optional header row is ignored
			if lineNo == 1 {
				continue
			}
			return nil, nil, n.parseError(lineNo, fmt.Sprintf("bad timestamp %q", parts[0]))
		}
		val, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, nil, n.parseError(lineNo, fmt.Sprintf("bad value %q", parts[1]))
		}
		times = append(times, ts)
		values = append(values, val)
		if maxRows > 0 && len(times) >= maxRows {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, graph.NewGraphError(graph.ErrCodeParse, n.Name(), "read failed", err)
	}
	return times, values, nil
}

func (n *Loader) parseError(line int, msg string) error {
	return graph.NewGraphError(graph.ErrCodeParse, n.Name(),
		fmt.Sprintf("row %d: %s", line, msg), nil)
}
