package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"tfscope/configs"
	"tfscope/internal/app"
)

var (
	analyzeSliceDuration float64
	analyzeOverlap       float64
	analyzeFreqMin       float64
	analyzeFreqMax       float64
	analyzeFilterEnable  bool
	analyzeFilterType    int
	analyzeFilterParam   float64
	analyzeHistorySize   int
	analyzeSlice         int
)

// analyzeCmd runs a single analysis pass over a data file
var analyzeCmd = &cobra.Command{
	Use:   "analyze [flags] <data-file>",
	Short: "Run a single time-frequency analysis pass",
	Long: `Run the full pipeline over a delimited text file of
(timestamp, value) rows and print a summary of the results.

Examples:
  # Analyze with defaults (24h windows, 50% overlap)
  tfscope analyze data/sat1/channel3.csv

  # One-hour windows, disjoint, with a low-pass filter
  tfscope analyze --slice-duration 3600 --overlap 0 \
      --filter --filter-type 2 --filter-param 0.0001 data/sat1/channel3.csv

  # Narrow band zoom and JSON output
  tfscope analyze --freq-min 0.00001 --freq-max 0.0005 -o json data/sat1/channel3.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().Float64Var(&analyzeSliceDuration, "slice-duration", 86400,
		"window duration in seconds")
	analyzeCmd.Flags().Float64Var(&analyzeOverlap, "overlap", 0.5,
		"window overlap ratio [0, 1)")
	analyzeCmd.Flags().Float64Var(&analyzeFreqMin, "freq-min", 0,
		"lower bound of the analysis band in Hz")
	analyzeCmd.Flags().Float64Var(&analyzeFreqMax, "freq-max", 0.001,
		"upper bound of the analysis band in Hz")
	analyzeCmd.Flags().BoolVar(&analyzeFilterEnable, "filter", false,
		"enable the filter stage")
	analyzeCmd.Flags().IntVar(&analyzeFilterType, "filter-type", 1,
		"filter type (1=mean downsample, 2=lowpass)")
	analyzeCmd.Flags().Float64Var(&analyzeFilterParam, "filter-param", 5,
		"downsample window (type 1) or cutoff frequency in Hz (type 2)")
	analyzeCmd.Flags().IntVar(&analyzeHistorySize, "history-size", 20,
		"waterfall history capacity")
	analyzeCmd.Flags().IntVar(&analyzeSlice, "slice", 1,
		"1-based index of the window to analyze")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := configs.Load(viper.GetViper())
	if err != nil {
		return err
	}

	// Flags override config file values
	cfg.Analysis.SliceDuration = analyzeSliceDuration
	cfg.Analysis.OverlapRatio = analyzeOverlap
	cfg.Analysis.FreqMin = analyzeFreqMin
	cfg.Analysis.FreqMax = analyzeFreqMax
	cfg.Analysis.Filter.Enable = analyzeFilterEnable
	cfg.Analysis.Filter.Type = analyzeFilterType
	if analyzeFilterType == 2 {
		cfg.Analysis.Filter.Cutoff = analyzeFilterParam
	} else {
		cfg.Analysis.Filter.Window = int(analyzeFilterParam)
	}
	cfg.Analysis.Waterfall.HistorySize = analyzeHistorySize

	ctx := &app.Context{
		ConfigFile:   configFile,
		OutputFormat: viper.GetString("output_format"),
		Verbose:      viper.GetBool("verbose"),
		Config:       cfg,
	}

	analyzer, err := app.NewAnalyzer(ctx)
	if err != nil {
		return err
	}

	result, err := analyzer.Run(args[0], analyzeSlice)
	if err != nil {
		return err
	}
	return printResult(result, ctx.OutputFormat)
}

func printResult(result *app.Result, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		out, err := yaml.Marshal(result)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(out)
		return err
	default:
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "file:\t%s\n", result.File)
		fmt.Fprintf(w, "sampling rate:\t%g Hz\n", result.SamplingRate)
		fmt.Fprintf(w, "slices:\t%d\n", result.NumSlices)
		fmt.Fprintf(w, "current slice:\t%d (%d points)\n", result.CurrentSlice, result.SlicePoints)
		fmt.Fprintf(w, "time range:\t%s\n", result.TimeRange)
		fmt.Fprintf(w, "band:\t%g - %g Hz\n", result.FreqRange[0], result.FreqRange[1])
		fmt.Fprintf(w, "peak:\t%g Hz (magnitude %.6g)\n", result.PeakFreq, result.PeakMag)
		fmt.Fprintf(w, "waterfall rows:\t%d\n", result.HistoryRows)
		return w.Flush()
	}
}
