package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom/internal/analysis"
	"github.com/KaramelBytes/insightloom/internal/table"
)

// sourceFlags control how input files are read.
type sourceFlags struct {
	delimiter string
	decimal   string
	thousands string
	encoding  string
	sheetName string
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' (sniffed if omitted)")
	cmd.Flags().StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	cmd.Flags().StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	cmd.Flags().StringVar(&f.encoding, "encoding", "", "CSV text encoding: utf-8 | windows-1254 | iso-8859-9 | windows-1252 (default from config)")
	cmd.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet to analyze instead of the largest one")
}

func (f *sourceFlags) options() (table.LoadOptions, error) {
	var opt table.LoadOptions
	switch f.delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	default:
		return opt, fmt.Errorf("unsupported --delimiter: %s", f.delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(f.decimal)) {
	case ",", "comma":
		opt.Number.DecimalSeparator = ','
	case ".", "dot":
		opt.Number.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", f.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(f.thousands)) {
	case ",":
		opt.Number.ThousandsSeparator = ','
	case ".":
		opt.Number.ThousandsSeparator = '.'
	case "space", " ":
		opt.Number.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", f.thousands)
	}
	opt.Encoding = f.encoding
	if opt.Encoding == "" && cfg != nil {
		opt.Encoding = cfg.CSVEncoding
	}
	opt.SheetName = f.sheetName
	return opt, nil
}

// thresholdFlags override the analysis thresholds from config.
type thresholdFlags struct {
	trend      float64
	topN       int
	tolerance  float64
	priceLow   float64
	priceHigh  float64
	prevColumn string
	curColumn  string
	coreOnly   bool
}

func (f *thresholdFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.trend, "trend-threshold", 0, "percent change that marks a row as rising or falling (default from config, 20)")
	cmd.Flags().IntVar(&f.topN, "top-n", 0, "rows listed per trend or opportunity insight (default from config, 3)")
	cmd.Flags().Float64Var(&f.tolerance, "tolerance", 0, "percent band inside which compared averages are similar (default from config, 5)")
	cmd.Flags().Float64Var(&f.priceLow, "price-low", 0, "upper bound of the budget price band (default from config, 200)")
	cmd.Flags().Float64Var(&f.priceHigh, "price-high", 0, "upper bound of the mid-range price band (default from config, 1000)")
	cmd.Flags().StringVar(&f.prevColumn, "prev-column", "", "previous-period metric column for the trend analysis")
	cmd.Flags().StringVar(&f.curColumn, "cur-column", "", "current-period metric column for the trend analysis")
	cmd.Flags().BoolVar(&f.coreOnly, "core-only", false, "run only the seven core analyses")
}

func (f *thresholdFlags) options(cmd *cobra.Command) (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	if cfg != nil {
		opt = cfg.AnalysisOptions()
	}
	fl := cmd.Flags()
	if fl.Changed("trend-threshold") {
		if f.trend <= 0 {
			return opt, fmt.Errorf("--trend-threshold must be positive")
		}
		opt.TrendThreshold = f.trend
	}
	if fl.Changed("top-n") {
		if f.topN <= 0 {
			return opt, fmt.Errorf("--top-n must be positive")
		}
		opt.TopN = f.topN
	}
	if fl.Changed("tolerance") {
		if f.tolerance < 0 {
			return opt, fmt.Errorf("--tolerance must not be negative")
		}
		opt.Tolerance = f.tolerance
	}
	if fl.Changed("price-low") {
		opt.PriceLow = f.priceLow
	}
	if fl.Changed("price-high") {
		opt.PriceHigh = f.priceHigh
	}
	if opt.PriceLow > opt.PriceHigh {
		return opt, fmt.Errorf("price bands: low %.2f is above high %.2f", opt.PriceLow, opt.PriceHigh)
	}
	opt.PreviousColumn = f.prevColumn
	opt.CurrentColumn = f.curColumn
	if f.coreOnly {
		opt.Extended = false
	}
	return opt, nil
}

// classifier returns the classifier with config keyword overrides.
func classifier() (*analysis.Classifier, error) {
	if cfg == nil {
		return analysis.NewClassifier(nil), nil
	}
	return cfg.Classifier()
}
