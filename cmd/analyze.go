package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom/internal/report"
	"github.com/KaramelBytes/insightloom/internal/store"
	"github.com/KaramelBytes/insightloom/internal/table"
)

var (
	anaOutputPath   string
	anaFormat       string
	anaCompare      string
	anaCompareTable string
	anaDB           string
	anaDriver       string
	anaTable        string
	anaSource       sourceFlags
	anaThresholds   thresholdFlags
)

const defaultReportBase = "insightloom_report"

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Analyze a CSV/TSV/XLSX file or a SQL table and write an insight report",
	Long: `Analyze classifies every column by its header (price, metric, category, name,
date, status, meta), runs the fixed battery of analyses and writes a report.

Input is either a file argument or a database via --db (sqlite path or postgres DSN).
--compare / --compare-table enable the cross-table price comparison.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		loadOpt, err := anaSource.options()
		if err != nil {
			return err
		}
		opt, err := anaThresholds.options(cmd)
		if err != nil {
			return err
		}
		cl, err := classifier()
		if err != nil {
			return err
		}

		dsn := anaDB
		if dsn == "" && len(args) == 0 && cfg != nil {
			dsn = cfg.DBDSN
		}
		var (
			t, compare *table.Table
			source     string
		)
		switch {
		case len(args) == 1 && dsn != "":
			return errors.New("pass either a file or --db, not both")
		case len(args) == 1:
			source = args[0]
			if t, err = table.Load(source, loadOpt); err != nil {
				return err
			}
			if anaCompareTable != "" {
				return errors.New("--compare-table needs --db; use --compare for files")
			}
		case dsn != "":
			st, err := openStore(cmd.Context(), anaDriver, dsn)
			if err != nil {
				return err
			}
			defer st.Close()
			if t, source, err = readStoreTable(cmd.Context(), st, anaTable); err != nil {
				return err
			}
			if anaCompareTable != "" {
				if compare, _, err = readStoreTable(cmd.Context(), st, anaCompareTable); err != nil {
					return err
				}
			}
		default:
			return errors.New("missing input: pass a file or --db")
		}

		if anaCompare != "" {
			if compare != nil {
				return errors.New("use either --compare or --compare-table, not both")
			}
			copt := loadOpt
			copt.SheetName = ""
			if compare, err = table.Load(anaCompare, copt); err != nil {
				return err
			}
		}

		success(out, "Loaded %s: %d rows, %d columns", t.Name, t.Rows(), t.Width())
		if compare != nil {
			success(out, "Comparing with %s: %d rows", compare.Name, compare.Rows())
		}
		if t.Rows() == 0 {
			warn(out, "%s has no data rows; the report will contain no insights", t.Name)
		}
		explainRoles(out, t, cl)

		rep := report.Analyze(source, t, compare, cl, opt)
		printInsights(out, rep.Result())

		format := anaFormat
		if format == "" && cfg != nil {
			format = cfg.ReportFormat
		}
		if anaOutputPath == "-" {
			return rep.Render(out, format)
		}
		path := anaOutputPath
		if path == "" {
			dir := ""
			if cfg != nil {
				dir = cfg.OutputDir
			}
			path = filepath.Join(dir, defaultReportBase+report.ExtFor(format))
		}
		if err := rep.WriteFile(path, format); err != nil {
			return err
		}
		success(out, "Wrote report to %s", path)
		return nil
	},
}

func openStore(ctx context.Context, driver, dsn string) (*store.Store, error) {
	if driver == "" && cfg != nil {
		driver = cfg.DBDriver
	}
	return store.Open(ctx, driver, dsn)
}

// readStoreTable reads name, or the table with the most rows when name is empty.
func readStoreTable(ctx context.Context, st *store.Store, name string) (*table.Table, string, error) {
	if name == "" {
		var err error
		if name, err = st.MainTable(ctx); err != nil {
			return nil, "", err
		}
	}
	t, err := st.ReadTable(ctx, name)
	if err != nil {
		return nil, "", fmt.Errorf("read table %s: %w", name, err)
	}
	return t, name, nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "report path (default insightloom_report.<ext> in output_dir; '-' for stdout)")
	analyzeCmd.Flags().StringVar(&anaFormat, "format", "", "report format: html | markdown | json (default from config, html)")
	analyzeCmd.Flags().StringVar(&anaCompare, "compare", "", "second file whose average price is compared with this one")
	analyzeCmd.Flags().StringVar(&anaCompareTable, "compare-table", "", "with --db: second table for the price comparison")
	analyzeCmd.Flags().StringVar(&anaDB, "db", "", "database to read from: sqlite path or postgres DSN")
	analyzeCmd.Flags().StringVar(&anaDriver, "driver", "", "database driver: sqlite | postgres (detected from --db if omitted)")
	analyzeCmd.Flags().StringVar(&anaTable, "table", "", "with --db: table to analyze (default: the one with most rows)")
	anaSource.register(analyzeCmd)
	anaThresholds.register(analyzeCmd)
}
