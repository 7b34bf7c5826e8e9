package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom/internal/report"
	"github.com/KaramelBytes/insightloom/internal/table"
	"github.com/KaramelBytes/insightloom/internal/utils"
)

var (
	abOutDir     string
	abFormat     string
	abQuiet      bool
	abKeepGoing  bool
	abSource     sourceFlags
	abThresholds thresholdFlags
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/XLSX files, writing one report per file",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}

		loadOpt, err := abSource.options()
		if err != nil {
			return err
		}
		opt, err := abThresholds.options(cmd)
		if err != nil {
			return err
		}
		cl, err := classifier()
		if err != nil {
			return err
		}
		format := abFormat
		if format == "" && cfg != nil {
			format = cfg.ReportFormat
		}
		outDir := abOutDir
		if outDir == "" && cfg != nil {
			outDir = cfg.OutputDir
		}
		if outDir == "" {
			outDir = "."
		}
		if err := utils.EnsureDir(outDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}

		total, failed := len(files), 0
		for i, path := range files {
			if !abQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			t, err := table.Load(path, loadOpt)
			if err != nil {
				if !abKeepGoing {
					return err
				}
				warn(out, "%v", err)
				failed++
				continue
			}
			rep := report.Analyze(path, t, nil, cl, opt)

			base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
			if abSource.sheetName != "" {
				base += "__sheet-" + utils.Slug(abSource.sheetName)
			}
			dest := utils.UniquePath(outDir, base, report.ExtFor(format))
			if !abQuiet && filepath.Base(dest) != base+report.ExtFor(format) {
				warn(out, "report for %s exists, writing to %s to avoid overwrite", base, filepath.Base(dest))
			}
			if err := rep.WriteFile(dest, format); err != nil {
				return err
			}
			if !abQuiet {
				success(out, "%d insights from %s -> %s", len(rep.Insights), t.Name, dest)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files failed to load", failed, total)
		}
		return nil
	},
}

// expandInputs resolves glob patterns, keeps literal paths that exist and
// returns the de-duplicated list in sorted order.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory for the reports (default from config, else current dir)")
	analyzeBatchCmd.Flags().StringVar(&abFormat, "format", "", "report format: html | markdown | json (default from config, html)")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
	analyzeBatchCmd.Flags().BoolVar(&abKeepGoing, "keep-going", false, "continue with the next file when one fails to load")
	abSource.register(analyzeBatchCmd)
	abThresholds.register(analyzeBatchCmd)
}
