package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/insightloom/internal/analysis"
	cfgpkg "github.com/KaramelBytes/insightloom/internal/config"
	"github.com/KaramelBytes/insightloom/internal/report"
	"github.com/KaramelBytes/insightloom/internal/store"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set insightloom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "trend_threshold: %g\n", c.TrendThreshold)
		fmt.Fprintf(out, "top_n: %d\n", c.TopN)
		fmt.Fprintf(out, "similarity_tolerance: %g\n", c.SimilarityTolerance)
		fmt.Fprintf(out, "price_band_low: %g\n", c.PriceBandLow)
		fmt.Fprintf(out, "price_band_high: %g\n", c.PriceBandHigh)
		fmt.Fprintf(out, "missing_tokens: %s\n", strings.Join(c.MissingTokens, ","))
		fmt.Fprintf(out, "previous_markers: %s\n", strings.Join(c.PreviousMarkers, ","))
		fmt.Fprintf(out, "current_markers: %s\n", strings.Join(c.CurrentMarkers, ","))
		if len(c.Keywords) > 0 {
			roles := make([]string, 0, len(c.Keywords))
			for r := range c.Keywords {
				roles = append(roles, r)
			}
			sort.Strings(roles)
			for _, r := range roles {
				fmt.Fprintf(out, "keywords.%s: %s\n", r, strings.Join(c.Keywords[r], ","))
			}
		}
		fmt.Fprintf(out, "output_dir: %s\n", c.OutputDir)
		fmt.Fprintf(out, "report_format: %s\n", c.ReportFormat)
		fmt.Fprintf(out, "csv_encoding: %s\n", c.CSVEncoding)
		if c.DBDriver != "" {
			fmt.Fprintf(out, "db_driver: %s\n", c.DBDriver)
		}
		if c.DBDSN != "" {
			fmt.Fprintf(out, "db_dsn: %s\n", mask(c.DBDSN))
		}
		fmt.Fprintf(out, "server_addr: %s\n", c.ServerAddr)
		fmt.Fprintf(out, "server_rate_limit: %g\n", c.ServerRateLimit)
		fmt.Fprintf(out, "server_burst: %d\n", c.ServerBurst)
		fmt.Fprintf(out, "max_upload_mb: %d\n", c.MaxUploadMB)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk. List values are comma-separated.
Keyword overrides use keywords.<role>, e.g. "keywords.metric satış,ciro".`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := currentConfig()
		if err != nil {
			return err
		}
		if err := setKey(c, args[0], args[1]); err != nil {
			return err
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		success(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func setKey(c *cfgpkg.Global, key, val string) error {
	if role, ok := strings.CutPrefix(key, "keywords."); ok {
		r, err := analysis.ParseRole(role)
		if err != nil || r == analysis.RoleUnknown {
			return fmt.Errorf("invalid role in %s (use price, metric, category, name, date, status or meta)", key)
		}
		if c.Keywords == nil {
			c.Keywords = map[string][]string{}
		}
		list := splitList(val)
		if len(list) == 0 {
			delete(c.Keywords, r.String())
			return nil
		}
		c.Keywords[r.String()] = list
		return nil
	}
	switch key {
	case "trend_threshold":
		f, err := nonNegativeFloat(key, val)
		if err != nil {
			return err
		}
		c.TrendThreshold = f
	case "top_n":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid positive int for top_n: %v", val)
		}
		c.TopN = i
	case "similarity_tolerance":
		f, err := nonNegativeFloat(key, val)
		if err != nil {
			return err
		}
		c.SimilarityTolerance = f
	case "price_band_low":
		f, err := nonNegativeFloat(key, val)
		if err != nil {
			return err
		}
		c.PriceBandLow = f
	case "price_band_high":
		f, err := nonNegativeFloat(key, val)
		if err != nil {
			return err
		}
		c.PriceBandHigh = f
	case "missing_tokens":
		c.MissingTokens = splitList(val)
	case "previous_markers":
		c.PreviousMarkers = splitList(val)
	case "current_markers":
		c.CurrentMarkers = splitList(val)
	case "output_dir":
		c.OutputDir = val
	case "report_format":
		f := strings.ToLower(strings.TrimSpace(val))
		switch f {
		case report.FormatHTML, report.FormatMarkdown, report.FormatJSON:
		case "md":
			f = report.FormatMarkdown
		default:
			return fmt.Errorf("invalid report_format: %s (use html, markdown or json)", val)
		}
		c.ReportFormat = f
	case "csv_encoding":
		c.CSVEncoding = val
	case "db_driver":
		switch strings.ToLower(val) {
		case store.DriverSQLite, store.DriverPostgres, "":
			c.DBDriver = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid db_driver: %s (use sqlite or postgres)", val)
		}
	case "db_dsn":
		c.DBDSN = val
	case "server_addr":
		c.ServerAddr = val
	case "server_rate_limit":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("invalid float for server_rate_limit: %v", val)
		}
		c.ServerRateLimit = f
	case "server_burst":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid positive int for server_burst: %v", val)
		}
		c.ServerBurst = i
	case "max_upload_mb":
		i, err := strconv.Atoi(val)
		if err != nil || i <= 0 {
			return fmt.Errorf("invalid positive int for max_upload_mb: %v", val)
		}
		c.MaxUploadMB = i
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

func nonNegativeFloat(key, val string) (float64, error) {
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 {
		return 0, fmt.Errorf("invalid float for %s: %v", key, val)
	}
	return f, nil
}

func splitList(val string) []string {
	var out []string
	for _, s := range strings.Split(val, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// mask hides the middle of credentials such as DSNs with passwords.
func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
