package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KaramelBytes/insightloom/internal/analysis"
)

// Global configuration structure.
type Global struct {
	// Analysis thresholds
	TrendThreshold      float64  `mapstructure:"trend_threshold" yaml:"trend_threshold"`
	TopN                int      `mapstructure:"top_n" yaml:"top_n"`
	SimilarityTolerance float64  `mapstructure:"similarity_tolerance" yaml:"similarity_tolerance"`
	PriceBandLow        float64  `mapstructure:"price_band_low" yaml:"price_band_low"`
	PriceBandHigh       float64  `mapstructure:"price_band_high" yaml:"price_band_high"`
	MissingTokens       []string `mapstructure:"missing_tokens" yaml:"missing_tokens"`
	PreviousMarkers     []string `mapstructure:"previous_markers" yaml:"previous_markers"`
	CurrentMarkers      []string `mapstructure:"current_markers" yaml:"current_markers"`
	// Keywords overrides the classifier keyword list per role name.
	Keywords map[string][]string `mapstructure:"keywords" yaml:"keywords,omitempty"`

	// Input/output
	OutputDir    string `mapstructure:"output_dir" yaml:"output_dir"`
	ReportFormat string `mapstructure:"report_format" yaml:"report_format"`
	CSVEncoding  string `mapstructure:"csv_encoding" yaml:"csv_encoding"`

	// Database source
	DBDriver string `mapstructure:"db_driver" yaml:"db_driver,omitempty"`
	DBDSN    string `mapstructure:"db_dsn" yaml:"db_dsn,omitempty"`

	// HTTP server
	ServerAddr      string  `mapstructure:"server_addr" yaml:"server_addr"`
	ServerRateLimit float64 `mapstructure:"server_rate_limit" yaml:"server_rate_limit"`
	ServerBurst     int     `mapstructure:"server_burst" yaml:"server_burst"`
	MaxUploadMB     int     `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// Dir returns ~/.insightloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".insightloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.insightloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from .env, environment, file, and defaults.
// Precedence: env > config file > defaults. Command flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("INSIGHTLOOM")
	v.AutomaticEnv()

	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func setDefaults(v *viper.Viper) {
	def := analysis.DefaultOptions()
	v.SetDefault("trend_threshold", def.TrendThreshold)
	v.SetDefault("top_n", def.TopN)
	v.SetDefault("similarity_tolerance", def.Tolerance)
	v.SetDefault("price_band_low", def.PriceLow)
	v.SetDefault("price_band_high", def.PriceHigh)
	v.SetDefault("missing_tokens", def.MissingTokens)
	v.SetDefault("previous_markers", def.PreviousMarkers)
	v.SetDefault("current_markers", def.CurrentMarkers)
	v.SetDefault("output_dir", "")
	v.SetDefault("report_format", "html")
	v.SetDefault("csv_encoding", "utf-8")
	v.SetDefault("db_driver", "")
	v.SetDefault("db_dsn", "")
	// Server defaults
	v.SetDefault("server_addr", "127.0.0.1:8080")
	v.SetDefault("server_rate_limit", 5.0)
	v.SetDefault("server_burst", 10)
	v.SetDefault("max_upload_mb", 32)
}

// Defaults returns the configuration Load yields with no file or environment.
func Defaults() *Global {
	v := viper.New()
	setDefaults(v)
	var c Global
	_ = v.Unmarshal(&c)
	return &c
}

// AnalysisOptions maps the thresholds onto analysis options. A loaded config
// always carries every key, so zero tolerance and a zero low band are kept;
// negative values fall back to the defaults.
func (c *Global) AnalysisOptions() analysis.Options {
	opt := analysis.DefaultOptions()
	if c.TrendThreshold > 0 {
		opt.TrendThreshold = c.TrendThreshold
	}
	if c.TopN > 0 {
		opt.TopN = c.TopN
	}
	if c.SimilarityTolerance >= 0 {
		opt.Tolerance = c.SimilarityTolerance
	}
	if c.PriceBandLow >= 0 && c.PriceBandHigh >= c.PriceBandLow {
		opt.PriceLow, opt.PriceHigh = c.PriceBandLow, c.PriceBandHigh
	}
	if len(c.MissingTokens) > 0 {
		opt.MissingTokens = c.MissingTokens
	}
	if len(c.PreviousMarkers) > 0 {
		opt.PreviousMarkers = c.PreviousMarkers
	}
	if len(c.CurrentMarkers) > 0 {
		opt.CurrentMarkers = c.CurrentMarkers
	}
	return opt
}

// Classifier builds a classifier with the configured keyword overrides.
func (c *Global) Classifier() (*analysis.Classifier, error) {
	overrides := make(map[analysis.Role][]string, len(c.Keywords))
	for name, list := range c.Keywords {
		r, err := analysis.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("keywords: %w", err)
		}
		overrides[r] = list
	}
	return analysis.NewClassifier(overrides), nil
}
