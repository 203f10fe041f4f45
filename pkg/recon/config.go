package recon

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/webete/internal/decompile"
	httpc "github.com/PentesterFlow/webete/internal/http"
	"github.com/PentesterFlow/webete/internal/logger"
	"github.com/PentesterFlow/webete/internal/pyc"
	"github.com/PentesterFlow/webete/internal/report"
)

// Config holds all runner configuration.
type Config struct {
	// Target base URL, normally ending in "/"
	Target string `json:"target" yaml:"target"`

	// Basic-auth credentials
	Auth Credentials `json:"auth" yaml:"auth"`

	// HTTP client settings
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Bytecode guessing
	Python PythonConfig `json:"python" yaml:"python"`

	// External decompiler
	Decompiler DecompilerConfig `json:"decompiler" yaml:"decompiler"`

	// Directory decompiled sources are written under
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Reporter settings
	Report ReportConfig `json:"report" yaml:"report"`

	// Findings journal path; empty disables the journal
	StorePath string `json:"store_path" yaml:"store_path"`

	// Verbose logging
	Verbose bool `json:"verbose" yaml:"verbose"`

	// Log level (debug, info, warn, error); overrides Verbose when set
	LogLevel string `json:"log_level" yaml:"log_level"`
}

// HTTPConfig holds HTTP client settings.
type HTTPConfig struct {
	Timeout           time.Duration     `json:"timeout" yaml:"timeout"`
	UserAgent         string            `json:"user_agent" yaml:"user_agent"`
	Headers           map[string]string `json:"headers" yaml:"headers"`
	SkipTLSVerify     bool              `json:"skip_tls_verify" yaml:"skip_tls_verify"`
	RequestsPerSecond float64           `json:"requests_per_second" yaml:"requests_per_second"`
	Cookies           bool              `json:"cookies" yaml:"cookies"`
	MaxBodySize       int64             `json:"max_body_size" yaml:"max_body_size"` // zero selects the client default
}

// PythonConfig holds the guess-list parameters.
type PythonConfig struct {
	Versions   []string `json:"versions" yaml:"versions"`
	Extensions []string `json:"extensions" yaml:"extensions"`
}

// DecompilerConfig selects the external decompiler.
type DecompilerConfig struct {
	Command string   `json:"command" yaml:"command"`
	Args    []string `json:"args" yaml:"args"`
}

// ReportConfig holds reporter settings.
type ReportConfig struct {
	Format  report.Format `json:"format" yaml:"format"`
	NoColor bool          `json:"no_color" yaml:"no_color"`
}

// DefaultConfig returns a configuration with the stock guess list and no
// timeout or pacing.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			UserAgent: httpc.DefaultUserAgent,
		},
		Python: PythonConfig{
			Versions:   append([]string(nil), pyc.DefaultVersions...),
			Extensions: append([]string(nil), pyc.DefaultExtensions...),
		},
		Decompiler: DecompilerConfig{
			Command: decompile.DefaultCommand,
		},
		OutputDir: ".",
		Report: ReportConfig{
			Format: report.FormatText,
		},
	}
}

// LoadFromFile loads configuration from a file (YAML or JSON) on top of
// DefaultConfig.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target URL is required")
	}

	u, err := url.Parse(c.Target)
	if err != nil {
		return fmt.Errorf("invalid target URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target URL must be http or https, got %q", c.Target)
	}
	if u.Host == "" {
		return fmt.Errorf("target URL has no host: %q", c.Target)
	}

	if len(c.Python.Versions) == 0 {
		return fmt.Errorf("at least one python version is required")
	}
	if len(c.Python.Extensions) == 0 {
		return fmt.Errorf("at least one bytecode extension is required")
	}

	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.HTTP.MaxBodySize < 0 {
		return fmt.Errorf("max body size must not be negative")
	}
	if c.HTTP.RequestsPerSecond < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	if c.Report.Format != "" && !report.ValidFormat(c.Report.Format) {
		return fmt.Errorf("unknown output format %q", c.Report.Format)
	}

	if c.LogLevel != "" {
		if _, err := logger.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
	}

	return nil
}

// LoggerConfig returns the logger configuration for Verbose and LogLevel.
// An unparsable LogLevel is ignored; Validate reports it.
func (c *Config) LoggerConfig() logger.Config {
	cfg := logger.ForVerbosity(c.Verbose)
	if c.LogLevel != "" {
		if level, err := logger.ParseLevel(c.LogLevel); err == nil {
			cfg.Level = level
		}
	}
	cfg.NoColor = c.Report.NoColor
	return cfg
}
