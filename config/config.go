package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/joho/godotenv"
	"github.com/zclconf/go-cty/cty"
)

// Config represents the application configuration.
type Config struct {
	Driver      string `hcl:"driver,optional"`
	DSN         string `hcl:"dsn,optional"`
	Table       string `hcl:"table,optional"`
	BatchSize   int    `hcl:"batch_size,optional"`
	CreateTable bool   `hcl:"create_table,optional"`
	LogLevel    string `hcl:"log_level,optional"`
	LogFormat   string `hcl:"log_format,optional"`
}

// Environment variables read by ApplyEnv.
const (
	EnvDriver      = "GROWLOG_DRIVER"
	EnvDSN         = "GROWLOG_DSN"
	EnvTable       = "GROWLOG_TABLE"
	EnvBatchSize   = "GROWLOG_BATCH_SIZE"
	EnvCreateTable = "GROWLOG_CREATE_TABLE"
	EnvLogLevel    = "GROWLOG_LOG_LEVEL"
	EnvLogFormat   = "GROWLOG_LOG_FORMAT"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Driver:    "sqlite",
		DSN:       "growlog.db",
		Table:     "log",
		BatchSize: 1,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads the configuration from the given HCL file. Attributes missing
// from the file keep their default.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file: %s", diags.Error())
	}

	cfg := DefaultConfig()
	diags = gohcl.DecodeBody(file.Body, nil, cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config: %s", diags.Error())
	}

	return cfg, nil
}

// LoadEnv loads a .env file into the process environment if one exists.
// Variables already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides cfg with the GROWLOG_* environment variables that are set.
func (cfg *Config) ApplyEnv() error {
	if v := os.Getenv(EnvDriver); v != "" {
		cfg.Driver = v
	}
	if v := os.Getenv(EnvDSN); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv(EnvTable); v != "" {
		cfg.Table = v
	}
	if v := os.Getenv(EnvBatchSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", EnvBatchSize, v, err)
		}
		cfg.BatchSize = n
	}
	if v := os.Getenv(EnvCreateTable); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", EnvCreateTable, v, err)
		}
		cfg.CreateTable = b
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	return nil
}

// Validate checks the configuration. known reports whether a driver name is registered.
func (cfg *Config) Validate(known func(string) bool) error {
	if cfg.Driver == "" {
		return fmt.Errorf("driver is required")
	}
	if known != nil && !known(cfg.Driver) {
		return fmt.Errorf("unknown driver %q", cfg.Driver)
	}
	if cfg.DSN == "" {
		return fmt.Errorf("dsn is required")
	}
	if cfg.Table == "" {
		return fmt.Errorf("table is required")
	}
	if cfg.BatchSize < 0 {
		return fmt.Errorf("batch_size must not be negative, got %d", cfg.BatchSize)
	}
	return nil
}

// Export writes the configuration to the specified file in HCL format.
func Export(path string, cfg *Config) error {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	root.SetAttributeValue("driver", cty.StringVal(cfg.Driver))
	root.SetAttributeValue("dsn", cty.StringVal(cfg.DSN))
	root.SetAttributeValue("table", cty.StringVal(cfg.Table))
	root.SetAttributeValue("batch_size", cty.NumberIntVal(int64(cfg.BatchSize)))
	root.SetAttributeValue("create_table", cty.BoolVal(cfg.CreateTable))
	root.SetAttributeValue("log_level", cty.StringVal(cfg.LogLevel))
	root.SetAttributeValue("log_format", cty.StringVal(cfg.LogFormat))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(f.Bytes())
	if err != nil {
		return fmt.Errorf("failed to write config to file: %w", err)
	}

	return nil
}
