// Package config provides configuration loading and validation for the
// content and loop services and the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/jonathan/marketing-agent/internal/llm"
	"github.com/jonathan/marketing-agent/internal/schemas"
	"github.com/jonathan/marketing-agent/internal/types"
	schemafiles "github.com/jonathan/marketing-agent/schemas"
)

// Defaults for values not set by file or environment.
const (
	DefaultHost      = "0.0.0.0"
	DefaultPort      = 8000
	DefaultLoopPort  = 8001
	DefaultLogLevel  = "INFO"
	DefaultLogFormat = "text"
)

// Config is the merged service configuration. All fields are optional in a
// config file; Load fills the rest from the environment and defaults.
type Config struct {
	APIKey      string           `json:"api_key,omitempty" toml:"api_key"`
	Gemini      GeminiConfig     `json:"gemini" toml:"gemini"`
	Server      ServerConfig     `json:"server" toml:"server"`
	Logging     LoggingConfig    `json:"logging" toml:"logging"`
	Thresholds  ThresholdsConfig `json:"thresholds" toml:"thresholds"`
	DatabaseURL string           `json:"database_url,omitempty" toml:"database_url"` // PostgreSQL connection URL for task history
}

// GeminiConfig selects models per workflow step.
type GeminiConfig struct {
	Model             string `json:"model,omitempty" toml:"model"`                           // drafting and targeted rewrites
	EvaluationModel   string `json:"evaluation_model,omitempty" toml:"evaluation_model"`     // quality evaluation
	OptimizationModel string `json:"optimization_model,omitempty" toml:"optimization_model"` // full rewrites
	MaxOutputTokens   int    `json:"max_output_tokens,omitempty" toml:"max_output_tokens"`
}

// ServerConfig holds listener settings for both services.
type ServerConfig struct {
	Host     string `json:"host,omitempty" toml:"host"`
	Port     int    `json:"port,omitempty" toml:"port"`
	LoopPort int    `json:"loop_port,omitempty" toml:"loop_port"`
	Debug    bool   `json:"debug,omitempty" toml:"debug"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `json:"level,omitempty" toml:"level"`
	Format string `json:"format,omitempty" toml:"format"`
}

// ThresholdsConfig seeds the optimization ladder.
type ThresholdsConfig struct {
	Full     float64 `json:"full_optimization_threshold,omitempty" toml:"full_optimization_threshold"`
	Targeted float64 `json:"targeted_optimization_threshold,omitempty" toml:"targeted_optimization_threshold"`
}

// Default returns the built-in configuration.
func Default() Config {
	t := types.DefaultThresholds()
	return Config{
		Gemini: GeminiConfig{
			Model:           llm.DefaultModel,
			MaxOutputTokens: int(llm.DefaultMaxOutputTokens),
		},
		Server: ServerConfig{
			Host:     DefaultHost,
			Port:     DefaultPort,
			LoopPort: DefaultLoopPort,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Thresholds: ThresholdsConfig{Full: t.Full, Targeted: t.Targeted},
	}
}

// Load builds the effective configuration: the optional file at path, then
// environment overrides, then defaults for anything still unset.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	merged := cfg.MergeWithDefaults(Default())
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// LoadConfig loads configuration from a JSON or TOML file, chosen by extension.
// JSON files are checked against the config schema before decoding.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	default:
		if !json.Valid(data) {
			return nil, fmt.Errorf("failed to parse config JSON: invalid JSON in %s", path)
		}
		if err := schemas.Validate(schemafiles.ConfigFile, data); err != nil {
			return nil, fmt.Errorf("config error: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	}

	return &cfg, nil
}

// ApplyEnv overrides fields with any environment variables that are set.
// Every malformed numeric or boolean variable is reported; the field keeps
// its previous value.
func (c *Config) ApplyEnv() error {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	var err error

	c.APIKey = getEnvString("GEMINI_API_KEY", getEnvString("GOOGLE_API_KEY", c.APIKey))
	c.Gemini.Model = getEnvString("GEMINI_MODEL", c.Gemini.Model)
	c.Gemini.EvaluationModel = getEnvString("GEMINI_EVALUATION_MODEL", c.Gemini.EvaluationModel)
	c.Gemini.OptimizationModel = getEnvString("GEMINI_OPTIMIZATION_MODEL", c.Gemini.OptimizationModel)
	c.Gemini.MaxOutputTokens, err = getEnvInt("GEMINI_MAX_OUTPUT_TOKENS", c.Gemini.MaxOutputTokens)
	collect(err)

	c.Server.Host = getEnvString("HOST", c.Server.Host)
	c.Server.Port, err = getEnvInt("PORT", c.Server.Port)
	collect(err)
	c.Server.LoopPort, err = getEnvInt("LOOP_PORT", c.Server.LoopPort)
	collect(err)
	c.Server.Debug, err = getEnvBool("DEBUG", c.Server.Debug)
	collect(err)

	c.Logging.Level = getEnvString("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnvString("LOG_FORMAT", c.Logging.Format)

	c.Thresholds.Full, err = getEnvFloat("FULL_OPTIMIZATION_THRESHOLD", c.Thresholds.Full)
	collect(err)
	c.Thresholds.Targeted, err = getEnvFloat("TARGETED_OPTIMIZATION_THRESHOLD", c.Thresholds.Targeted)
	collect(err)

	c.DatabaseURL = getEnvString("DATABASE_URL", c.DatabaseURL)

	if len(errs) > 0 {
		return fmt.Errorf("config error: invalid environment: %w", errors.Join(errs...))
	}
	return nil
}

// Validate checks that the configuration has valid values.
// A missing API key is not an error: the content service starts degraded.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.LoopPort < 1 || c.Server.LoopPort > 65535 {
		return fmt.Errorf("config error: 'loop_port' must be between 1 and 65535, got %d", c.Server.LoopPort)
	}
	if c.Gemini.MaxOutputTokens < 0 {
		return fmt.Errorf("config error: 'max_output_tokens' must be non-negative")
	}

	switch strings.ToUpper(c.Logging.Level) {
	case "", "DEBUG", "INFO", "WARN", "WARNING", "ERROR":
	default:
		return fmt.Errorf("config error: unknown log level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config error: unknown log format %q", c.Logging.Format)
	}

	if err := c.OptimizationThresholds().Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.Gemini.Model == "" {
		result.Gemini.Model = defaults.Gemini.Model
	}
	if result.Gemini.EvaluationModel == "" {
		result.Gemini.EvaluationModel = defaults.Gemini.EvaluationModel
	}
	if result.Gemini.OptimizationModel == "" {
		result.Gemini.OptimizationModel = defaults.Gemini.OptimizationModel
	}
	if result.Server.Host == "" {
		result.Server.Host = defaults.Server.Host
	}
	if result.Logging.Level == "" {
		result.Logging.Level = defaults.Logging.Level
	}
	if result.Logging.Format == "" {
		result.Logging.Format = defaults.Logging.Format
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}

	// Numeric fields: use default if zero
	if result.Gemini.MaxOutputTokens == 0 {
		result.Gemini.MaxOutputTokens = defaults.Gemini.MaxOutputTokens
	}
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.Server.LoopPort == 0 {
		result.Server.LoopPort = defaults.Server.LoopPort
	}
	if result.Thresholds.Full == 0 {
		result.Thresholds.Full = defaults.Thresholds.Full
	}
	if result.Thresholds.Targeted == 0 {
		result.Thresholds.Targeted = defaults.Thresholds.Targeted
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge

	return result
}

// OptimizationThresholds returns the configured ladder thresholds.
func (c *Config) OptimizationThresholds() types.Thresholds {
	return types.Thresholds{Full: c.Thresholds.Full, Targeted: c.Thresholds.Targeted}
}

// LLMConfig builds the model configuration. Evaluation runs on the lite
// tier and full rewrites on the advanced tier; unset tiers use Model.
func (c *Config) LLMConfig() *llm.Config {
	return llm.DefaultGeminiConfig(c.Gemini.Model).
		WithModel(llm.TierLite, c.Gemini.EvaluationModel).
		WithModel(llm.TierAdvanced, c.Gemini.OptimizationModel).
		WithMaxOutputTokens(int32(c.Gemini.MaxOutputTokens))
}

// Addr is the listen address of the content service.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// LoopAddr is the listen address of the loop service.
func (c *Config) LoopAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.LoopPort))
}
