package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Analysis  AnalysisConfig  `yaml:"analysis" mapstructure:"analysis"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Lexicon   LexiconConfig   `yaml:"lexicon" mapstructure:"lexicon"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnalysisConfig configures the analysis pipeline. All knobs have defaults;
// invalid combinations are rejected by Validate before any document is
// processed.
type AnalysisConfig struct {
	MinHeadingCount           int     `yaml:"min_heading_count" mapstructure:"min_heading_count"`
	MaxHeadingCount           int     `yaml:"max_heading_count" mapstructure:"max_heading_count"`
	NgramMin                  int     `yaml:"ngram_min" mapstructure:"ngram_min"`
	NgramMax                  int     `yaml:"ngram_max" mapstructure:"ngram_max"`
	MinTermWeight             float64 `yaml:"min_term_weight" mapstructure:"min_term_weight"`
	GapThreshold              int     `yaml:"gap_threshold" mapstructure:"gap_threshold"`
	EntityConfidenceThreshold float64 `yaml:"entity_confidence_threshold" mapstructure:"entity_confidence_threshold"`
	SimilarityThreshold       float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	WorkerConcurrency         int     `yaml:"worker_concurrency" mapstructure:"worker_concurrency"`
	PerDocumentTimeoutSecs    int     `yaml:"per_document_timeout_secs" mapstructure:"per_document_timeout_secs"`
}

// PerDocumentTimeout returns the per-document processing budget.
func (c AnalysisConfig) PerDocumentTimeout() time.Duration {
	return time.Duration(c.PerDocumentTimeoutSecs) * time.Second
}

// AnthropicConfig holds settings for the optional Claude-backed entity
// extraction backend. An empty key disables the backend.
type AnthropicConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	Model     string  `yaml:"model" mapstructure:"model"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// LexiconConfig points at an optional YAML lexicon file with extra stop-words
// and entity cue overrides.
type LexiconConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// ConfigurationError reports an invalid configuration value. It is fatal and
// raised before any document is processed.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("config: invalid %s: %s", e.Field, e.Reason)
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SERPBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "serp-brief.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("analysis.min_heading_count", 3)
	v.SetDefault("analysis.max_heading_count", 8)
	v.SetDefault("analysis.ngram_min", 1)
	v.SetDefault("analysis.ngram_max", 3)
	v.SetDefault("analysis.min_term_weight", 0.05)
	v.SetDefault("analysis.gap_threshold", 0) // 0 = majority of competitors
	v.SetDefault("analysis.entity_confidence_threshold", 0.5)
	v.SetDefault("analysis.similarity_threshold", 0.5)
	v.SetDefault("analysis.worker_concurrency", runtime.GOMAXPROCS(0))
	v.SetDefault("analysis.per_document_timeout_secs", 30)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.rate_limit", 2.0)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	a := c.Analysis
	if a.MinHeadingCount < 1 {
		return &ConfigurationError{Field: "analysis.min_heading_count", Reason: "must be at least 1"}
	}
	if a.MaxHeadingCount < a.MinHeadingCount {
		return &ConfigurationError{
			Field:  "analysis.max_heading_count",
			Reason: fmt.Sprintf("must be >= min_heading_count (%d)", a.MinHeadingCount),
		}
	}
	if a.NgramMin < 1 {
		return &ConfigurationError{Field: "analysis.ngram_min", Reason: "must be at least 1"}
	}
	if a.NgramMax < a.NgramMin {
		return &ConfigurationError{
			Field:  "analysis.ngram_max",
			Reason: fmt.Sprintf("must be >= ngram_min (%d)", a.NgramMin),
		}
	}
	if a.MinTermWeight < 0 {
		return &ConfigurationError{Field: "analysis.min_term_weight", Reason: "must not be negative"}
	}
	if a.GapThreshold < 0 {
		return &ConfigurationError{Field: "analysis.gap_threshold", Reason: "must not be negative"}
	}
	if a.EntityConfidenceThreshold < 0 || a.EntityConfidenceThreshold > 1 {
		return &ConfigurationError{Field: "analysis.entity_confidence_threshold", Reason: "must be in [0, 1]"}
	}
	if a.SimilarityThreshold < 0 || a.SimilarityThreshold > 1 {
		return &ConfigurationError{Field: "analysis.similarity_threshold", Reason: "must be in [0, 1]"}
	}
	if a.WorkerConcurrency < 1 {
		return &ConfigurationError{Field: "analysis.worker_concurrency", Reason: "must be at least 1"}
	}
	if a.PerDocumentTimeoutSecs < 1 {
		return &ConfigurationError{Field: "analysis.per_document_timeout_secs", Reason: "must be at least 1"}
	}
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		return &ConfigurationError{Field: "store.driver", Reason: "must be sqlite or postgres"}
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
