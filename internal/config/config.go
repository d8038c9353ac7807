package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultInterval = "6h"
	configPathEnv   = "REFENGINE_CONFIG"
	databaseDSNEnv  = "DATABASE_DSN"
	openAIKeyEnv    = "OPENAI_API_KEY"
	openAIModelEnv  = "OPENAI_MODEL"
	listenAddrEnv   = "REFENGINE_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Cleaner   CleanerConfig   `yaml:"cleaner"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Sources   []SourceConfig  `yaml:"sources"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig describes the HTTP invocation surface.
type ServerConfig struct {
	Addr           string `yaml:"addr"`
	RequestTimeout string `yaml:"requestTimeout"`
}

// Timeout resolves the per-request timeout, defaulting to 60s.
func (s ServerConfig) Timeout() time.Duration {
	if d, err := time.ParseDuration(s.RequestTimeout); err == nil && d > 0 {
		return d
	}
	return 60 * time.Second
}

// DatabaseConfig describes the Postgres document store connection. An empty
// DSN selects the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines how often the ingestion job runs.
type SchedulerConfig struct {
	Interval string `yaml:"interval"`
}

// Duration resolves the interval string, defaulting to 6 hours.
func (s SchedulerConfig) Duration() time.Duration {
	if d, err := time.ParseDuration(s.Interval); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(defaultInterval)
	return d
}

// CleanerConfig tunes the cleaning pass. YearCutoff only applies to the
// standalone cleanup binary unless forced on here for the scheduled pass.
type CleanerConfig struct {
	YearCutoff           int  `yaml:"yearCutoff"`
	ApplyCutoffScheduled bool `yaml:"applyCutoffScheduled"`
}

// OpenAIConfig defines how to contact the fallback generative model.
type OpenAIConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// SourceConfig enables one source adapter and its retry behavior.
type SourceConfig struct {
	Name    string `yaml:"name"`
	Enabled bool   `yaml:"enabled"`
	Retry   bool   `yaml:"retry"`
}

// LoggingConfig selects the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

// Source returns the configuration for a named source, falling back to a
// disabled entry for unknown names.
func (c Config) Source(name string) SourceConfig {
	for _, src := range c.Sources {
		if src.Name == name {
			return src
		}
	}
	return SourceConfig{Name: name}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(listenAddrEnv); v != "" {
		c.Server.Addr = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server.Addr = override.Server.Addr
	}
	if override.Server.RequestTimeout != "" {
		base.Server.RequestTimeout = override.Server.RequestTimeout
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Scheduler.Interval != "" {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if override.Cleaner.YearCutoff != 0 {
		base.Cleaner.YearCutoff = override.Cleaner.YearCutoff
	}
	if override.Cleaner.ApplyCutoffScheduled {
		base.Cleaner.ApplyCutoffScheduled = true
	}

	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.BaseURL != "" {
		base.OpenAI.BaseURL = override.OpenAI.BaseURL
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:    ServerConfig{Addr: ":8080", RequestTimeout: "60s"},
		Database:  DatabaseConfig{DSN: ""},
		Scheduler: SchedulerConfig{Interval: defaultInterval},
		Cleaner:   CleanerConfig{YearCutoff: 2020},
		OpenAI:    OpenAIConfig{Model: "gpt-4o-mini"},
		Sources: []SourceConfig{
			{Name: "pubmed", Enabled: true, Retry: true},
			{Name: "ctgov", Enabled: true},
			{Name: "nihreporter", Enabled: true},
			{Name: "openalex", Enabled: true},
			{Name: "europepmc", Enabled: true},
			{Name: "medrxiv", Enabled: true, Retry: true},
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
