package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Storage   StorageConfig   `toml:"storage"`
	AI        AIConfig        `toml:"ai"`
	Feeds     FeedsConfig     `toml:"feeds"`
	Portfolio PortfolioConfig `toml:"portfolio"`
	Scheduler SchedulerConfig `toml:"scheduler"`
	Server    ServerConfig    `toml:"server"`
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Driver   string `toml:"driver"` // "sqlite" or "mongo"
	Path     string `toml:"path"`   // sqlite database file
	URI      string `toml:"uri"`    // mongo connection string
	Database string `toml:"database"`
}

// AIConfig holds language-model provider settings.
type AIConfig struct {
	Provider string `toml:"provider"`
	APIKey   string `toml:"api_key"`
	Model    string `toml:"model"`
}

// FeedsConfig holds the RSS feed URLs, one per news category.
type FeedsConfig struct {
	PoliticalURL    string `toml:"political_url"`
	MarketURL       string `toml:"market_url"`
	ExpandSummaries bool   `toml:"expand_summaries"`
}

// PortfolioConfig holds broker client settings. AccessToken is optional:
// without it the portfolio section of the analysis prompt is omitted.
type PortfolioConfig struct {
	BaseURL        string `toml:"base_url"`
	AccessToken    string `toml:"access_token"`
	InstrumentsCSV string `toml:"instruments_csv"`
}

// SchedulerConfig holds the analysis pass interval.
type SchedulerConfig struct {
	IntervalMinutes int `toml:"interval_minutes"`
}

// ServerConfig holds HTTP dashboard server settings.
type ServerConfig struct {
	Port int `toml:"port"`
}

const defaultConfigContent = `[storage]
driver = "sqlite"                 # "sqlite" or "mongo"
path = "data/newsadvisor.db"      # sqlite database file
uri = ""                          # mongo connection string (or set MONGODB_URI)
database = "news_investing"

[ai]
provider = "openai"               # "openai" or "anthropic"
api_key = ""                      # Your API key (or set AI_API_KEY env var)
model = "gpt-4.1"

[feeds]
political_url = ""                # political news RSS feed URL
market_url = ""                   # market news RSS feed URL
expand_summaries = false          # fetch linked articles to expand short summaries

[portfolio]
base_url = "https://api.groww.in"
access_token = ""                 # broker access token (or set PORTFOLIO_ACCESS_TOKEN)
instruments_csv = ""              # optional symbol -> instrument name mapping

[scheduler]
interval_minutes = 30

[server]
port = 5000
`

// Load reads and parses the TOML config from the given path. If the file does
// not exist, it creates a default config file at that path. Environment
// variables override values from the file with highest priority.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := createDefault(path); err != nil {
			return nil, fmt.Errorf("creating default config: %w", err)
		}
		slog.Info("created default config file", "path", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Validate explicitly-set values before applying defaults, so that
	// explicitly writing "interval_minutes = 0" is an error rather than
	// silently being replaced with the default.
	if err := validateExplicit(&cfg, md); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// createDefault writes the default config content to the given path,
// creating any parent directories as needed.
func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultConfigContent), 0o644); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// validateExplicit checks values that were explicitly set in the TOML file.
// This catches cases like "port = 0" which would otherwise be silently
// replaced by the default value.
func validateExplicit(cfg *Config, md toml.MetaData) error {
	if md.IsDefined("server", "port") {
		if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
			return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
		}
	}
	if md.IsDefined("scheduler", "interval_minutes") {
		if cfg.Scheduler.IntervalMinutes < 1 {
			return fmt.Errorf("invalid scheduler.interval_minutes %d: must be >= 1", cfg.Scheduler.IntervalMinutes)
		}
	}
	return nil
}

// applyDefaults sets default values for any zero-valued optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "data/newsadvisor.db"
	}
	if cfg.Storage.Database == "" {
		cfg.Storage.Database = "news_investing"
	}
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = "openai"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gpt-4.1"
	}
	if cfg.Portfolio.BaseURL == "" {
		cfg.Portfolio.BaseURL = "https://api.groww.in"
	}
	if cfg.Scheduler.IntervalMinutes == 0 {
		cfg.Scheduler.IntervalMinutes = 30
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5000
	}
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables take highest priority over config file values.
//
// Priority for ai.api_key:
//  1. AI_API_KEY (generic, highest)
//  2. OPENAI_API_KEY (when provider is "openai")
//  3. ANTHROPIC_API_KEY (when provider is "anthropic")
func applyEnvOverrides(cfg *Config) {
	switch cfg.AI.Provider {
	case "openai":
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	case "anthropic":
		if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
			cfg.AI.APIKey = v
		}
	}
	if v := os.Getenv("AI_API_KEY"); v != "" {
		cfg.AI.APIKey = v
	}

	if v := os.Getenv("MONGODB_URI"); v != "" {
		cfg.Storage.URI = v
	}
	if v := os.Getenv("PORTFOLIO_ACCESS_TOKEN"); v != "" {
		cfg.Portfolio.AccessToken = v
	}
}

// validate checks that configuration values are present and within acceptable
// ranges. A failure here is fatal at process start: the scheduler never
// begins with an incomplete configuration.
func validate(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "sqlite", "mongo":
		// valid
	default:
		return fmt.Errorf("invalid storage.driver %q: must be \"sqlite\" or \"mongo\"", cfg.Storage.Driver)
	}
	if cfg.Storage.Driver == "mongo" && cfg.Storage.URI == "" {
		return fmt.Errorf("storage.uri is required when storage.driver is \"mongo\" (or set MONGODB_URI)")
	}

	switch cfg.AI.Provider {
	case "openai", "anthropic":
		// valid
	default:
		return fmt.Errorf("invalid ai.provider %q: must be \"openai\" or \"anthropic\"", cfg.AI.Provider)
	}
	if cfg.AI.APIKey == "" {
		return fmt.Errorf("ai.api_key is required: set it in the config file or via AI_API_KEY")
	}

	if cfg.Feeds.PoliticalURL == "" {
		return fmt.Errorf("feeds.political_url is required")
	}
	if cfg.Feeds.MarketURL == "" {
		return fmt.Errorf("feeds.market_url is required")
	}

	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d: must be between 1 and 65535", cfg.Server.Port)
	}

	if cfg.Portfolio.AccessToken == "" {
		slog.Warn("portfolio.access_token is empty: analysis will run without portfolio context")
	}

	return nil
}
