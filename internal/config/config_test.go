package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeTestConfig is a helper that writes a TOML config file to a temp directory
// and returns its path.
func writeTestConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

// clearEnvOverrides unsets the override env vars so tests are not affected
// by the ambient environment.
func clearEnvOverrides(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "MONGODB_URI", "PORTFOLIO_ACCESS_TOKEN"} {
		t.Setenv(key, "")
	}
}

const validConfig = `
[storage]
driver = "sqlite"
path = "test.db"

[ai]
provider = "openai"
api_key = "sk-test-key-123"
model = "gpt-4.1"

[feeds]
political_url = "https://example.com/politics.xml"
market_url = "https://example.com/markets.xml"

[portfolio]
access_token = "token-abc"

[scheduler]
interval_minutes = 15

[server]
port = 9090
`

func TestLoad_ValidConfig(t *testing.T) {
	clearEnvOverrides(t)
	path := writeTestConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) unexpected error: %v", path, err)
	}

	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "sqlite")
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("AI.Provider = %q, want %q", cfg.AI.Provider, "openai")
	}
	if cfg.AI.APIKey != "sk-test-key-123" {
		t.Errorf("AI.APIKey = %q, want %q", cfg.AI.APIKey, "sk-test-key-123")
	}
	if cfg.Feeds.PoliticalURL != "https://example.com/politics.xml" {
		t.Errorf("Feeds.PoliticalURL = %q, want %q", cfg.Feeds.PoliticalURL, "https://example.com/politics.xml")
	}
	if cfg.Scheduler.IntervalMinutes != 15 {
		t.Errorf("Scheduler.IntervalMinutes = %d, want %d", cfg.Scheduler.IntervalMinutes, 15)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9090)
	}
}

func TestLoad_MissingFile_CreatesDefaultButFailsValidation(t *testing.T) {
	clearEnvOverrides(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	// The default template has no API key or feed URLs, so Load must create
	// the file for the user to fill in and then report a validation error.
	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() with default template expected validation error, got nil")
	}

	if _, statErr := os.Stat(path); statErr != nil {
		t.Fatalf("default config file not created at %q: %v", path, statErr)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	clearEnvOverrides(t)
	content := `
[ai]
api_key = "sk-test"

[feeds]
political_url = "https://example.com/p.xml"
market_url = "https://example.com/m.xml"
`
	path := writeTestConfig(t, content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("Storage.Driver = %q, want default %q", cfg.Storage.Driver, "sqlite")
	}
	if cfg.Storage.Database != "news_investing" {
		t.Errorf("Storage.Database = %q, want default %q", cfg.Storage.Database, "news_investing")
	}
	if cfg.AI.Provider != "openai" {
		t.Errorf("AI.Provider = %q, want default %q", cfg.AI.Provider, "openai")
	}
	if cfg.AI.Model != "gpt-4.1" {
		t.Errorf("AI.Model = %q, want default %q", cfg.AI.Model, "gpt-4.1")
	}
	if cfg.Scheduler.IntervalMinutes != 30 {
		t.Errorf("Scheduler.IntervalMinutes = %d, want default %d", cfg.Scheduler.IntervalMinutes, 30)
	}
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want default %d", cfg.Server.Port, 5000)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnvOverrides(t)
	t.Setenv("OPENAI_API_KEY", "sk-from-provider-env")
	t.Setenv("PORTFOLIO_ACCESS_TOKEN", "token-from-env")

	path := writeTestConfig(t, validConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.AI.APIKey != "sk-from-provider-env" {
		t.Errorf("AI.APIKey = %q, want provider env override", cfg.AI.APIKey)
	}
	if cfg.Portfolio.AccessToken != "token-from-env" {
		t.Errorf("Portfolio.AccessToken = %q, want env override", cfg.Portfolio.AccessToken)
	}

	// AI_API_KEY takes priority over the provider-specific variable.
	t.Setenv("AI_API_KEY", "sk-generic-wins")
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.AI.APIKey != "sk-generic-wins" {
		t.Errorf("AI.APIKey = %q, want AI_API_KEY to win", cfg.AI.APIKey)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantSub string
	}{
		{
			name: "missing api key",
			content: `
[feeds]
political_url = "https://example.com/p.xml"
market_url = "https://example.com/m.xml"
`,
			wantSub: "ai.api_key",
		},
		{
			name: "missing political feed",
			content: `
[ai]
api_key = "sk-test"

[feeds]
market_url = "https://example.com/m.xml"
`,
			wantSub: "feeds.political_url",
		},
		{
			name: "missing market feed",
			content: `
[ai]
api_key = "sk-test"

[feeds]
political_url = "https://example.com/p.xml"
`,
			wantSub: "feeds.market_url",
		},
		{
			name: "bad storage driver",
			content: `
[storage]
driver = "postgres"

[ai]
api_key = "sk-test"

[feeds]
political_url = "https://example.com/p.xml"
market_url = "https://example.com/m.xml"
`,
			wantSub: "storage.driver",
		},
		{
			name: "mongo driver without uri",
			content: `
[storage]
driver = "mongo"

[ai]
api_key = "sk-test"

[feeds]
political_url = "https://example.com/p.xml"
market_url = "https://example.com/m.xml"
`,
			wantSub: "storage.uri",
		},
		{
			name: "bad provider",
			content: `
[ai]
provider = "gemini"
api_key = "sk-test"

[feeds]
political_url = "https://example.com/p.xml"
market_url = "https://example.com/m.xml"
`,
			wantSub: "ai.provider",
		},
		{
			name: "explicit zero interval",
			content: `
[ai]
api_key = "sk-test"

[feeds]
political_url = "https://example.com/p.xml"
market_url = "https://example.com/m.xml"

[scheduler]
interval_minutes = 0
`,
			wantSub: "interval_minutes",
		},
		{
			name: "port out of range",
			content: `
[ai]
api_key = "sk-test"

[feeds]
political_url = "https://example.com/p.xml"
market_url = "https://example.com/m.xml"

[server]
port = 70000
`,
			wantSub: "server.port",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvOverrides(t)
			path := writeTestConfig(t, tt.content)

			_, err := Load(path)
			if err == nil {
				t.Fatal("Load() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.wantSub)
			}
		})
	}
}
