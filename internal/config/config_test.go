package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "127.0.0.1",
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Storage: StorageConfig{
			Type:           "sqlite",
			SQLitePath:     "data/designs.db",
			MaxCurvePoints: 300,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "port"},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }, "port"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "log format"},
		{"bad storage type", func(c *Config) { c.Storage.Type = "postgres" }, "storage type"},
		{"missing sqlite path", func(c *Config) { c.Storage.SQLitePath = "" }, "sqlite_path"},
		{"negative curve points", func(c *Config) { c.Storage.MaxCurvePoints = -1 }, "max_curve_points"},
		{"inverted sweep", func(c *Config) {
			c.Sizing.WingLoadingMin = 300
			c.Sizing.WingLoadingMax = 10
		}, "wing_loading_min"},
		{"negative tolerance", func(c *Config) { c.Sizing.Tolerance = -1 }, "tolerance"},
		{"negative workers", func(c *Config) { c.TradeStudy.Workers = -2 }, "workers"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateFillsTradeStudyDefaults(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.TradeStudy.Workers != 4 {
		t.Errorf("workers = %d, want default 4", cfg.TradeStudy.Workers)
	}
	if cfg.TradeStudy.MaxCases != 256 {
		t.Errorf("max_cases = %d, want default 256", cfg.TradeStudy.MaxCases)
	}
}

func TestLoadWithFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[server]
port = 9090
host = "0.0.0.0"

[logging]
level = "debug"
format = "json"

[storage]
type = "sqlite"
sqlite_path = "designs.db"

[sizing]
tolerance = 0.01
max_iterations = 5

[trade_study]
workers = 2
`
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadWithFallback(path)
	if err != nil {
		t.Fatalf("LoadWithFallback: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %+v, want debug/json", cfg.Logging)
	}
	if cfg.Sizing.Tolerance != 0.01 || cfg.Sizing.MaxIterations != 5 {
		t.Errorf("sizing = %+v, want tolerance 0.01 and 5 iterations", cfg.Sizing)
	}
	if cfg.TradeStudy.Workers != 2 {
		t.Errorf("workers = %d, want 2", cfg.TradeStudy.Workers)
	}
}

func TestLoadWithFallbackMissing(t *testing.T) {
	if _, err := LoadWithFallback(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
