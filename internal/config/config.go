package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/aeroconcept/sizer/internal/sizing"
)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server     ServerConfig     `toml:"server"`      // HTTP server settings
	Logging    LoggingConfig    `toml:"logging"`     // Application logging settings
	Storage    StorageConfig    `toml:"storage"`     // Data persistence settings
	Sizing     sizing.Options   `toml:"sizing"`      // Sweep bounds and convergence settings
	TradeStudy TradeStudyConfig `toml:"trade_study"` // Parallel trade-study settings
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// StorageConfig contains data persistence configuration
type StorageConfig struct {
	Type           string `toml:"type"`             // Storage backend type (currently only "sqlite" is supported)
	SQLitePath     string `toml:"sqlite_path"`      // Path to the SQLite database file
	MaxCurvePoints int    `toml:"max_curve_points"` // Maximum constraint-curve points returned by the API (0 = all)
}

// TradeStudyConfig contains parallel trade-study execution settings
type TradeStudyConfig struct {
	Workers  int `toml:"workers"`   // Number of design cases evaluated concurrently (default: 4)
	MaxCases int `toml:"max_cases"` // Upper bound on cases per study request (default: 256)
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // User-specified path (if provided)
		"configs/config.toml", // configs/ folder
		"config.toml",         // Root directory
	}

	// Remove duplicates while preserving order
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	// Validate logging config
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		// Valid log level
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
		// Valid log format
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	// Validate storage config
	if c.Storage.Type != "sqlite" {
		return fmt.Errorf("invalid storage type: %s (only 'sqlite' is supported)", c.Storage.Type)
	}
	if c.Storage.SQLitePath == "" {
		return fmt.Errorf("sqlite_path is required when storage type is sqlite")
	}
	if c.Storage.MaxCurvePoints < 0 {
		return fmt.Errorf("max_curve_points must be >= 0: %d", c.Storage.MaxCurvePoints)
	}

	// Validate sizing sweep bounds
	if err := c.ValidateSizing(); err != nil {
		return err
	}

	// Trade-study defaults
	if c.TradeStudy.Workers == 0 {
		c.TradeStudy.Workers = 4
	}
	if c.TradeStudy.Workers < 0 {
		return fmt.Errorf("trade_study workers must be positive: %d", c.TradeStudy.Workers)
	}
	if c.TradeStudy.MaxCases == 0 {
		c.TradeStudy.MaxCases = 256
	}
	if c.TradeStudy.MaxCases < 0 {
		return fmt.Errorf("trade_study max_cases must be positive: %d", c.TradeStudy.MaxCases)
	}

	return nil
}

// ValidateSizing validates the sizing sweep and convergence settings
func (c *Config) ValidateSizing() error {
	s := c.Sizing
	if s.WingLoadingMin < 0 || s.WingLoadingMax < 0 || s.WingLoadingStep < 0 {
		return fmt.Errorf("sizing wing-loading sweep values must be non-negative")
	}
	if s.WingLoadingMax != 0 && s.WingLoadingMin >= s.WingLoadingMax {
		return fmt.Errorf("sizing wing_loading_min (%g) must be below wing_loading_max (%g)",
			s.WingLoadingMin, s.WingLoadingMax)
	}
	if s.TakeoffWeightMax != 0 && s.TakeoffWeightMin >= s.TakeoffWeightMax {
		return fmt.Errorf("sizing takeoff_weight_min (%g) must be below takeoff_weight_max (%g)",
			s.TakeoffWeightMin, s.TakeoffWeightMax)
	}
	if s.Tolerance < 0 {
		return fmt.Errorf("sizing tolerance must be non-negative: %g", s.Tolerance)
	}
	if s.MaxIterations < 0 {
		return fmt.Errorf("sizing max_iterations must be non-negative: %d", s.MaxIterations)
	}
	return nil
}
