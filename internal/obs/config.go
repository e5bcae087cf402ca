package obs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the transferproofd service configuration.
type Config struct {
	// Key-context paths (spec.md §4.3).
	ProvingKeyPath    string `json:"proving_key_path"`
	VerifyingKeyPath  string `json:"verifying_key_path"`
	EpochProvingPath  string `json:"epoch_proving_key_path"`
	EpochVerifyPath   string `json:"epoch_verifying_key_path"`

	// Logging.
	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`

	// Performance.
	MaxConcurrency int `json:"max_concurrency"`
	TimeoutSeconds int `json:"timeout_seconds"`

	// Rate limiting: proof requests per caller per window.
	RateLimitPerSecond int `json:"rate_limit_per_second"`
	RateLimitBurst     int `json:"rate_limit_burst"`

	// Security.
	EnableAudit  bool   `json:"enable_audit"`
	AuditLogPath string `json:"audit_log_path"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		ProvingKeyPath:     "proving.params",
		VerifyingKeyPath:   "verification.params",
		EpochProvingPath:   "proving_epoch.params",
		EpochVerifyPath:    "verification_epoch.params",
		LogLevel:           "info",
		LogFile:            "transferproofd.log",
		MaxConcurrency:     4,
		TimeoutSeconds:     30,
		RateLimitPerSecond: 5,
		RateLimitBurst:     10,
		EnableAudit:        true,
		AuditLogPath:       "audit.log",
	}
}

// LoadConfig loads configuration from file, or creates and saves a default
// one if the path does not yet exist.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		var config Config
		if err := json.NewDecoder(file).Decode(&config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
		return &config, nil
	}

	config := DefaultConfig()
	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return config, nil
}

// SaveConfig saves configuration to file.
func SaveConfig(config *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.ProvingKeyPath == "" || c.VerifyingKeyPath == "" {
		return fmt.Errorf("proving_key_path and verifying_key_path must be set")
	}
	if c.EpochProvingPath == "" || c.EpochVerifyPath == "" {
		return fmt.Errorf("epoch_proving_key_path and epoch_verifying_key_path must be set")
	}
	if c.MaxConcurrency <= 0 {
		return fmt.Errorf("max_concurrency must be positive")
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}
	if c.RateLimitPerSecond <= 0 {
		return fmt.Errorf("rate_limit_per_second must be positive")
	}
	return nil
}
