package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"spotmeta/internal/provider/spotify"
	"spotmeta/internal/secret"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SPOTMETA_"

// Config contains the program configuration
type Config struct {
	SecretProvider      string        `yaml:"secret_provider" env:"SECRET_PROVIDER"`
	EnvFile             string        `yaml:"env_file" env:"ENV_FILE"`
	GCPProject          string        `yaml:"gcp_project" env:"GCP_PROJECT"`
	ClientIDName        string        `yaml:"client_id_name" env:"CLIENT_ID_NAME"`
	ClientSecretName    string        `yaml:"client_secret_name" env:"CLIENT_SECRET_NAME"`
	Market              string        `yaml:"market" env:"MARKET"`
	RequestTimeout      time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold" env:"CONFIDENCE_THRESHOLD"`
	OutputDir           string        `yaml:"output_dir" env:"OUTPUT_DIR"`
	Verbose             bool          `yaml:"verbose" env:"VERBOSE"`
	ListenPort          int           `yaml:"listen_port" env:"LISTEN_PORT"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		SecretProvider:      string(secret.TypeDotenv),
		EnvFile:             secret.DefaultEnvFile,
		ClientIDName:        spotify.DefaultClientIDName,
		ClientSecretName:    spotify.DefaultClientSecretName,
		Market:              spotify.DefaultMarket,
		RequestTimeout:      spotify.DefaultTimeout,
		ConfidenceThreshold: 0.7,
		OutputDir:           filepath.Join(homeDir(), "Music"),
		ListenPort:          8080,
	}
}

// Load reads the configuration file at path (or the first one found in the
// standard locations when path is empty) and applies SPOTMETA_* environment
// overrides on top.
func Load(path string) (Config, error) {
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadConfigFile loads configuration from a YAML file.
// If path is empty, searches standard locations. Returns defaults if no file found.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.EnvFile = ExpandHome(cfg.EnvFile)
	cfg.OutputDir = ExpandHome(cfg.OutputDir)

	return cfg, nil
}

// ApplyEnv overrides fields from SPOTMETA_* environment variables. Unset
// variables leave the current value alone.
func ApplyEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	cfg.EnvFile = ExpandHome(cfg.EnvFile)
	cfg.OutputDir = ExpandHome(cfg.OutputDir)
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() string {
	home := homeDir()
	locations := []string{
		"./spotmeta.yaml",
		"./spotmeta.yml",
		filepath.Join(home, ".config", "spotmeta", "config.yaml"),
		filepath.Join(home, ".config", "spotmeta", "config.yml"),
		filepath.Join(home, ".spotmeta.yaml"),
		filepath.Join(home, ".spotmeta.yml"),
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// SaveConfigFile saves the current configuration to a YAML file
func SaveConfigFile(cfg Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetDefaultConfigPath returns the default config file path
func GetDefaultConfigPath() string {
	return filepath.Join(homeDir(), ".config", "spotmeta", "config.yaml")
}

// GetDefaultLogPath returns the default log directory path
func GetDefaultLogPath() string {
	return filepath.Join(homeDir(), ".local", "share", "spotmeta", "logs")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

// ProviderType parses the configured secret provider.
func (c *Config) ProviderType() (secret.Type, error) {
	return secret.ParseType(c.SecretProvider)
}

// SecretOptions returns the provider options derived from the configuration.
func (c *Config) SecretOptions() secret.Options {
	return secret.Options{
		EnvFile: c.EnvFile,
		Project: c.GCPProject,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	t, err := c.ProviderType()
	if err != nil {
		return err
	}
	if t == secret.TypeGoogleCloud && c.GCPProject == "" {
		return fmt.Errorf("gcp_project is required when secret_provider is %s", t)
	}

	if c.ClientIDName == "" || c.ClientSecretName == "" {
		return fmt.Errorf("client_id_name and client_secret_name cannot be empty")
	}

	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be between 0.0 and 1.0, got %.2f", c.ConfidenceThreshold)
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}

	if c.ListenPort < 1 || c.ListenPort > 65535 {
		return fmt.Errorf("listen_port must be between 1 and 65535, got %d", c.ListenPort)
	}

	return nil
}
