package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"spotmeta/internal/secret"
)

func TestValidate(t *testing.T) {
	valid := func() Config {
		cfg := DefaultConfig()
		cfg.OutputDir = "/tmp/music"
		return cfg
	}

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults",
			modify: func(c *Config) {},
		},
		{
			name:   "confidence threshold 0.0",
			modify: func(c *Config) { c.ConfidenceThreshold = 0.0 },
		},
		{
			name:   "confidence threshold 1.0",
			modify: func(c *Config) { c.ConfidenceThreshold = 1.0 },
		},
		{
			name:    "confidence threshold negative",
			modify:  func(c *Config) { c.ConfidenceThreshold = -0.1 },
			wantErr: true,
		},
		{
			name:    "confidence threshold above 1",
			modify:  func(c *Config) { c.ConfidenceThreshold = 1.1 },
			wantErr: true,
		},
		{
			name:    "unknown provider",
			modify:  func(c *Config) { c.SecretProvider = "vault" },
			wantErr: true,
		},
		{
			name:   "provider is case insensitive",
			modify: func(c *Config) { c.SecretProvider = "Colab" },
		},
		{
			name:    "google cloud without project",
			modify:  func(c *Config) { c.SecretProvider = "google_cloud" },
			wantErr: true,
		},
		{
			name: "google cloud with project",
			modify: func(c *Config) {
				c.SecretProvider = "google_cloud"
				c.GCPProject = "my-project"
			},
		},
		{
			name:    "empty credential name",
			modify:  func(c *Config) { c.ClientIDName = "" },
			wantErr: true,
		},
		{
			name:    "zero timeout",
			modify:  func(c *Config) { c.RequestTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "port 0",
			modify:  func(c *Config) { c.ListenPort = 0 },
			wantErr: true,
		},
		{
			name:    "port 70000",
			modify:  func(c *Config) { c.ListenPort = 70000 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `secret_provider: google_cloud
gcp_project: my-project
market: GB
request_timeout: 3s
confidence_threshold: 0.5
output_dir: /tmp/test-music
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}

	if cfg.SecretProvider != "google_cloud" {
		t.Errorf("SecretProvider = %q, want google_cloud", cfg.SecretProvider)
	}
	if cfg.GCPProject != "my-project" {
		t.Errorf("GCPProject = %q, want my-project", cfg.GCPProject)
	}
	if cfg.Market != "GB" {
		t.Errorf("Market = %q, want GB", cfg.Market)
	}
	if cfg.RequestTimeout != 3*time.Second {
		t.Errorf("RequestTimeout = %s, want 3s", cfg.RequestTimeout)
	}
	if cfg.ConfidenceThreshold != 0.5 {
		t.Errorf("ConfidenceThreshold = %f, want 0.5", cfg.ConfidenceThreshold)
	}
	if cfg.OutputDir != "/tmp/test-music" {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, "/tmp/test-music")
	}
	// Fields absent from the file keep their defaults.
	if cfg.ClientIDName != "spotify_client_id" {
		t.Errorf("ClientIDName = %q, want default", cfg.ClientIDName)
	}
}

func TestLoadConfigFileNotFound(t *testing.T) {
	cfg, err := LoadConfigFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadConfigFile() should return defaults for missing file, got error: %v", err)
	}
	if cfg.SecretProvider != string(secret.TypeDotenv) {
		t.Errorf("expected default provider dotenv, got %q", cfg.SecretProvider)
	}
	if cfg.RequestTimeout != 10*time.Second {
		t.Errorf("expected default timeout 10s, got %s", cfg.RequestTimeout)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("market: GB\nlisten_port: 9000\n"), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SPOTMETA_SECRET_PROVIDER", "colab")
	t.Setenv("SPOTMETA_LISTEN_PORT", "9100")
	t.Setenv("SPOTMETA_REQUEST_TIMEOUT", "250ms")
	t.Setenv("SPOTMETA_VERBOSE", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.SecretProvider != "colab" {
		t.Errorf("SecretProvider = %q, want colab", cfg.SecretProvider)
	}
	if cfg.ListenPort != 9100 {
		t.Errorf("ListenPort = %d, want 9100", cfg.ListenPort)
	}
	if cfg.RequestTimeout != 250*time.Millisecond {
		t.Errorf("RequestTimeout = %s, want 250ms", cfg.RequestTimeout)
	}
	if !cfg.Verbose {
		t.Error("Verbose = false, want true")
	}
	// Not overridden: the file value wins over the default.
	if cfg.Market != "GB" {
		t.Errorf("Market = %q, want GB", cfg.Market)
	}
}

func TestLoadEnvOverrideInvalid(t *testing.T) {
	t.Setenv("SPOTMETA_LISTEN_PORT", "not-a-number")

	if _, err := Load("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error for invalid SPOTMETA_LISTEN_PORT")
	}
}

func TestSaveConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.SecretProvider = "google_cloud"
	cfg.GCPProject = "p"
	cfg.RequestTimeout = 5 * time.Second

	if err := SaveConfigFile(cfg, path); err != nil {
		t.Fatalf("SaveConfigFile() error: %v", err)
	}

	got, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile() error: %v", err)
	}
	if got != cfg {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, cfg)
	}
}

func TestProviderType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SecretProvider = " Google_Cloud "

	got, err := cfg.ProviderType()
	if err != nil {
		t.Fatalf("ProviderType() error: %v", err)
	}
	if got != secret.TypeGoogleCloud {
		t.Errorf("ProviderType() = %q, want %q", got, secret.TypeGoogleCloud)
	}
}

func TestExpandHome(t *testing.T) {
	home := homeDir()
	tests := []struct {
		input string
		want  string
	}{
		{"~/Music", filepath.Join(home, "Music")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"~notslash", "~notslash"},
	}

	for _, tt := range tests {
		got := ExpandHome(tt.input)
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
