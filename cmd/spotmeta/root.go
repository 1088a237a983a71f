package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"spotmeta/internal/config"
	"spotmeta/internal/logger"
	"spotmeta/internal/provider/spotify"
	"spotmeta/internal/secret"
)

// app holds the state shared by all subcommands.
type app struct {
	configPath string
	provider   string
	envFile    string
	verbose    bool

	cfg config.Config
	log *logger.Logger

	// clientOpts are appended to the options derived from cfg.
	clientOpts []spotify.Option
}

func newApp() *app {
	return &app{}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "spotmeta",
		Short: "Look up Spotify catalog metadata and tag audio files",
		Long: `spotmeta resolves artist, album and track names to Spotify catalog IDs,
fetches catalog details and tags local audio files from the best match.

Client credentials are read from a secret provider: a dotenv file (default),
Google Colab user secrets, or Google Cloud Secret Manager. The colab provider
needs a host secret store, which only an embedding program can attach; from
this command it reports a configuration error.

Config file locations (checked in order):
  ./spotmeta.yaml
  ~/.config/spotmeta/config.yaml
  ~/.spotmeta.yaml

Every config field can be overridden with a SPOTMETA_* environment variable,
e.g. SPOTMETA_SECRET_PROVIDER=google_cloud.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.log != nil {
				return a.log.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to config file")
	flags.StringVar(&a.provider, "provider", "", "secret provider: dotenv, colab, google_cloud")
	flags.StringVar(&a.envFile, "env-file", "", "dotenv file holding the client credentials")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "show detailed output")

	root.AddCommand(
		newSearchCmd(a),
		newDetailsCmd(a),
		newTagCmd(a),
		newInitConfigCmd(a),
	)
	return root
}

// setup loads the configuration with precedence flags > environment > file >
// defaults and creates the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "init-config" {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.SecretProvider = a.provider
	}
	if flags.Changed("env-file") {
		cfg.EnvFile = config.ExpandHome(a.envFile)
	}
	if flags.Changed("verbose") {
		cfg.Verbose = a.verbose
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	a.cfg = cfg

	a.log = logger.New(cfg.Verbose)
	a.log.SetOutput(cmd.ErrOrStderr())
	if a.configPath == "" {
		a.configPath = config.FindConfigFile()
	}
	if a.configPath != "" {
		a.log.Debug("Loaded configuration from: %s", a.configPath)
	}
	return nil
}

// setupFileLog mirrors the log to a timestamped file unless running verbose.
func (a *app) setupFileLog(name string) {
	if a.cfg.Verbose {
		return
	}

	logDir := config.GetDefaultLogPath()
	if err := os.MkdirAll(logDir, 0755); err != nil {
		a.log.Warn("Failed to create log directory: %v", err)
		return
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("%s_%s.log", name, time.Now().Format("2006-01-02_15-04-05")))
	if err := a.log.SetFileLog(logFile); err != nil {
		a.log.Warn("Failed to setup file logging: %v", err)
		return
	}
	a.log.Debug("Logging to file: %s", logFile)
}

// newClient builds the secret provider selected by the configuration and a
// Spotify client reading credentials from it. The caller closes the provider.
func (a *app) newClient(ctx context.Context) (*spotify.Client, secret.Provider, error) {
	t, err := a.cfg.ProviderType()
	if err != nil {
		return nil, nil, err
	}

	opts := a.cfg.SecretOptions()
	opts.Logger = a.log

	secrets, err := secret.New(ctx, t, opts)
	if err != nil {
		return nil, nil, err
	}
	a.log.Debug("Using %s secret provider", secrets.Name())

	clientOpts := append([]spotify.Option{
		spotify.WithLogger(a.log),
		spotify.WithMarket(a.cfg.Market),
		spotify.WithTimeout(a.cfg.RequestTimeout),
		spotify.WithCredentialNames(a.cfg.ClientIDName, a.cfg.ClientSecretName),
	}, a.clientOpts...)

	return spotify.New(secrets, clientOpts...), secrets, nil
}

// stdout is where command results go; logs use stderr.
func stdout(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
