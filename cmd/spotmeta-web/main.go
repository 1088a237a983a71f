package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"spotmeta/internal/config"
	"spotmeta/internal/logger"
	"spotmeta/internal/provider/spotify"
	"spotmeta/internal/secret"
	"spotmeta/internal/shutdown"
	"spotmeta/internal/web"
)

func main() {
	var (
		port       int
		configPath string
		verbose    bool
	)

	flag.IntVar(&port, "port", 0, "HTTP server port (default: listen_port from config)")
	flag.StringVar(&configPath, "config", "", "Config file path")
	flag.BoolVar(&verbose, "verbose", false, "Log every request")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Config error: %v\n", err)
		os.Exit(1)
	}
	if port != 0 {
		cfg.ListenPort = port
	}
	if verbose {
		cfg.Verbose = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] Configuration error: %v\n", err)
		os.Exit(1)
	}

	l := logger.New(cfg.Verbose)
	logDir := config.GetDefaultLogPath()
	if err := os.MkdirAll(logDir, 0755); err == nil {
		logPath := filepath.Join(logDir, fmt.Sprintf("spotmeta-web-%d.log", time.Now().Unix()))
		if err := l.SetFileLog(logPath); err != nil {
			l.Warn("Failed to setup file logging: %v", err)
		}
	}
	defer l.Close()

	if err := run(cfg, l); err != nil {
		l.Error("%v", err)
		l.Close()
		os.Exit(1)
	}
}

func run(cfg config.Config, l *logger.Logger) error {
	sh := shutdown.New(context.Background())
	sh.Listen()
	defer sh.Shutdown()

	t, err := cfg.ProviderType()
	if err != nil {
		return err
	}
	opts := cfg.SecretOptions()
	opts.Logger = l
	secrets, err := secret.New(sh.Context(), t, opts)
	if err != nil {
		return fmt.Errorf("failed to create secret provider: %w", err)
	}
	sh.AddCleanup(func() { secrets.Close() })

	client := spotify.New(secrets,
		spotify.WithLogger(l),
		spotify.WithMarket(cfg.Market),
		spotify.WithTimeout(cfg.RequestTimeout),
		spotify.WithCredentialNames(cfg.ClientIDName, cfg.ClientSecretName),
	)

	jobMgr := web.NewJobManager()
	jobMgr.StartCleanup(sh.Context())
	server := web.NewServer(sh.Context(), jobMgr, client, l)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ListenPort),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		l.Info("Starting web server on port %d (%s secrets)", cfg.ListenPort, secrets.Name())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-sh.Context().Done():
	}

	l.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	l.Info("Server stopped")
	return nil
}
