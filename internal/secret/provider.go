package secret

import (
	"context"
	"strings"

	"spotmeta/internal/logger"
)

// Provider looks up secrets by name.
//
// Lookup returns ok=false when the source has no secret with that name. An
// error means the source itself could not be consulted.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, name string) (value string, ok bool, err error)
	Close() error
}

// Type selects a Provider implementation.
type Type string

const (
	TypeDotenv      Type = "dotenv"
	TypeColab       Type = "colab"
	TypeGoogleCloud Type = "google_cloud"
	TypeAzure       Type = "azure"
)

var knownTypes = []Type{TypeDotenv, TypeColab, TypeGoogleCloud, TypeAzure}

// ParseType converts a configuration string into a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range knownTypes {
		if t == known {
			return t, nil
		}
	}
	return "", &UnsupportedProviderError{Type: s}
}

// Options carries the settings used by the individual providers. Fields that
// do not apply to the selected Type are ignored.
type Options struct {
	// EnvFile is the dotenv file path. Defaults to DefaultEnvFile.
	EnvFile string
	// HostStore is the notebook host's secret API, attached by the embedding
	// runtime.
	HostStore HostStore
	// Project is the Google Cloud project holding the secrets.
	Project string
	Logger  *logger.Logger
}

// New builds the provider for t.
func New(ctx context.Context, t Type, opts Options) (Provider, error) {
	log := opts.Logger
	if log == nil {
		log = logger.New(false)
	}

	switch t {
	case TypeDotenv:
		p, err := NewEnvFile(opts.EnvFile)
		if err != nil {
			return nil, err
		}
		return p, nil
	case TypeColab:
		return NewColab(opts.HostStore, log), nil
	case TypeGoogleCloud:
		p, err := NewGoogleCloud(ctx, opts.Project)
		if err != nil {
			return nil, err
		}
		return p, nil
	case TypeAzure:
		return nil, &UnsupportedProviderError{Type: string(t), Reserved: true}
	}
	return nil, &UnsupportedProviderError{Type: string(t)}
}
