package secret

import (
	"context"
	"fmt"
	"os"

	"spotmeta/internal/logger"
)

// colabEnvVar is set by the Google Colab runtime in every kernel.
const colabEnvVar = "COLAB_RELEASE_TAG"

// HostStore is the secret API of a notebook host.
type HostStore interface {
	Lookup(ctx context.Context, name string) (string, bool, error)
}

// HostStoreFunc adapts a function to HostStore.
type HostStoreFunc func(ctx context.Context, name string) (string, bool, error)

func (f HostStoreFunc) Lookup(ctx context.Context, name string) (string, bool, error) {
	return f(ctx, name)
}

// InColab reports whether the process runs inside a Google Colab kernel.
func InColab() bool {
	_, ok := os.LookupEnv(colabEnvVar)
	return ok
}

// Colab serves secrets from the Colab user secret store.
type Colab struct {
	store HostStore
}

// NewColab wraps the host's secret store. It only warns when the runtime is
// not Colab; lookups fail there with a ConfigurationError.
func NewColab(store HostStore, log *logger.Logger) *Colab {
	if !InColab() && log != nil {
		log.Warn("The colab secret provider is intended to be used inside Google Colab")
	}
	return &Colab{store: store}
}

func (p *Colab) Name() string { return string(TypeColab) }

func (p *Colab) Lookup(ctx context.Context, name string) (string, bool, error) {
	if !InColab() {
		return "", false, &ConfigurationError{
			Provider: p.Name(),
			Reason:   "attempting to access Colab secrets outside of Google Colab",
		}
	}
	if p.store == nil {
		return "", false, &ConfigurationError{
			Provider: p.Name(),
			Reason:   "no host secret store attached",
		}
	}

	v, ok, err := p.store.Lookup(ctx, name)
	if err != nil {
		return "", false, fmt.Errorf("colab secret %q: %w", name, err)
	}
	return v, ok, nil
}

func (p *Colab) Close() error { return nil }
