package secret

import (
	"errors"
	"fmt"
)

// ConfigurationError reports a provider that cannot serve lookups in the
// current environment, e.g. the Colab store outside of Colab.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s secret provider: %s", e.Provider, e.Reason)
}

// UnsupportedProviderError is returned by ParseType and New for provider types
// they cannot build.
type UnsupportedProviderError struct {
	Type     string
	Reserved bool
}

func (e *UnsupportedProviderError) Error() string {
	if e.Reserved {
		return fmt.Sprintf("secret provider %q is reserved and not implemented yet", e.Type)
	}
	return fmt.Sprintf("unsupported secret provider type %q", e.Type)
}

// IsConfigurationError reports whether err is one of this package's
// configuration-class errors.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	var unsupported *UnsupportedProviderError
	return errors.As(err, &cfgErr) || errors.As(err, &unsupported)
}
