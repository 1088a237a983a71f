package spotify

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"spotmeta/internal/secret"
)

var (
	// ErrTokenUnavailable is returned when the token endpoint could not be
	// reached or refused the credentials. The failure is not cached.
	ErrTokenUnavailable = errors.New("spotify access token unavailable")

	// ErrNotFound is returned when a search has no results or a resource id
	// does not exist.
	ErrNotFound = errors.New("spotify: no matching result")

	// ErrUnsupportedKind is returned for entity kinds other than artist,
	// album and track.
	ErrUnsupportedKind = errors.New("unsupported spotify entity kind")
)

// MissingCredentialsError is returned before any network call when the
// provider has no client id or client secret.
type MissingCredentialsError struct {
	Provider string
	Names    []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("spotify credentials not found in %s secrets: %s", e.Provider, strings.Join(e.Names, ", "))
}

// APIError is a non-2xx response from the Web API.
type APIError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("spotify %s returned %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("spotify %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// Is makes a 404 response match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsConfigurationError reports whether err comes from missing or unusable
// credentials rather than from the network.
func IsConfigurationError(err error) bool {
	var missing *MissingCredentialsError
	return errors.As(err, &missing) || secret.IsConfigurationError(err)
}

// IsUnavailable reports whether err means "no result right now": no match,
// no token, or a failed request. Callers that only care whether a value is
// available can treat all of these alike.
func IsUnavailable(err error) bool {
	return err != nil && !IsConfigurationError(err) && !errors.Is(err, ErrUnsupportedKind)
}
