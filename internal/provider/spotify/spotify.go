package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"

	"spotmeta/internal/logger"
	"spotmeta/internal/secret"
)

const (
	// DefaultClientIDName and DefaultClientSecretName are the secret names
	// looked up through the provider.
	DefaultClientIDName     = "spotify_client_id"
	DefaultClientSecretName = "spotify_client_secret"

	DefaultMarket  = "US"
	DefaultTimeout = 10 * time.Second

	defaultTokenURL = "https://accounts.spotify.com/api/token"
	defaultAPIURL   = "https://api.spotify.com/v1"

	// Tokens are treated as expired this long before the server says so.
	tokenExpiryLeeway = 60 * time.Second
)

// Client is a Spotify Web API client using the client-credentials flow.
//
// Credentials are read from the secret provider the first time a token is
// needed. The token is cached for the lifetime of the Client and replaced
// once it expires. A Client is safe for concurrent use.
type Client struct {
	secrets          secret.Provider
	httpClient       *http.Client
	logger           *logger.Logger
	market           string
	clientIDName     string
	clientSecretName string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time // zero when the server sent no lifetime
	tokenGroup  singleflight.Group

	cacheMu    sync.Mutex
	genreCache map[string][]string // artist ID → genres

	tokenURL string
	apiURL   string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client used for all requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.httpClient
			hc.Timeout = d
			c.httpClient = &hc
		}
	}
}

// WithLogger sets the logger that receives request failures.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMarket sets the market passed to detail lookups. An empty market
// omits the parameter.
func WithMarket(market string) Option {
	return func(c *Client) { c.market = market }
}

// WithCredentialNames overrides the secret names of the client id and secret.
func WithCredentialNames(clientID, clientSecret string) Option {
	return func(c *Client) {
		if clientID != "" {
			c.clientIDName = clientID
		}
		if clientSecret != "" {
			c.clientSecretName = clientSecret
		}
	}
}

// WithEndpoints points the client at a different token endpoint and API base
// URL, e.g. a test server.
func WithEndpoints(tokenURL, apiURL string) Option {
	return func(c *Client) {
		c.tokenURL = tokenURL
		c.apiURL = strings.TrimSuffix(apiURL, "/")
	}
}

// New creates a Client that reads its credentials from secrets.
func New(secrets secret.Provider, opts ...Option) *Client {
	c := &Client{
		secrets:          secrets,
		httpClient:       &http.Client{Timeout: DefaultTimeout},
		logger:           logger.New(false),
		market:           DefaultMarket,
		clientIDName:     DefaultClientIDName,
		clientSecretName: DefaultClientSecretName,
		genreCache:       make(map[string][]string),
		tokenURL:         defaultTokenURL,
		apiURL:           defaultAPIURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return "spotify" }

// ensureToken returns the cached token or acquires a new one. Concurrent
// callers share a single acquisition. The shared acquisition is detached from
// any one caller's cancellation and bounded by the request timeout instead;
// each caller still stops waiting when its own ctx is done.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	if token, ok := c.cachedToken(); ok {
		return token, nil
	}

	ch := c.tokenGroup.DoChan("token", func() (interface{}, error) {
		if token, ok := c.cachedToken(); ok {
			return token, nil
		}
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.requestTimeout())
		defer cancel()
		return c.fetchToken(fetchCtx)
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// requestTimeout is the bound applied to one HTTP exchange.
func (c *Client) requestTimeout() time.Duration {
	if c.httpClient.Timeout > 0 {
		return c.httpClient.Timeout
	}
	return DefaultTimeout
}

func (c *Client) cachedToken() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken == "" {
		return "", false
	}
	if !c.tokenExpiry.IsZero() && !time.Now().Before(c.tokenExpiry) {
		return "", false
	}
	return c.accessToken, true
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	clientID, clientSecret, err := c.credentials(ctx)
	if err != nil {
		return "", err
	}

	cfg := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     c.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	tokenClient := &http.Client{
		Transport: &basicAuthTransport{
			clientID:     clientID,
			clientSecret: clientSecret,
			base:         c.httpClient.Transport,
		},
		Timeout: c.httpClient.Timeout,
	}
	tok, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, tokenClient))
	if err != nil {
		c.logger.Error("Failed to obtain Spotify access token: %v", err)
		return "", fmt.Errorf("%w: %w", ErrTokenUnavailable, err)
	}

	c.mu.Lock()
	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Time{}
	if !tok.Expiry.IsZero() {
		c.tokenExpiry = tok.Expiry.Add(-tokenExpiryLeeway)
	}
	c.mu.Unlock()

	c.logger.Debug("Obtained Spotify access token")
	return tok.AccessToken, nil
}

// credentials reads the client id and secret. Absent or empty values yield a
// MissingCredentialsError naming every missing secret.
func (c *Client) credentials(ctx context.Context) (string, string, error) {
	var missing []string
	read := func(name string) (string, error) {
		v, ok, err := c.secrets.Lookup(ctx, name)
		if err != nil {
			return "", fmt.Errorf("failed to read %s from %s secrets: %w", name, c.secrets.Name(), err)
		}
		if !ok || v == "" {
			missing = append(missing, name)
		}
		return v, nil
	}

	clientID, err := read(c.clientIDName)
	if err != nil {
		return "", "", err
	}
	clientSecret, err := read(c.clientSecretName)
	if err != nil {
		return "", "", err
	}
	if len(missing) > 0 {
		return "", "", &MissingCredentialsError{Provider: c.secrets.Name(), Names: missing}
	}
	return clientID, clientSecret, nil
}

// get performs an authenticated GET against the API and decodes the JSON body
// into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return err
	}

	reqURL := c.apiURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.doWithRetry(req)
	if err != nil {
		return fmt.Errorf("spotify %s request failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode spotify %s response: %w", path, err)
	}
	return nil
}

// doWithRetry executes the request, retrying once on 429 after the delay the
// server asks for. A delay longer than the request timeout is not waited
// out; the 429 response is returned instead.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}

	delay := retryAfter(resp.Header.Get("Retry-After"))
	if delay > c.requestTimeout() {
		c.logger.Debug("Rate limited by Spotify, Retry-After %s exceeds the request timeout", delay)
		return resp, nil
	}
	resp.Body.Close()
	c.logger.Debug("Rate limited by Spotify, retrying in %s", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-req.Context().Done():
		return nil, req.Context().Err()
	case <-timer.C:
	}

	return c.httpClient.Do(req.Clone(req.Context()))
}

// retryAfter parses a Retry-After value in seconds. Missing or malformed
// values mean one second, negative values mean no wait.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return time.Second
	}
	if secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// basicAuthTransport sends the client credentials as
// "Basic base64(id:secret)" with the raw values. oauth2's header style
// form-encodes them first, which changes credentials containing reserved
// characters.
type basicAuthTransport struct {
	clientID     string
	clientSecret string
	base         http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.SetBasicAuth(t.clientID, t.clientSecret)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}
