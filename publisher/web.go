package publisher

import (
	"context"
	"net/url"
	"time"

	ghhttp "github.com/randalmurphal/ghsign/http"
)

// DefaultWebURL is where GitHub serves users' public keys.
const DefaultWebURL = "https://github.com"

// DefaultUserAgent identifies ghsign to publishers.
const DefaultUserAgent = "ghsign"

// WebConfig configures a Web publisher.
type WebConfig struct {
	// BaseURL is the host serving /<user>.keys. Defaults to DefaultWebURL.
	BaseURL string

	// Timeout bounds each request. Defaults to http.DefaultTimeout.
	Timeout time.Duration

	// Attempts is the number of tries for transient failures. Defaults to 1.
	Attempts int
}

// Web fetches keys from the plain-text /<user>.keys endpoint.
type Web struct {
	client *ghhttp.Client
}

// NewWeb creates a Web publisher.
func NewWeb(cfg WebConfig) *Web {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultWebURL
	}
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	clientCfg := ghhttp.ClientConfig{
		BaseURL:     base,
		ServiceName: serviceName(base),
		UserAgent:   DefaultUserAgent,
		MaxRetries:  attempts,
	}
	if cfg.Timeout > 0 {
		clientCfg.Client = newHTTPClient(cfg.Timeout)
	}

	return &Web{client: ghhttp.NewClient(clientCfg)}
}

// Fetch returns the body of /<username>.keys.
func (w *Web) Fetch(ctx context.Context, username string) (string, error) {
	return w.client.GetText(ctx, "/"+url.PathEscape(username)+".keys")
}
