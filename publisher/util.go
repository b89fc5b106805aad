package publisher

import (
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// serviceName derives a short publisher name from a base URL for errors.
func serviceName(base string) string {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return base
	}
	host := strings.TrimPrefix(u.Hostname(), "www.")
	if net.ParseIP(host) != nil {
		return host
	}
	if name, _, ok := strings.Cut(host, "."); ok {
		return name
	}
	return host
}

// joinKeys renders key lines the way /<user>.keys does.
func joinKeys(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	return strings.Join(keys, "\n") + "\n"
}
