package errors

import (
	"errors"
	"strings"

	"github.com/randalmurphal/ghsign"
)

// IsConnectionError checks if an error is connection-related.
// This includes TLS errors, timeouts, and network connectivity issues.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrConnectionFailed) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	// Network connectivity
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp") {
		return true
	}
	// TLS/certificate errors
	if strings.Contains(errStr, "certificate") ||
		strings.Contains(errStr, "tls") ||
		strings.Contains(errStr, "x509") {
		return true
	}
	// Timeout errors
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// IsUserError reports whether the user must change something (a key, the
// agent, the username) before retrying can help.
func IsUserError(err error) bool {
	if err == nil {
		return false
	}
	return ghsign.IsEncryptedKey(err) ||
		ghsign.IsNoMatchingIdentity(err) ||
		ghsign.IsFormatError(err) ||
		(ghsign.IsKeyFetchError(err) && !ghsign.IsRetryable(err))
}
