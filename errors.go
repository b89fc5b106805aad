package ghsign

import (
	"context"
	"errors"
	"fmt"

	"github.com/randalmurphal/ghsign/auth/ssh"
	ghhttp "github.com/randalmurphal/ghsign/http"
)

// Error categories. Typed errors below unwrap to one of these, so callers can
// use errors.Is without knowing the concrete type.
var (
	// ErrKeyFetch indicates the user's published keys could not be retrieved.
	ErrKeyFetch = errors.New("public keys unavailable")

	// ErrFormat indicates key material that cannot be parsed.
	ErrFormat = errors.New("invalid key format")

	// ErrEncryptedKey indicates the only usable private key needs a passphrase.
	ErrEncryptedKey = errors.New("encrypted keys not supported, set up an SSH agent or decrypt the key first")

	// ErrNoMatchingIdentity indicates no agent identity matches a published key.
	ErrNoMatchingIdentity = errors.New("no corresponding local SSH private key found")

	// ErrAgent indicates a failure talking to the SSH agent.
	ErrAgent = errors.New("ssh-agent error")

	// ErrStore indicates local key material could not be read.
	ErrStore = errors.New("local key store error")

	// ErrDigestUnsupported indicates the agent cannot sign with this build's digest.
	ErrDigestUnsupported = ssh.ErrAgentSigningUnsupported
)

// KeyFetchError reports a failed fetch of a user's published keys.
type KeyFetchError struct {
	Username   string
	StatusCode int // HTTP status, 0 for transport failures
	Err        error
}

// Error implements the error interface.
func (e *KeyFetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("public keys for %s not found", e.Username)
	}
	return fmt.Sprintf("fetch public keys for %s: %v", e.Username, e.Err)
}

// Unwrap returns ErrKeyFetch and the underlying error.
func (e *KeyFetchError) Unwrap() []error {
	return []error{ErrKeyFetch, e.Err}
}

// newKeyFetchError wraps a publisher error, lifting the HTTP status if any.
func newKeyFetchError(username string, err error) *KeyFetchError {
	fetchErr := &KeyFetchError{Username: username, Err: err}

	var apiErr *ghhttp.APIError
	if errors.As(err, &apiErr) {
		fetchErr.StatusCode = apiErr.StatusCode
	}
	return fetchErr
}

// FormatError reports a key that could not be converted.
type FormatError struct {
	Line string // offending key line, empty for private key material
	Err  error
}

// Error implements the error interface.
func (e *FormatError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("invalid key %q: %v", e.Line, e.Err)
	}
	return "invalid private key: " + e.Err.Error()
}

// Unwrap returns ErrFormat and the underlying error.
func (e *FormatError) Unwrap() []error {
	return []error{ErrFormat, e.Err}
}

// AgentError wraps an SSH agent failure with the operation that failed.
type AgentError struct {
	Op  string // "dial", "list" or "sign"
	Err error
}

// Error implements the error interface.
func (e *AgentError) Error() string {
	return "ssh-agent " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns ErrAgent and the underlying error.
func (e *AgentError) Unwrap() []error {
	return []error{ErrAgent, e.Err}
}

// StoreError reports local key material that could not be read.
type StoreError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return "read " + e.Path + ": " + e.Err.Error()
}

// Unwrap returns ErrStore and the underlying error.
func (e *StoreError) Unwrap() []error {
	return []error{ErrStore, e.Err}
}

// IsKeyFetchError reports whether the published keys could not be retrieved.
func IsKeyFetchError(err error) bool {
	return errors.Is(err, ErrKeyFetch)
}

// IsFormatError reports whether key material failed to parse.
func IsFormatError(err error) bool {
	return errors.Is(err, ErrFormat)
}

// IsEncryptedKey reports whether signing failed on a passphrase-protected key.
func IsEncryptedKey(err error) bool {
	return errors.Is(err, ErrEncryptedKey)
}

// IsNoMatchingIdentity reports whether no agent identity matched.
func IsNoMatchingIdentity(err error) bool {
	return errors.Is(err, ErrNoMatchingIdentity)
}

// IsAgentError reports whether the SSH agent failed.
func IsAgentError(err error) bool {
	return errors.Is(err, ErrAgent)
}

// IsRetryable reports whether retrying the same call might succeed.
// Unknown users, bad keys and missing identities are permanent.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if ghhttp.IsRetryable(err) {
		return true
	}

	var fetchErr *KeyFetchError
	if errors.As(err, &fetchErr) {
		return fetchErr.StatusCode == 0
	}

	return errors.Is(err, ErrAgent) && !errors.Is(err, ErrDigestUnsupported)
}
