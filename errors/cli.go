package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/randalmurphal/ghsign"
	"github.com/randalmurphal/ghsign/auth/ssh"
	ghhttp "github.com/randalmurphal/ghsign/http"
)

// CLIError wraps an error with user-friendly context and suggestions.
type CLIError struct {
	// Err is the underlying error
	Err error

	// Message is a user-friendly description of what went wrong
	Message string

	// Suggestion is an actionable hint for the user
	Suggestion string

	// Details provides additional context (optional)
	Details string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// ErrorMessenger provides customizable error messages.
// Implement this interface to customize suggestions for your tool.
type ErrorMessenger interface {
	// KeysNotFoundMessage returns the message and suggestion when a user
	// has no published keys or does not exist.
	KeysNotFoundMessage(username string) (message, suggestion string)

	// RateLimitMessage returns the message and suggestion when a publisher
	// rate limited the key fetch. retryAfter is zero when unknown.
	RateLimitMessage(service string, retryAfter time.Duration) (message, suggestion string)

	// EncryptedKeyMessage returns the message and suggestion for
	// passphrase-protected private keys.
	EncryptedKeyMessage() (message, suggestion string)

	// NoMatchingIdentityMessage returns the message and suggestion when no
	// agent identity matches the user's published keys.
	NoMatchingIdentityMessage() (message, suggestion string)

	// AgentUnavailableMessage returns the message and suggestion when no
	// SSH agent can be reached.
	AgentUnavailableMessage() (message, suggestion string)

	// MalformedKeyMessage returns the message and suggestion for key
	// material that does not parse.
	MalformedKeyMessage() (message, suggestion string)

	// ConnectionErrorMessage returns the message and suggestion for
	// network failures while fetching keys.
	ConnectionErrorMessage() (message, suggestion string)
}

// DefaultMessenger provides default error messages.
type DefaultMessenger struct{}

func (m DefaultMessenger) KeysNotFoundMessage(username string) (string, string) {
	return fmt.Sprintf("No public keys found for %s.", username),
		"Check the username and that an RSA key is added at https://github.com/settings/keys"
}

func (m DefaultMessenger) RateLimitMessage(service string, retryAfter time.Duration) (string, string) {
	msg := fmt.Sprintf("The %s API rate limit was exceeded.", service)
	if retryAfter > 0 {
		msg = fmt.Sprintf("The %s API rate limit was exceeded; it resets in %s.", service, retryAfter.Round(time.Second))
	}
	return msg, "Set github_token (or GHSIGN_GITHUB_TOKEN) to raise the limit."
}

func (m DefaultMessenger) EncryptedKeyMessage() (string, string) {
	return "Your private key is passphrase protected.",
		"Load it into your agent with 'ssh-add' or use a decrypted copy."
}

func (m DefaultMessenger) NoMatchingIdentityMessage() (string, string) {
	return "None of the keys in your SSH agent match your published keys.",
		"Check that:\n  - The right key is loaded ('ssh-add -l')\n  - Its public half is uploaded to your account"
}

func (m DefaultMessenger) AgentUnavailableMessage() (string, string) {
	return "Cannot reach an SSH agent.",
		"Start one with 'eval $(ssh-agent)' or set SSH_AUTH_SOCK."
}

func (m DefaultMessenger) MalformedKeyMessage() (string, string) {
	return "A key could not be parsed.",
		"Keys must be OpenSSH public key lines or PEM-encoded RSA keys."
}

func (m DefaultMessenger) ConnectionErrorMessage() (string, string) {
	return "Cannot fetch public keys.",
		"Check your network connection and the github_url setting, then try again."
}

// WrapConfig configures error wrapping behavior.
type WrapConfig struct {
	Messenger ErrorMessenger
}

// Option configures WrapConfig.
type Option func(*WrapConfig)

// WithMessenger sets a custom error messenger.
func WithMessenger(m ErrorMessenger) Option {
	return func(c *WrapConfig) {
		c.Messenger = m
	}
}

func getMessenger(opts []Option) ErrorMessenger {
	cfg := &WrapConfig{
		Messenger: DefaultMessenger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg.Messenger
}

// Explain wraps a ghsign error with user-facing guidance. Errors it does not
// recognize are returned unchanged. The result still matches the original
// error with errors.Is and errors.As.
func Explain(err error, opts ...Option) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	messenger := getMessenger(opts)
	wrap := func(msg, suggestion string) error {
		return &CLIError{Err: err, Message: msg, Suggestion: suggestion}
	}

	var rate *ghhttp.RateLimitError
	var fetch *ghsign.KeyFetchError
	switch {
	case errors.As(err, &rate):
		return wrap(messenger.RateLimitMessage(rate.Service, rate.RetryAfter))
	case errors.As(err, &fetch) && fetch.StatusCode == http.StatusNotFound:
		return wrap(messenger.KeysNotFoundMessage(fetch.Username))
	case ghsign.IsEncryptedKey(err):
		return wrap(messenger.EncryptedKeyMessage())
	case ghsign.IsNoMatchingIdentity(err):
		return wrap(messenger.NoMatchingIdentityMessage())
	case errors.Is(err, ssh.ErrNoSSHAgent), isAgentDialError(err):
		return wrap(messenger.AgentUnavailableMessage())
	case ghsign.IsFormatError(err):
		msg, suggestion := messenger.MalformedKeyMessage()
		return &CLIError{Err: err, Message: msg, Details: err.Error(), Suggestion: suggestion}
	case ghsign.IsKeyFetchError(err) && IsConnectionError(err):
		msg, suggestion := messenger.ConnectionErrorMessage()
		return &CLIError{Err: fmt.Errorf("%w: %w", ErrConnectionFailed, err), Message: msg, Suggestion: suggestion}
	}
	return err
}

func isAgentDialError(err error) bool {
	var agentErr *ghsign.AgentError
	return errors.As(err, &agentErr) && agentErr.Op == "dial"
}
