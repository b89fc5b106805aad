package ssh

import "errors"

// SSH key errors.
var (
	// ErrNoSSHAgent is returned when no agent socket is configured.
	ErrNoSSHAgent = errors.New("ssh-agent not available")

	// ErrInvalidKeyFormat is returned when a key line or PEM block cannot be parsed.
	ErrInvalidKeyFormat = errors.New("invalid SSH key format")

	// ErrUnsupportedKeyType is returned for well-formed keys that are not RSA.
	ErrUnsupportedKeyType = errors.New("unsupported key type")

	// ErrPassphraseRequired is returned when private key material is encrypted.
	ErrPassphraseRequired = errors.New("private key is passphrase protected")

	// ErrAgentSigningUnsupported is returned when the agent cannot produce
	// signatures with this build's digest.
	ErrAgentSigningUnsupported = errors.New("agent cannot sign with the configured digest")
)
