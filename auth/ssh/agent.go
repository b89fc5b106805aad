package ssh

import (
	"bytes"
	"fmt"
	"io"
	"net"

	gossh "golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// Identity is a key held by an SSH agent, referenced by its public half.
type Identity struct {
	// Type is the key algorithm reported by the agent (e.g., "ssh-rsa").
	Type string

	// Blob is the SSH wire encoding of the public key.
	Blob []byte

	// Comment is the agent's comment for the key, usually a file path.
	Comment string
}

// Fingerprint returns the SHA256 fingerprint of the identity's key.
func (id *Identity) Fingerprint() string {
	return Fingerprint(id.Blob)
}

// Matches reports whether id has the given type and wire blob.
func (id *Identity) Matches(keyType string, blob []byte) bool {
	return id.Type == keyType && bytes.Equal(id.Blob, blob)
}

// IdentityToPEM converts an agent identity to a PKIX PEM public key.
func IdentityToPEM(id *Identity) (string, error) {
	key, err := gossh.ParsePublicKey(id.Blob)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKeyFormat, err)
	}
	return PublicKeyToPEM(key)
}

// Signature is an agent-produced signature.
type Signature struct {
	// Format is the signature algorithm (e.g., "ssh-rsa").
	Format string

	// Blob is the raw signature, for RSA a PKCS#1 v1.5 signature.
	Blob []byte
}

// AgentConnection wraps an SSH agent with its underlying connection
// for proper resource cleanup.
type AgentConnection struct {
	agent agent.Agent
	conn  io.Closer
}

// NewAgentConnection wraps an existing agent, such as an in-memory keyring.
func NewAgentConnection(ag agent.Agent) *AgentConnection {
	return &AgentConnection{agent: ag}
}

// Dial connects to the SSH agent listening on socket.
// The returned AgentConnection should be closed when done to avoid resource leaks.
func Dial(socket string) (*AgentConnection, error) {
	if socket == "" {
		return nil, ErrNoSSHAgent
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("connect to ssh-agent: %w", err)
	}

	return &AgentConnection{
		agent: agent.NewClient(conn),
		conn:  conn,
	}, nil
}

// Close closes the underlying connection to the SSH agent.
func (a *AgentConnection) Close() error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

// List returns the identities currently held by the agent.
func (a *AgentConnection) List() ([]*Identity, error) {
	keys, err := a.agent.List()
	if err != nil {
		return nil, fmt.Errorf("list agent keys: %w", err)
	}

	ids := make([]*Identity, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, &Identity{
			Type:    key.Format,
			Blob:    key.Blob,
			Comment: key.Comment,
		})
	}
	return ids, nil
}

// Sign asks the agent to sign data with id. The signature format must be
// AgentFormat, otherwise the result could not be checked by VerifyPKCS1.
func (a *AgentConnection) Sign(id *Identity, data []byte) (*Signature, error) {
	if AgentFormat == "" {
		return nil, ErrAgentSigningUnsupported
	}

	key, err := gossh.ParsePublicKey(id.Blob)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyFormat, err)
	}

	sig, err := a.agent.Sign(key, data)
	if err != nil {
		return nil, fmt.Errorf("sign data: %w", err)
	}
	if sig.Format != AgentFormat {
		return nil, fmt.Errorf("%w: agent returned %s", ErrAgentSigningUnsupported, sig.Format)
	}

	return &Signature{Format: sig.Format, Blob: sig.Blob}, nil
}
