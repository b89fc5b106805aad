package ghsign

import (
	"context"
	"crypto/rsa"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/randalmurphal/ghsign/auth/ssh"
	"github.com/randalmurphal/ghsign/flight"
)

// signerMode is how a Signer produces signatures.
type signerMode int

const (
	// modeAgent resolves an agent identity and asks the agent to sign.
	modeAgent signerMode = iota

	// modeDirect signs with a private key held in memory.
	modeDirect
)

// Signer signs data as a GitHub user.
//
// A Signer given a private key, or created where there is no SSH agent but a
// default key file exists, signs with that key. Otherwise it signs through
// the agent with the identity matching one of the user's published keys. If
// no identity matches and a default key file exists, the Signer switches to
// that key for the rest of its life.
//
// Construction never fails; problems with the supplied keys are reported by
// every Sign call.
type Signer struct {
	username string
	env      Environment
	logger   *slog.Logger
	err      error

	mu       sync.Mutex
	mode     signerMode
	direct   *flight.Cache[*rsa.PrivateKey]
	resolver *Resolver
}

// NewSigner creates a Signer for username. A username containing a newline
// is taken to be a key, as if passed with WithKeys.
func NewSigner(username string, opts ...Option) *Signer {
	if strings.Contains(username, "\n") {
		opts = append(opts, WithKeys([]byte(username)))
		username = ""
	}

	o := buildOptions(opts)
	s := &Signer{
		username: username,
		env:      *o.env,
		logger:   o.env.Logger.With("username", username),
	}

	keys := make([]string, 0, len(o.keys))
	for _, key := range o.keys {
		pem, err := ssh.ToPEM(key)
		if err != nil {
			s.err = &FormatError{Line: firstLine(key), Err: err}
			return s
		}
		keys = append(keys, pem)
	}

	switch {
	case len(keys) > 0 && !ssh.IsPublicKey(keys[0]):
		private := []byte(keys[0])
		s.setDirect(func() ([]byte, error) { return private, nil })
		return s
	case s.env.AgentSocket == "":
		if path := s.env.DefaultKeyPath(); path != "" {
			s.setDirect(readKeyFile(path))
			return s
		}
	}

	var allowlist []string
	if len(keys) > 0 {
		allowlist = publicOnly(keys)
	}
	s.mode = modeAgent
	s.resolver = newResolver(username, allowlist, o)
	return s
}

// Username returns the user the Signer signs for.
func (s *Signer) Username() string {
	return s.username
}

// Sign returns the signature of data.
func (s *Signer) Sign(ctx context.Context, data []byte) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}

	s.mu.Lock()
	mode, direct := s.mode, s.direct
	s.mu.Unlock()

	if mode == modeDirect {
		return signDirect(ctx, direct, data)
	}

	res, err := s.resolver.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if res.Deferred {
		return signDirect(ctx, s.downgrade(res.KeyPath), data)
	}
	return s.resolver.sign(ctx, res.Identity, data)
}

// SignString returns the signature of data rendered with enc.
func (s *Signer) SignString(ctx context.Context, data []byte, enc Encoding) (string, error) {
	sig, err := s.Sign(ctx, data)
	if err != nil {
		return "", err
	}
	return enc.Encode(sig), nil
}

// Close releases the agent connection, if one was opened.
func (s *Signer) Close() error {
	if s.resolver == nil {
		return nil
	}
	return s.resolver.Close()
}

// downgrade switches an agent-backed Signer to the key file at path, the one
// the resolver found. It runs once; later calls return the key already
// installed.
func (s *Signer) downgrade(path string) *flight.Cache[*rsa.PrivateKey] {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == modeAgent {
		s.logger.Debug("falling back to default private key", "path", path)
		s.mode = modeDirect
		s.direct = newDirectKey(readKeyFile(path))
	}
	return s.direct
}

func (s *Signer) setDirect(material func() ([]byte, error)) {
	s.mode = modeDirect
	s.direct = newDirectKey(material)
}

// newDirectKey parses private key material on first use. Failures are not
// memoized, so an encrypted key fails every call.
func newDirectKey(material func() ([]byte, error)) *flight.Cache[*rsa.PrivateKey] {
	return flight.New(func(context.Context) (*rsa.PrivateKey, error) {
		data, err := material()
		if err != nil {
			return nil, err
		}

		key, err := ssh.ParseRSAPrivateKey(data)
		if errors.Is(err, ssh.ErrPassphraseRequired) {
			return nil, ErrEncryptedKey
		}
		if err != nil {
			return nil, &FormatError{Err: err}
		}
		return key, nil
	})
}

func signDirect(ctx context.Context, direct *flight.Cache[*rsa.PrivateKey], data []byte) ([]byte, error) {
	key, err := direct.Get(ctx)
	if err != nil {
		return nil, err
	}
	return ssh.SignPKCS1(key, data)
}

func readKeyFile(path string) func() ([]byte, error) {
	return func() ([]byte, error) {
		if path == "" {
			return nil, &StoreError{Path: "default private key", Err: os.ErrNotExist}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &StoreError{Path: path, Err: err}
		}
		return data, nil
	}
}

func publicOnly(keys []string) []string {
	public := make([]string, 0, len(keys))
	for _, k := range keys {
		if ssh.IsPublicKey(k) {
			public = append(public, k)
		}
	}
	return public
}

// firstLine returns key's first line, for error messages that must not leak
// private key bodies.
func firstLine(key []byte) string {
	line, _, _ := strings.Cut(strings.TrimSpace(string(key)), "\n")
	return line
}
