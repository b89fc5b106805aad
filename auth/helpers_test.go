package auth

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/ghsign"
	"github.com/randalmurphal/ghsign/testutil"
)

func testEnv(t *testing.T, pub *testutil.Publisher) ghsign.Environment {
	t.Helper()

	home := t.TempDir()
	env := ghsign.Environment{
		Home:            home,
		CacheDir:        filepath.Join(home, ".cache"),
		DefaultKeyPaths: []string{filepath.Join(home, ".ssh", "id_rsa")},
		Logger:          slog.New(slog.DiscardHandler),
	}
	if pub != nil {
		env.Publisher = pub
	}
	return env
}

// keyPair returns a signer holding k's private key and a verifier that
// fetches the user's keys from bodies.
func keyPair(t *testing.T, username string, k *testutil.RSAKey, bodies map[string]string) (*ghsign.Signer, *ghsign.Verifier) {
	t.Helper()

	pub := testutil.NewPublisher(bodies)
	env := testEnv(t, pub)
	signer := ghsign.NewSigner(username, ghsign.WithEnvironment(env), ghsign.WithKeys(k.PrivatePEM))
	verifier := ghsign.NewVerifier(username, ghsign.WithEnvironment(env))
	return signer, verifier
}

var errFetch = errors.New("connection reset")

type brokenVerifier struct{ username string }

func (v brokenVerifier) Verify(context.Context, []byte, []byte) (bool, error) {
	return false, errFetch
}

func (v brokenVerifier) Username() string { return v.username }

type anonymousSigner struct{}

func (anonymousSigner) Sign(context.Context, []byte) ([]byte, error) { return []byte("sig"), nil }
func (anonymousSigner) Username() string                             { return "" }
