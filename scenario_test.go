package ghsign_test

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/ghsign"
	"github.com/randalmurphal/ghsign/auth/ssh"
	"github.com/randalmurphal/ghsign/store"
	"github.com/randalmurphal/ghsign/testutil"
)

// TestScenario_AgentSignVerify walks through the common flow: octocat has two
// published keys, the agent holds the second, and a signature made through
// the agent verifies against the published keys.
func TestScenario_AgentSignVerify(t *testing.T) {
	if ssh.AgentFormat == "" {
		t.Skip("agent signing unsupported with this digest")
	}

	keys := testutil.RSAKeys(t, 2)
	pub := testutil.NewPublisher(map[string]string{"octocat": testutil.KeysBody(keys...)})
	ring := testutil.NewKeyring(t, keys[1])
	home := t.TempDir()

	env := ghsign.Environment{
		Home:        home,
		AgentSocket: filepath.Join(home, "agent.sock"),
		Publisher:   pub,
		DialAgent: func(string) (*ssh.AgentConnection, error) {
			return ssh.NewAgentConnection(ring), nil
		},
		Logger: slog.New(slog.DiscardHandler),
	}
	ctx := testutil.TestContext(t)

	resolver := ghsign.NewResolver("octocat", ghsign.WithEnvironment(env))
	res, err := resolver.Resolve(ctx)
	require.NoError(t, err)
	require.False(t, res.Deferred)
	assert.Equal(t, keys[1].SSH.Marshal(), res.Identity.Blob)

	signer := ghsign.NewSigner("octocat", ghsign.WithEnvironment(env))
	defer signer.Close()

	sig, err := signer.SignString(ctx, []byte("hello"), ghsign.Base64)
	require.NoError(t, err)

	verifier := ghsign.NewVerifier("octocat", ghsign.WithEnvironment(env))
	ok, err := verifier.VerifyString(ctx, []byte("hello"), sig, ghsign.Base64)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifier.VerifyString(ctx, []byte("goodbye"), sig, ghsign.Base64)
	require.NoError(t, err)
	assert.False(t, ok)

	rec, err := store.NewFile(filepath.Join(home, ".cache")).Load()
	require.NoError(t, err)
	assert.Equal(t, "octocat", rec.Username)
	assert.Equal(t, ssh.KeyTypeRSA, rec.Type)
}

// TestScenario_RoundTripWithPrivateKey signs with a key file's contents and
// verifies against the matching published key.
func TestScenario_RoundTripWithPrivateKey(t *testing.T) {
	keys := testutil.RSAKeys(t, 2)
	pub := testutil.NewPublisher(map[string]string{"octocat": testutil.KeysBody(keys...)})
	env := ghsign.Environment{
		Home:      t.TempDir(),
		Publisher: pub,
		Logger:    slog.New(slog.DiscardHandler),
	}
	ctx := testutil.TestContext(t)

	payloads := []string{"", "hello", "a longer payload\nwith newlines\x00and NULs"}
	signer := ghsign.NewSigner("octocat", ghsign.WithEnvironment(env), ghsign.WithKeys(keys[0].PrivatePEM))
	verifier := ghsign.NewVerifier("octocat", ghsign.WithEnvironment(env))

	for _, p := range payloads {
		sig, err := signer.Sign(ctx, []byte(p))
		require.NoError(t, err)

		ok, err := verifier.Verify(ctx, []byte(p), sig)
		require.NoError(t, err)
		assert.True(t, ok, "payload %q", p)
	}

	other := ghsign.NewVerifier("octocat", ghsign.WithEnvironment(env), ghsign.WithKeys([]byte(keys[1].PublicPEM)))
	sig, err := signer.Sign(ctx, []byte("hello"))
	require.NoError(t, err)
	ok, err := other.Verify(ctx, []byte("hello"), sig)
	require.NoError(t, err)
	assert.False(t, ok, "wrong key set must not verify")
}
