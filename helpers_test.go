package ghsign

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/ssh/agent"

	"github.com/randalmurphal/ghsign/auth/ssh"
	"github.com/randalmurphal/ghsign/store"
	"github.com/randalmurphal/ghsign/testutil"
)

const defaultTestTimeout = 30 * time.Second

// testEnv builds an Environment rooted in a temp dir. A non-nil ring is
// reachable through a fake agent socket.
func testEnv(t *testing.T, ring agent.Agent, pub *testutil.Publisher) Environment {
	t.Helper()

	home := t.TempDir()
	env := Environment{
		Home:            home,
		CacheDir:        filepath.Join(home, ".cache"),
		DefaultKeyPaths: []string{filepath.Join(home, ".ssh", "id_rsa"), filepath.Join(home, ".ssh", "id_dsa")},
		Logger:          slog.New(slog.DiscardHandler),
	}
	if pub != nil {
		env.Publisher = pub
	}
	if ring != nil {
		env.AgentSocket = filepath.Join(home, "agent.sock")
		env.DialAgent = func(string) (*ssh.AgentConnection, error) {
			return ssh.NewAgentConnection(ring), nil
		}
	}
	return env
}

// writeDefaultKey installs data as ~/.ssh/id_rsa in env.
func writeDefaultKey(t *testing.T, env Environment, data []byte) {
	t.Helper()

	path := env.DefaultKeyPaths[0]
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		t.Fatalf("create .ssh: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write default key: %v", err)
	}
}

// loadRecord reads the resolution record written under env.
func loadRecord(t *testing.T, env Environment) *store.Record {
	t.Helper()

	rec, err := store.NewFile(env.CacheDir).Load()
	if err != nil {
		t.Fatalf("load record: %v", err)
	}
	return rec
}

// requireAgentSigning skips tests that need agent signatures in builds whose
// digest the agent cannot produce.
func requireAgentSigning(t *testing.T) {
	t.Helper()
	if ssh.AgentFormat == "" {
		t.Skip("agent signing unsupported with this digest")
	}
}

// failingAgent is an agent whose List always fails.
type failingAgent struct {
	agent.Agent
	err error
}

func (a failingAgent) List() ([]*agent.Key, error) {
	return nil, a.err
}

// failingStore loads nothing and fails every save.
type failingStore struct {
	err error
}

func (failingStore) Load() (*store.Record, error) { return nil, store.ErrNotFound }
func (s failingStore) Save(*store.Record) error   { return s.err }
