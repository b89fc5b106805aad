package ghsign

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/randalmurphal/ghsign/auth/ssh"
	"github.com/randalmurphal/ghsign/publisher"
	"github.com/randalmurphal/ghsign/store"
)

// Store persists the identity resolution record. *store.File implements it.
type Store interface {
	Load() (*store.Record, error)
	Save(rec *store.Record) error
}

// AgentDialer opens a connection to the SSH agent at socket.
type AgentDialer func(socket string) (*ssh.AgentConnection, error)

// Environment holds the process state signers and verifiers depend on.
// Zero fields are filled from DefaultEnvironment-style defaults derived from
// the fields that are set.
type Environment struct {
	// Home is the user's home directory.
	Home string

	// CacheDir holds the resolution record. Defaults to Home/.cache.
	CacheDir string

	// AgentSocket is the SSH agent socket path; empty means no agent.
	AgentSocket string

	// DefaultKeyPaths are tried in order for a local private key.
	DefaultKeyPaths []string

	// Publisher serves users' public keys. Defaults to github.com/<user>.keys.
	Publisher publisher.Publisher

	// DialAgent connects to AgentSocket. Defaults to ssh.Dial.
	DialAgent AgentDialer

	// Store persists the resolution record. Defaults to a file in CacheDir.
	Store Store

	// Logger receives debug events. Defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultEnvironment reads the environment of the current process: $HOME,
// SSH_AUTH_SOCK, ~/.ssh/id_rsa then ~/.ssh/id_dsa, and ~/.cache.
func DefaultEnvironment() Environment {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}

	return Environment{
		Home:        home,
		AgentSocket: os.Getenv("SSH_AUTH_SOCK"),
	}.withDefaults()
}

// withDefaults fills unset fields.
func (e Environment) withDefaults() Environment {
	if e.CacheDir == "" && e.Home != "" {
		e.CacheDir = filepath.Join(e.Home, ".cache")
	}
	if e.DefaultKeyPaths == nil && e.Home != "" {
		e.DefaultKeyPaths = []string{
			filepath.Join(e.Home, ".ssh", "id_rsa"),
			filepath.Join(e.Home, ".ssh", "id_dsa"),
		}
	}
	if e.Publisher == nil {
		e.Publisher = publisher.NewWeb(publisher.WebConfig{})
	}
	if e.DialAgent == nil {
		e.DialAgent = ssh.Dial
	}
	if e.Store == nil && e.CacheDir != "" {
		e.Store = store.NewFile(e.CacheDir)
	}
	if e.Store == nil {
		e.Store = nopStore{}
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	return e
}

// DefaultKeyPath returns the first default private key file that exists,
// or "" if there is none.
func (e Environment) DefaultKeyPath() string {
	for _, path := range e.DefaultKeyPaths {
		info, err := os.Stat(path)
		if err == nil && info.Mode().IsRegular() {
			return path
		}
	}
	return ""
}

// nopStore never remembers anything; used when there is no cache directory.
type nopStore struct{}

func (nopStore) Load() (*store.Record, error) { return nil, store.ErrNotFound }
func (nopStore) Save(*store.Record) error     { return nil }
