package ghsign

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/ghsign/publisher"
	"github.com/randalmurphal/ghsign/store"
	"github.com/randalmurphal/ghsign/testutil"
)

func TestDefaultEnvironment(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("SSH_AUTH_SOCK", "/tmp/agent.sock")

	env := DefaultEnvironment()

	if env.Home != home {
		t.Errorf("Home = %q, want %q", env.Home, home)
	}
	if env.AgentSocket != "/tmp/agent.sock" {
		t.Errorf("AgentSocket = %q", env.AgentSocket)
	}
	if env.CacheDir != filepath.Join(home, ".cache") {
		t.Errorf("CacheDir = %q", env.CacheDir)
	}
	want := []string{filepath.Join(home, ".ssh", "id_rsa"), filepath.Join(home, ".ssh", "id_dsa")}
	if len(env.DefaultKeyPaths) != 2 || env.DefaultKeyPaths[0] != want[0] || env.DefaultKeyPaths[1] != want[1] {
		t.Errorf("DefaultKeyPaths = %v, want %v", env.DefaultKeyPaths, want)
	}
	if _, ok := env.Publisher.(*publisher.Web); !ok {
		t.Errorf("Publisher = %T, want *publisher.Web", env.Publisher)
	}
	f, ok := env.Store.(*store.File)
	if !ok {
		t.Fatalf("Store = %T, want *store.File", env.Store)
	}
	if f.Path() != filepath.Join(home, ".cache", store.DefaultFileName) {
		t.Errorf("Store path = %q", f.Path())
	}
	if env.DialAgent == nil || env.Logger == nil {
		t.Error("DialAgent and Logger should be set")
	}
}

func TestEnvironment_WithDefaultsWithoutHome(t *testing.T) {
	env := Environment{}.withDefaults()

	if env.CacheDir != "" || env.DefaultKeyPaths != nil {
		t.Errorf("unexpected paths: %q %v", env.CacheDir, env.DefaultKeyPaths)
	}
	if _, err := env.Store.Load(); err != store.ErrNotFound {
		t.Errorf("Load = %v, want ErrNotFound", err)
	}
	if err := env.Store.Save(&store.Record{}); err != nil {
		t.Errorf("Save = %v", err)
	}
}

func TestEnvironment_DefaultKeyPath(t *testing.T) {
	env := testEnv(t, nil, testutil.NewPublisher(nil))

	if got := env.DefaultKeyPath(); got != "" {
		t.Errorf("DefaultKeyPath = %q, want empty", got)
	}

	dsa := env.DefaultKeyPaths[1]
	if err := os.MkdirAll(filepath.Dir(dsa), 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dsa, []byte("key"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := env.DefaultKeyPath(); got != dsa {
		t.Errorf("DefaultKeyPath = %q, want id_dsa", got)
	}

	writeDefaultKey(t, env, []byte("key"))
	if got := env.DefaultKeyPath(); got != env.DefaultKeyPaths[0] {
		t.Errorf("DefaultKeyPath = %q, want id_rsa first", got)
	}
}

func TestEnvironment_DefaultKeyPathIgnoresDirectories(t *testing.T) {
	env := testEnv(t, nil, testutil.NewPublisher(nil))
	if err := os.MkdirAll(env.DefaultKeyPaths[0], 0o700); err != nil {
		t.Fatal(err)
	}

	if got := env.DefaultKeyPath(); got != "" {
		t.Errorf("DefaultKeyPath = %q, want empty", got)
	}
}

func TestBuildOptions_Overrides(t *testing.T) {
	env := testEnv(t, nil, testutil.NewPublisher(nil))
	other := testutil.NewPublisher(map[string]string{"octocat": ""})
	st := failingStore{}

	o := buildOptions([]Option{WithEnvironment(env), WithPublisher(other), WithStore(st)})

	if o.env.Publisher != other {
		t.Error("WithPublisher not applied")
	}
	if o.env.Store != st {
		t.Error("WithStore not applied")
	}
	if o.keySet == nil || o.keySet.publisher != other {
		t.Error("KeySet should use the overriding publisher")
	}
}
