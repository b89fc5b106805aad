package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/randalmurphal/ghsign"
	"github.com/randalmurphal/ghsign/publisher"
	"github.com/randalmurphal/ghsign/store"
)

// Configuration keys.
const (
	KeyPublisher    = "publisher"
	KeyGitHubURL    = "github_url"
	KeyGitHubAPIURL = "github_api_url"
	KeyGitHubToken  = "github_token"
	KeyGitLabURL    = "gitlab_url"
	KeyGitLabToken  = "gitlab_token"
	KeyCacheDir     = "cache_dir"
	KeySSHDir       = "ssh_dir"
	KeyAgentSocket  = "agent_socket"
	KeyTimeout      = "timeout"
	KeyEncoding     = "encoding"
)

// Publisher kinds accepted by KeyPublisher.
const (
	PublisherWeb    = "web"
	PublisherGitHub = "api"
	PublisherGitLab = "gitlab"
)

// EnvPrefix prefixes every environment override, e.g. GHSIGN_GITHUB_TOKEN.
const EnvPrefix = "GHSIGN_"

// Defaults are the built-in values of every key.
var Defaults = map[string]string{
	KeyPublisher:    PublisherWeb,
	KeyGitHubURL:    publisher.DefaultWebURL,
	KeyGitHubAPIURL: "",
	KeyGitHubToken:  "",
	KeyGitLabURL:    "",
	KeyGitLabToken:  "",
	KeyCacheDir:     "",
	KeySSHDir:       "",
	KeyAgentSocket:  "",
	KeyTimeout:      "30s",
	KeyEncoding:     string(ghsign.Base64),
}

// secretKeys may only live in the user's private global config.
var secretKeys = []string{KeyGitHubToken, KeyGitLabToken}

// allKeys returns every key, in a stable order.
func allKeys() []string {
	return []string{
		KeyPublisher, KeyGitHubURL, KeyGitHubAPIURL, KeyGitHubToken,
		KeyGitLabURL, KeyGitLabToken, KeyCacheDir, KeySSHDir,
		KeyAgentSocket, KeyTimeout, KeyEncoding,
	}
}

func localKeys() []string {
	var keys []string
	for _, k := range allKeys() {
		if !slices.Contains(secretKeys, k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// DefaultResolverConfig reads ~/.config/ghsign/config.yaml, .ghsign.yaml in
// the project root and GHSIGN_* variables. Tokens are refused in the local file.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		EnvPrefix:       EnvPrefix,
		GlobalConfigDir: "ghsign",
		LocalConfigName: ".ghsign.yaml",
		Defaults:        Defaults,
		ValidGlobalKeys: allKeys(),
		ValidLocalKeys:  localKeys(),
	}
}

// DefaultSaveConfig writes the files DefaultResolverConfig reads.
func DefaultSaveConfig() SaveConfig {
	return SaveConfig{
		GlobalConfigDir: "ghsign",
		LocalConfigName: ".ghsign.yaml",
		ValidGlobalKeys: allKeys(),
		ValidLocalKeys:  localKeys(),
	}
}

// Settings is the typed form of a resolved configuration.
type Settings struct {
	Publisher    string
	GitHubURL    string
	GitHubAPIURL string
	GitHubToken  string
	GitLabURL    string
	GitLabToken  string
	CacheDir     string
	SSHDir       string
	AgentSocket  string
	Timeout      time.Duration
	Encoding     ghsign.Encoding
}

// Load converts resolved values to Settings.
func Load(r *Resolved) (*Settings, error) {
	s := &Settings{
		Publisher:    strings.ToLower(r.Get(KeyPublisher)),
		GitHubURL:    r.Get(KeyGitHubURL),
		GitHubAPIURL: r.Get(KeyGitHubAPIURL),
		GitHubToken:  r.Get(KeyGitHubToken),
		GitLabURL:    r.Get(KeyGitLabURL),
		GitLabToken:  r.Get(KeyGitLabToken),
		CacheDir:     expandHome(r.Get(KeyCacheDir)),
		SSHDir:       expandHome(r.Get(KeySSHDir)),
		AgentSocket:  r.Get(KeyAgentSocket),
	}

	switch s.Publisher {
	case "", PublisherWeb, PublisherGitHub, PublisherGitLab:
	default:
		return nil, fmt.Errorf("%s: unknown publisher %q (want %s, %s or %s)",
			KeyPublisher, s.Publisher, PublisherWeb, PublisherGitHub, PublisherGitLab)
	}

	timeout, err := parseTimeout(r.Get(KeyTimeout))
	if err != nil {
		return nil, err
	}
	s.Timeout = timeout

	enc, err := ghsign.ParseEncoding(r.Get(KeyEncoding))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyEncoding, err)
	}
	s.Encoding = enc

	return s, nil
}

// LoadDefault resolves the default files and environment into Settings.
func LoadDefault() (*Settings, error) {
	return Load(NewResolver(DefaultResolverConfig()).Resolve())
}

// parseTimeout accepts a Go duration or a bare number of seconds.
func parseTimeout(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", KeyTimeout, err)
	}
	return d, nil
}

// NewPublisher builds the configured key publisher.
func (s *Settings) NewPublisher() (publisher.Publisher, error) {
	switch s.Publisher {
	case PublisherGitHub:
		return publisher.NewGitHub(publisher.GitHubConfig{
			Token:   s.GitHubToken,
			BaseURL: s.GitHubAPIURL,
		})
	case PublisherGitLab:
		return publisher.NewGitLab(publisher.GitLabConfig{
			Token:   s.GitLabToken,
			BaseURL: s.GitLabURL,
		})
	default:
		return publisher.NewWeb(publisher.WebConfig{
			BaseURL: s.GitHubURL,
			Timeout: s.Timeout,
		}), nil
	}
}

// Environment overlays the settings on the process environment.
func (s *Settings) Environment() (ghsign.Environment, error) {
	env := ghsign.DefaultEnvironment()

	pub, err := s.NewPublisher()
	if err != nil {
		return env, err
	}
	env.Publisher = pub

	if s.CacheDir != "" {
		env.CacheDir = s.CacheDir
		env.Store = store.NewFile(s.CacheDir)
	}
	if s.SSHDir != "" {
		env.DefaultKeyPaths = []string{
			filepath.Join(s.SSHDir, "id_rsa"),
			filepath.Join(s.SSHDir, "id_dsa"),
		}
	}
	if s.AgentSocket != "" {
		env.AgentSocket = s.AgentSocket
	}

	return env, nil
}

// Options returns the ghsign options for these settings.
func (s *Settings) Options() ([]ghsign.Option, error) {
	env, err := s.Environment()
	if err != nil {
		return nil, err
	}
	return []ghsign.Option{ghsign.WithEnvironment(env)}, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
