package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownKey is returned when saving a key the target file may not hold.
var ErrUnknownKey = errors.New("unknown config key")

// SaveConfig writes single keys to the global or local config file.
type SaveConfig struct {
	// GlobalConfigDir is the directory under ~/.config/ for global config.
	GlobalConfigDir string

	// GlobalConfigFile is the filename. Defaults to "config.yaml".
	GlobalConfigFile string

	// LocalConfigName is the local config filename in the project root.
	LocalConfigName string

	// ValidGlobalKeys lists keys the global config may hold. Nil allows all.
	ValidGlobalKeys []string

	// ValidLocalKeys lists keys the local config may hold. Nil allows all.
	ValidLocalKeys []string
}

func (c SaveConfig) globalConfigFile() string {
	if c.GlobalConfigFile != "" {
		return c.GlobalConfigFile
	}
	return "config.yaml"
}

// GlobalPath returns the global config file location.
func (c SaveConfig) GlobalPath() (string, error) {
	if c.GlobalConfigDir == "" {
		return "", errors.New("global config directory not configured")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", c.GlobalConfigDir, c.globalConfigFile()), nil
}

// SaveGlobal sets key in the global config file. The file is private to the
// user since it may hold tokens.
func (c SaveConfig) SaveGlobal(key, value string) error {
	if err := checkKey(key, c.ValidGlobalKeys, "global"); err != nil {
		return err
	}

	path, err := c.GlobalPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	return updateFile(path, 0o600, func(m map[string]any) {
		m[key] = parseValue(value)
	})
}

// SaveLocal sets key in the local config file under root.
func (c SaveConfig) SaveLocal(root, key, value string) error {
	if root == "" {
		return errors.New("project root not found")
	}
	if c.LocalConfigName == "" {
		return errors.New("local config name not configured")
	}
	if err := checkKey(key, c.ValidLocalKeys, "local"); err != nil {
		return err
	}

	// Local config is shared with the project and stays readable.
	return updateFile(filepath.Join(root, c.LocalConfigName), 0o644, func(m map[string]any) {
		m[key] = parseValue(value)
	})
}

// DeleteGlobalKey removes key from the global config. A missing or
// unparseable file is left alone.
func (c SaveConfig) DeleteGlobalKey(key string) error {
	path, err := c.GlobalPath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var existing map[string]any
	if err := yaml.Unmarshal(data, &existing); err != nil {
		return nil
	}

	delete(existing, key)
	return writeYAML(path, existing, 0o600)
}

func checkKey(key string, valid []string, layer string) error {
	if len(valid) > 0 && !slices.Contains(valid, key) {
		return fmt.Errorf("%w for %s config: %s (valid keys: %s)",
			ErrUnknownKey, layer, key, strings.Join(valid, ", "))
	}
	return nil
}

// updateFile applies edit to the YAML map stored at path. An unreadable or
// malformed file is replaced.
func updateFile(path string, perm os.FileMode, edit func(map[string]any)) error {
	var existing map[string]any
	if data, err := os.ReadFile(path); err == nil {
		_ = yaml.Unmarshal(data, &existing)
	}
	if existing == nil {
		existing = make(map[string]any)
	}

	edit(existing)
	return writeYAML(path, existing, perm)
}

func writeYAML(path string, m map[string]any, perm os.FileMode) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, perm)
}

// parseValue stores "true"/"false" as YAML booleans and anything else as text.
func parseValue(value string) any {
	switch strings.ToLower(value) {
	case "true":
		return true
	case "false":
		return false
	default:
		return value
	}
}
