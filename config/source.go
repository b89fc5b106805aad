package config

// Source indicates where a configuration value came from.
type Source string

// Configuration sources, lowest priority first.
const (
	// SourceDefault is a built-in default.
	SourceDefault Source = "default"

	// SourceGlobal is ~/.config/ghsign/config.yaml.
	SourceGlobal Source = "global"

	// SourceLocal is .ghsign.yaml in the project root.
	SourceLocal Source = "local"

	// SourceEnv is a GHSIGN_* environment variable.
	SourceEnv Source = "env"

	// SourceFlag is a command-line flag.
	SourceFlag Source = "flag"
)
