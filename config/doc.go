// Package config resolves ghsign settings from layered sources.
//
// Precedence, highest first:
//  1. Command-line flags (ResolveWithFlags)
//  2. GHSIGN_* environment variables
//  3. .ghsign.yaml in the project root
//  4. ~/.config/ghsign/config.yaml
//  5. Built-in defaults
//
// Tokens (github_token, gitlab_token) are only read from the global file or
// the environment, never from the shared project file.
//
// # Usage
//
//	settings, err := config.LoadDefault()
//	if err != nil {
//	    return err
//	}
//	opts, err := settings.Options()
//	if err != nil {
//	    return err
//	}
//	signer := ghsign.NewSigner("octocat", opts...)
//
// # Keys
//
//	publisher       web (github.com/<user>.keys), api (GitHub REST) or gitlab
//	github_url      base URL for the web publisher
//	github_api_url  GitHub Enterprise API URL for the api publisher
//	github_token    token for the api publisher
//	gitlab_url      GitLab instance URL
//	gitlab_token    token for the gitlab publisher
//	cache_dir       directory holding ghsign.json
//	ssh_dir         directory searched for id_rsa and id_dsa
//	agent_socket    overrides SSH_AUTH_SOCK
//	timeout         publisher request timeout ("30s" or seconds)
//	encoding        signature text encoding: base64, base64url, hex or raw
//
// The resolver itself is generic: NewResolver with a custom ResolverConfig
// serves any key set, and each resolved value records its Source.
package config
