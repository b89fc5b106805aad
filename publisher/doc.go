// Package publisher fetches the SSH public keys a user has published.
//
// Every publisher returns the keys as newline-separated SSH-wire lines, the
// format GitHub serves at https://github.com/<user>.keys, and reports a
// non-success response as an *http.APIError so callers can test for
// http.ErrNotFound.
//
// # Publishers
//
//   - Web: GET <base>/<user>.keys (GitHub, GitHub Enterprise, GitLab all serve this)
//   - GitHub: the REST API users/<user>/keys endpoint, optionally authenticated
//   - GitLab: the REST API users/<user>/keys endpoint
//
// Example:
//
//	pub := publisher.NewWeb(publisher.WebConfig{})
//	body, err := pub.Fetch(ctx, "octocat")
package publisher

import "context"

// Publisher fetches a user's published SSH public keys.
type Publisher interface {
	Fetch(ctx context.Context, username string) (string, error)
}
