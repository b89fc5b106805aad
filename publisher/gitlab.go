package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/xanzy/go-gitlab"

	ghhttp "github.com/randalmurphal/ghsign/http"
)

// GitLabConfig configures a GitLab API publisher.
type GitLabConfig struct {
	// Token is an optional personal access token.
	Token string

	// BaseURL is the GitLab instance URL. Empty means gitlab.com.
	BaseURL string
}

// GitLab fetches keys from the GitLab REST API.
type GitLab struct {
	client *gitlab.Client
}

// NewGitLab creates a GitLab API publisher.
func NewGitLab(cfg GitLabConfig) (*GitLab, error) {
	var opts []gitlab.ClientOptionFunc
	if cfg.BaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(cfg.BaseURL))
	}

	client, err := gitlab.NewClient(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create GitLab client: %w", err)
	}

	return &GitLab{client: client}, nil
}

// Fetch lists every key on the user's account, following pagination.
func (g *GitLab) Fetch(ctx context.Context, username string) (string, error) {
	endpoint := "users/" + username + "/keys"

	iter := ghhttp.NewPageIterator(func(ctx context.Context, page int) ([]string, bool, error) {
		keys, resp, err := g.client.Users.ListSSHKeysForUser(
			username,
			&gitlab.ListSSHKeysForUserOptions{Page: page + 1, PerPage: 100},
			gitlab.WithContext(ctx),
		)
		if err != nil {
			return nil, false, gitlabError(err, resp, endpoint)
		}

		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			if k.Key != "" {
				lines = append(lines, k.Key)
			}
		}
		return lines, resp.NextPage != 0, nil
	})

	keys, err := iter.All(ctx)
	if err != nil {
		return "", err
	}
	return joinKeys(keys), nil
}

// gitlabError maps go-gitlab errors onto ghhttp error types.
func gitlabError(err error, resp *gitlab.Response, endpoint string) error {
	var errResp *gitlab.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return &ghhttp.APIError{
			Service:    "gitlab",
			StatusCode: errResp.Response.StatusCode,
			Endpoint:   endpoint,
			Message:    errResp.Message,
		}
	}

	if resp != nil && resp.StatusCode >= 400 {
		return &ghhttp.APIError{
			Service:    "gitlab",
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    err.Error(),
		}
	}

	return fmt.Errorf("gitlab request failed: %w", err)
}
