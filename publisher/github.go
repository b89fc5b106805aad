package publisher

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"

	ghhttp "github.com/randalmurphal/ghsign/http"
)

// GitHubConfig configures a GitHub API publisher.
type GitHubConfig struct {
	// Token is an optional personal access token. Unauthenticated requests
	// work but are subject to a lower rate limit.
	Token string

	// BaseURL is a GitHub Enterprise API URL. Empty means api.github.com.
	BaseURL string
}

// GitHub fetches keys from the GitHub REST API.
type GitHub struct {
	client *github.Client
}

// NewGitHub creates a GitHub API publisher.
func NewGitHub(cfg GitHubConfig) (*GitHub, error) {
	var hc *http.Client
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		hc = oauth2.NewClient(context.Background(), ts)
	}

	client := github.NewClient(hc)
	if cfg.BaseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configure GitHub URL: %w", err)
		}
	}

	return &GitHub{client: client}, nil
}

// Fetch lists every key on the user's account, following pagination.
func (g *GitHub) Fetch(ctx context.Context, username string) (string, error) {
	endpoint := "users/" + username + "/keys"

	iter := ghhttp.NewPageIterator(func(ctx context.Context, page int) ([]string, bool, error) {
		keys, resp, err := g.client.Users.ListKeys(ctx, username, &github.ListOptions{
			Page:    page + 1,
			PerPage: 100,
		})
		if err != nil {
			return nil, false, githubError(err, resp, endpoint)
		}

		lines := make([]string, 0, len(keys))
		for _, k := range keys {
			if line := k.GetKey(); line != "" {
				lines = append(lines, line)
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

// githubError maps go-github errors onto ghhttp error types.
func githubError(err error, resp *github.Response, endpoint string) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return &ghhttp.RateLimitError{
			Service:    "github",
			RetryAfter: time.Until(rateErr.Rate.Reset.Time),
			Limit:      rateErr.Rate.Limit,
			Remaining:  rateErr.Rate.Remaining,
		}
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		return &ghhttp.APIError{
			Service:    "github",
			StatusCode: errResp.Response.StatusCode,
			Endpoint:   endpoint,
			Message:    errResp.Message,
			RequestID:  errResp.Response.Header.Get("X-GitHub-Request-Id"),
		}
	}

	if resp != nil && resp.StatusCode >= 400 {
		return &ghhttp.APIError{
			Service:    "github",
			StatusCode: resp.StatusCode,
			Endpoint:   endpoint,
			Message:    err.Error(),
		}
	}

	return fmt.Errorf("github request failed: %w", err)
}
