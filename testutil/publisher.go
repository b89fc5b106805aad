package testutil

import (
	"context"
	"net/http"
	"sync"

	ghhttp "github.com/randalmurphal/ghsign/http"
)

// Publisher is an in-memory key publisher. Unknown users get a 404 APIError.
type Publisher struct {
	// Bodies maps a username to the body served for it.
	Bodies map[string]string

	// Err, when set, is returned for every fetch.
	Err error

	// Gate, when set, blocks each fetch until it is closed or receives.
	Gate chan struct{}

	// Started, when set, receives once per fetch before blocking on Gate.
	Started chan string

	mu    sync.Mutex
	calls map[string]int
}

// NewPublisher returns a Publisher serving bodies.
func NewPublisher(bodies map[string]string) *Publisher {
	return &Publisher{Bodies: bodies}
}

// Fetch returns the body published for username.
func (p *Publisher) Fetch(ctx context.Context, username string) (string, error) {
	p.mu.Lock()
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[username]++
	err := p.Err
	body, ok := p.Bodies[username]
	p.mu.Unlock()

	if p.Started != nil {
		p.Started <- username
	}
	if p.Gate != nil {
		select {
		case <-p.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if err != nil {
		return "", err
	}
	if !ok {
		return "", &ghhttp.APIError{
			Service:    "github",
			StatusCode: http.StatusNotFound,
			Endpoint:   "/" + username + ".keys",
			Message:    http.StatusText(http.StatusNotFound),
		}
	}
	return body, nil
}

// Calls returns how many times username was fetched.
func (p *Publisher) Calls(username string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[username]
}

// SetErr replaces the error returned by subsequent fetches.
func (p *Publisher) SetErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Err = err
}
