package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAPIError(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantMsg    string
		wantUnwrap error
	}{
		{
			name: "unknown user",
			err: &APIError{
				Service:    "github",
				StatusCode: 404,
				Message:    "Not Found",
				Endpoint:   "/ghost.keys",
			},
			wantMsg:    "github API error (404) at /ghost.keys: Not Found",
			wantUnwrap: ErrNotFound,
		},
		{
			name: "with request ID",
			err: &APIError{
				Service:    "gitlab",
				StatusCode: 500,
				Message:    "Internal error",
				Endpoint:   "/api/v4/users/octocat/keys",
				RequestID:  "abc123",
			},
			wantMsg:    "gitlab API error (500) at /api/v4/users/octocat/keys [abc123]: Internal error",
			wantUnwrap: ErrServerError,
		},
		{
			name: "unauthorized",
			err: &APIError{
				Service:    "github",
				StatusCode: 401,
				Message:    "Bad credentials",
				Endpoint:   "/users/octocat/keys",
			},
			wantMsg:    "github API error (401) at /users/octocat/keys: Bad credentials",
			wantUnwrap: ErrUnauthorized,
		},
		{
			name: "forbidden",
			err: &APIError{
				Service:    "github",
				StatusCode: 403,
				Message:    "Access denied",
				Endpoint:   "/users/octocat/keys",
			},
			wantMsg:    "github API error (403) at /users/octocat/keys: Access denied",
			wantUnwrap: ErrForbidden,
		},
		{
			name: "rate limited",
			err: &APIError{
				Service:    "gitlab",
				StatusCode: 429,
				Message:    "Too many requests",
				Endpoint:   "/api/v4/users/octocat/keys",
			},
			wantMsg:    "gitlab API error (429) at /api/v4/users/octocat/keys: Too many requests",
			wantUnwrap: ErrRateLimited,
		},
		{
			name: "bad request",
			err: &APIError{
				Service:    "github",
				StatusCode: 400,
				Message:    "Bad Request",
				Endpoint:   "/users/%20/keys",
			},
			wantMsg:    "github API error (400) at /users/%20/keys: Bad Request",
			wantUnwrap: ErrBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if got := tt.err.Unwrap(); !errors.Is(got, tt.wantUnwrap) {
				t.Errorf("Unwrap() = %v, want %v", got, tt.wantUnwrap)
			}
		})
	}
}

func TestRateLimitError(t *testing.T) {
	tests := []struct {
		name    string
		err     *RateLimitError
		wantMsg string
	}{
		{
			name: "with retry after",
			err: &RateLimitError{
				Service:    "gitlab",
				RetryAfter: 30 * time.Second,
			},
			wantMsg: "gitlab rate limit exceeded, retry after 30s",
		},
		{
			name: "without retry after",
			err: &RateLimitError{
				Service: "github",
			},
			wantMsg: "github rate limit exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrRateLimited) {
				t.Error("RateLimitError should unwrap to ErrRateLimited")
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "rate limited",
			err:  ErrRateLimited,
			want: true,
		},
		{
			name: "server error",
			err:  ErrServerError,
			want: true,
		},
		{
			name: "5xx API error",
			err: &APIError{
				StatusCode: 503,
				Service:    "test",
			},
			want: true,
		},
		{
			name: "not found",
			err:  ErrNotFound,
			want: false,
		},
		{
			name: "bad request",
			err:  ErrBadRequest,
			want: false,
		},
		{
			name: "4xx API error",
			err: &APIError{
				StatusCode: 400,
				Service:    "test",
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageIterator(t *testing.T) {
	t.Run("iterates through pages", func(t *testing.T) {
		data := [][]int{{1, 2, 3}, {4, 5, 6}, {7}}
		pageIdx := 0

		fetch := func(_ context.Context, _ int) ([]int, bool, error) {
			if pageIdx >= len(data) {
				return nil, false, nil
			}
			items := data[pageIdx]
			hasMore := pageIdx < len(data)-1
			pageIdx++
			return items, hasMore, nil
		}

		iter := NewPageIterator(fetch)
		got, err := iter.All(context.Background())
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}

		want := []int{1, 2, 3, 4, 5, 6, 7}
		if len(got) != len(want) {
			t.Fatalf("got %d items, want %d", len(got), len(want))
		}
		for i, v := range got {
			if v != want[i] {
				t.Errorf("item %d = %d, want %d", i, v, want[i])
			}
		}
	})

	t.Run("handles empty result", func(t *testing.T) {
		fetch := func(_ context.Context, _ int) ([]string, bool, error) {
			return nil, false, nil
		}

		iter := NewPageIterator(fetch)
		got, err := iter.All(context.Background())
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d items, want 0", len(got))
		}
	})

	t.Run("propagates error", func(t *testing.T) {
		wantErr := errors.New("fetch failed")
		fetch := func(_ context.Context, _ int) ([]int, bool, error) {
			return nil, false, wantErr
		}

		iter := NewPageIterator(fetch)
		_, err := iter.All(context.Background())
		if !errors.Is(err, wantErr) {
			t.Errorf("got error %v, want %v", err, wantErr)
		}
	})

	t.Run("skips empty pages", func(t *testing.T) {
		pages := [][]int{{}, {1}}
		fetch := func(_ context.Context, page int) ([]int, bool, error) {
			return pages[page], page < len(pages)-1, nil
		}

		iter := NewPageIterator(fetch)
		got, err := iter.All(context.Background())
		if err != nil {
			t.Fatalf("All() error = %v", err)
		}
		if len(got) != 1 || got[0] != 1 {
			t.Errorf("got %v, want [1]", got)
		}
	})
}

func TestClient(t *testing.T) {
	t.Run("successful GET", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/octocat.keys" {
				t.Errorf("path = %q, want /octocat.keys", r.URL.Path)
			}
			if got := r.Header.Get("User-Agent"); got != "ghsign-test" {
				t.Errorf("User-Agent = %q, want ghsign-test", got)
			}
			_, _ = w.Write([]byte("ssh-rsa AAAA\n"))
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			BaseURL:     server.URL,
			ServiceName: "test",
			UserAgent:   "ghsign-test",
		})

		body, err := client.GetText(context.Background(), "/octocat.keys")
		if err != nil {
			t.Fatalf("GetText() error = %v", err)
		}
		if body != "ssh-rsa AAAA\n" {
			t.Errorf("body = %q", body)
		}
	})

	t.Run("handles 404", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Not found"})
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			BaseURL:     server.URL,
			ServiceName: "test",
		})

		_, err := client.GetText(context.Background(), "/missing.keys")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("got error %v, want ErrNotFound", err)
		}

		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Message != "Not found" {
			t.Errorf("got error %v, want APIError with message", err)
		}
	})

	t.Run("non-200 success status is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := NewClient(ClientConfig{BaseURL: server.URL, ServiceName: "test"})

		_, err := client.GetText(context.Background(), "/x")
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNoContent {
			t.Errorf("got error %v, want APIError 204", err)
		}
	})

	t.Run("applies beforeRequest hook", func(t *testing.T) {
		var gotAuth string
		server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			BaseURL:     server.URL,
			ServiceName: "test",
			BeforeRequest: func(req *http.Request) {
				req.Header.Set("Authorization", "Bearer token123")
			},
		})

		_, _ = client.GetText(context.Background(), "/test")
		if gotAuth != "Bearer token123" {
			t.Errorf("got Authorization = %q, want %q", gotAuth, "Bearer token123")
		}
	})

	t.Run("retries on 5xx", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts++
			if attempts < 3 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("ok"))
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			BaseURL:     server.URL,
			ServiceName: "test",
			MaxRetries:  3,
			RetryWait:   1 * time.Millisecond,
		})

		body, err := client.GetText(context.Background(), "/test")
		if err != nil {
			t.Fatalf("GetText() error = %v", err)
		}
		if body != "ok" || attempts != 3 {
			t.Errorf("got body %q after %d attempts, want ok after 3", body, attempts)
		}
	})

	t.Run("single attempt does not retry", func(t *testing.T) {
		attempts := 0
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			attempts++
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		client := NewClient(ClientConfig{
			BaseURL:     server.URL,
			ServiceName: "test",
			MaxRetries:  1,
		})

		_, err := client.GetText(context.Background(), "/test")
		if !errors.Is(err, ErrServerError) {
			t.Errorf("got error %v, want ErrServerError", err)
		}
		if attempts != 1 {
			t.Errorf("got %d attempts, want 1", attempts)
		}
	})
}
