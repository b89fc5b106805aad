package ghsign

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/randalmurphal/ghsign/auth/ssh"
	"github.com/randalmurphal/ghsign/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestParseKeys(t *testing.T) {
	keys := testutil.RSAKeys(t, 2)
	logger := discardLogger()

	t.Run("drops trailing blank lines", func(t *testing.T) {
		body := keys[0].AuthorizedKey + "\n" + keys[1].AuthorizedKey + "\n\n\n"

		got, err := parseKeys(body, logger)
		if err != nil {
			t.Fatalf("parseKeys failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d keys, want 2", len(got))
		}
		if got[0] != keys[0].PublicPEM || got[1] != keys[1].PublicPEM {
			t.Error("keys not converted to PEM in published order")
		}
	})

	t.Run("CRLF lines", func(t *testing.T) {
		got, err := parseKeys(keys[0].AuthorizedKey+"\r\n", logger)
		if err != nil {
			t.Fatalf("parseKeys failed: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("got %d keys, want 1", len(got))
		}
	})

	t.Run("empty body", func(t *testing.T) {
		got, err := parseKeys("\n", logger)
		if err != nil {
			t.Fatalf("parseKeys failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %d keys, want 0", len(got))
		}
	})

	t.Run("skips non-RSA keys", func(t *testing.T) {
		body := testutil.ED25519AuthorizedKey(t) + "\n" + keys[1].AuthorizedKey + "\n"

		got, err := parseKeys(body, logger)
		if err != nil {
			t.Fatalf("parseKeys failed: %v", err)
		}
		if len(got) != 1 || got[0] != keys[1].PublicPEM {
			t.Errorf("got %v, want only the RSA key", got)
		}
	})

	t.Run("malformed line fails", func(t *testing.T) {
		body := keys[0].AuthorizedKey + "\nssh-rsa !!!notbase64\n"

		_, err := parseKeys(body, logger)
		if !IsFormatError(err) {
			t.Fatalf("expected FormatError, got %v", err)
		}

		var formatErr *FormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("expected *FormatError, got %T", err)
		}
		if formatErr.Line != "ssh-rsa !!!notbase64" {
			t.Errorf("Line = %q", formatErr.Line)
		}
		if !errors.Is(err, ssh.ErrInvalidKeyFormat) {
			t.Error("should unwrap to ssh.ErrInvalidKeyFormat")
		}
	})

	t.Run("interior blank line fails", func(t *testing.T) {
		body := keys[0].AuthorizedKey + "\n\n" + keys[1].AuthorizedKey

		if _, err := parseKeys(body, logger); !IsFormatError(err) {
			t.Fatalf("expected FormatError, got %v", err)
		}
	})
}

func TestKeySet_Get(t *testing.T) {
	keys := testutil.RSAKeys(t, 2)
	pub := testutil.NewPublisher(map[string]string{"octocat": testutil.KeysBody(keys...)})
	ks := NewKeySet(pub, discardLogger())
	ctx := testutil.TestContext(t)

	got, err := ks.Get(ctx, "octocat")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d keys, want 2", len(got))
	}

	if _, err := ks.Get(ctx, "octocat"); err != nil {
		t.Fatalf("second Get failed: %v", err)
	}
	if pub.Calls("octocat") != 1 {
		t.Errorf("fetches = %d, want 1", pub.Calls("octocat"))
	}
}

func TestKeySet_UnknownUser(t *testing.T) {
	ks := NewKeySet(testutil.NewPublisher(nil), nil)

	_, err := ks.Get(testutil.TestContext(t), "ghost")
	if !IsKeyFetchError(err) {
		t.Fatalf("expected KeyFetchError, got %v", err)
	}

	var fetchErr *KeyFetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *KeyFetchError, got %T", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d", fetchErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "ghost") {
		t.Errorf("error should name the user: %v", err)
	}
}

func TestKeySet_ErrorNotMemoized(t *testing.T) {
	keys := testutil.RSAKeys(t, 1)
	pub := testutil.NewPublisher(map[string]string{"octocat": testutil.KeysBody(keys...)})
	pub.SetErr(errors.New("network down"))
	ks := NewKeySet(pub, discardLogger())
	ctx := testutil.TestContext(t)

	if _, err := ks.Get(ctx, "octocat"); !IsKeyFetchError(err) {
		t.Fatalf("expected KeyFetchError, got %v", err)
	}

	pub.SetErr(nil)
	got, err := ks.Get(ctx, "octocat")
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("got %d keys, want 1", len(got))
	}
	if pub.Calls("octocat") != 2 {
		t.Errorf("fetches = %d, want 2", pub.Calls("octocat"))
	}
}

func TestKeySet_FormatErrorNotMemoized(t *testing.T) {
	pub := testutil.NewPublisher(map[string]string{"octocat": "not a key\n"})
	ks := NewKeySet(pub, discardLogger())
	ctx := testutil.TestContext(t)

	for range 2 {
		if _, err := ks.Get(ctx, "octocat"); !IsFormatError(err) {
			t.Fatalf("expected FormatError, got %v", err)
		}
	}
	if pub.Calls("octocat") != 2 {
		t.Errorf("fetches = %d, want 2", pub.Calls("octocat"))
	}
}

func TestKeySet_ConcurrentGetFetchesOnce(t *testing.T) {
	keys := testutil.RSAKeys(t, 2)
	pub := testutil.NewPublisher(map[string]string{"octocat": testutil.KeysBody(keys...)})
	pub.Gate = make(chan struct{})
	pub.Started = make(chan string, 1)
	ks := NewKeySet(pub, discardLogger())
	ctx := testutil.TestContextWithTimeout(t, defaultTestTimeout)

	const callers = 10
	var wg sync.WaitGroup
	errs := make([]error, callers)
	results := make([][]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = ks.Get(ctx, "octocat")
		}()
	}

	<-pub.Started
	close(pub.Gate)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("caller %d: %v", i, err)
		}
		if len(results[i]) != 2 {
			t.Errorf("caller %d got %d keys", i, len(results[i]))
		}
	}
	if pub.Calls("octocat") != 1 {
		t.Errorf("fetches = %d, want 1", pub.Calls("octocat"))
	}
}

func TestKeySet_PerUser(t *testing.T) {
	keys := testutil.RSAKeys(t, 2)
	pub := testutil.NewPublisher(map[string]string{
		"alice": testutil.KeysBody(keys[0]),
		"bob":   testutil.KeysBody(keys[1]),
	})
	ks := NewKeySet(pub, discardLogger())
	ctx := testutil.TestContext(t)

	alice, err := ks.Get(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	bob, err := ks.Get(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if alice[0] == bob[0] {
		t.Error("users should have distinct keys")
	}
}

func TestPublicKeys(t *testing.T) {
	keys := testutil.RSAKeys(t, 1)
	pub := testutil.NewPublisher(map[string]string{"octocat": testutil.KeysBody(keys...)})
	env := testEnv(t, nil, pub)

	got, err := PublicKeys(context.Background(), "octocat", WithEnvironment(env))
	if err != nil {
		t.Fatalf("PublicKeys failed: %v", err)
	}
	if len(got) != 1 || !ssh.IsPublicKey(got[0]) {
		t.Errorf("PublicKeys = %v", got)
	}
}
