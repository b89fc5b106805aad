package ghsign

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/randalmurphal/ghsign/auth/ssh"
	"github.com/randalmurphal/ghsign/flight"
	"github.com/randalmurphal/ghsign/publisher"
)

// KeySet fetches and memoizes users' published public keys. Each username is
// fetched at most once at a time; a successful result is kept for the life
// of the KeySet and a failure is retried on the next Get.
type KeySet struct {
	publisher publisher.Publisher
	logger    *slog.Logger
	keys      *flight.Map[string, []string]
}

// NewKeySet creates a KeySet backed by pub. A nil logger means slog.Default().
func NewKeySet(pub publisher.Publisher, logger *slog.Logger) *KeySet {
	if logger == nil {
		logger = slog.Default()
	}
	ks := &KeySet{publisher: pub, logger: logger}
	ks.keys = flight.NewMap(ks.fetch)
	return ks
}

// Get returns username's RSA public keys as PEM, in published order.
func (ks *KeySet) Get(ctx context.Context, username string) ([]string, error) {
	return ks.keys.Get(ctx, username)
}

func (ks *KeySet) fetch(ctx context.Context, username string) ([]string, error) {
	body, err := ks.publisher.Fetch(ctx, username)
	if err != nil {
		return nil, newKeyFetchError(username, err)
	}

	keys, err := parseKeys(body, ks.logger)
	if err != nil {
		return nil, err
	}

	ks.logger.Debug("fetched public keys", "username", username, "count", len(keys))
	return keys, nil
}

// parseKeys converts a newline-separated key list to PEM. Trailing blank
// lines are dropped. Well-formed keys of other algorithms are skipped since
// only RSA keys can verify; anything unparseable fails the whole list.
func parseKeys(body string, logger *slog.Logger) ([]string, error) {
	body = strings.TrimRight(body, " \t\r\n")
	if body == "" {
		return []string{}, nil
	}

	lines := strings.Split(body, "\n")
	keys := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)

		pem, err := ssh.ToPEM([]byte(line))
		if errors.Is(err, ssh.ErrUnsupportedKeyType) {
			logger.Debug("skipping non-RSA public key", "key", keyType(line))
			continue
		}
		if err != nil {
			return nil, &FormatError{Line: line, Err: err}
		}
		keys = append(keys, pem)
	}
	return keys, nil
}

// keyType returns the algorithm field of an SSH-wire line.
func keyType(line string) string {
	typ, _, _ := strings.Cut(line, " ")
	return typ
}

// PublicKeys fetches username's RSA public keys as PEM.
func PublicKeys(ctx context.Context, username string, opts ...Option) ([]string, error) {
	o := buildOptions(opts)
	return o.keySet.Get(ctx, username)
}
