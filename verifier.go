package ghsign

import (
	"context"
	"log/slog"

	"github.com/randalmurphal/ghsign/auth/ssh"
)

// Verifier checks signatures against a GitHub user's published keys.
// The keys are fetched on first use and kept for the Verifier's lifetime.
type Verifier struct {
	username string
	explicit [][]byte
	keys     *KeySet
	logger   *slog.Logger
}

// NewVerifier creates a Verifier for username. Keys passed with WithKeys are
// used instead of the user's published keys.
func NewVerifier(username string, opts ...Option) *Verifier {
	o := buildOptions(opts)
	return &Verifier{
		username: username,
		explicit: o.keys,
		keys:     o.keySet,
		logger:   o.env.Logger.With("username", username),
	}
}

// Username returns the user whose keys the Verifier trusts.
func (v *Verifier) Username() string {
	return v.username
}

// Verify reports whether sig is a signature of data by any of the user's
// keys. An empty signature is false without fetching keys. A signature that
// does not match is false, not an error; errors mean the keys were unavailable.
func (v *Verifier) Verify(ctx context.Context, data, sig []byte) (bool, error) {
	if len(sig) == 0 {
		return false, nil
	}

	keys, err := v.candidates(ctx)
	if err != nil {
		return false, err
	}

	for _, pem := range keys {
		ok, err := ssh.VerifyPEM(pem, data, sig)
		if err != nil {
			v.logger.Debug("skipping unusable public key", "error", err)
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// VerifyString decodes sig with enc and verifies it. A signature that does
// not decode is false.
func (v *Verifier) VerifyString(ctx context.Context, data []byte, sig string, enc Encoding) (bool, error) {
	if sig == "" {
		return false, nil
	}

	raw, err := enc.Decode(sig)
	if err != nil {
		v.logger.Debug("signature does not decode", "encoding", enc, "error", err)
		return false, nil
	}
	return v.Verify(ctx, data, raw)
}

func (v *Verifier) candidates(ctx context.Context) ([]string, error) {
	if len(v.explicit) == 0 {
		return v.keys.Get(ctx, v.username)
	}

	keys := make([]string, 0, len(v.explicit))
	for _, key := range v.explicit {
		pem, err := ssh.ToPEM(key)
		if err != nil {
			v.logger.Debug("skipping malformed key", "error", err)
			continue
		}
		keys = append(keys, pem)
	}
	return keys, nil
}
