package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"strconv"
	"sync"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultChallengeTTL is how long a challenge may be answered when no
// lifetime is given.
const DefaultChallengeTTL = 5 * time.Minute

const nonceAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// Challenge is a one-time nonce a client proves key ownership against.
type Challenge struct {
	ID       string
	Nonce    string
	IssuedAt time.Time
}

// NewChallenge creates a challenge with a fresh ID and 32-character nonce.
func NewChallenge() (*Challenge, error) {
	id, err := nanoid.New()
	if err != nil {
		return nil, fmt.Errorf("generate challenge ID: %w", err)
	}
	nonce, err := nanoid.Generate(nonceAlphabet, 32)
	if err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return &Challenge{ID: id, Nonce: nonce, IssuedAt: time.Now()}, nil
}

// Payload is the byte string a client signs.
func (c *Challenge) Payload() []byte {
	return []byte("ghsign-challenge:" + c.ID + ":" + c.Nonce + ":" + strconv.FormatInt(c.IssuedAt.Unix(), 10))
}

// Hash returns the storage key for the challenge.
func (c *Challenge) Hash() string {
	return HashToken(string(c.Payload()))
}

// SignChallenge returns the signer's unpadded base64url signature over the
// challenge payload.
func SignChallenge(ctx context.Context, signer Signer, c *Challenge) (string, error) {
	sig, err := signer.Sign(ctx, c.Payload())
	if err != nil {
		return "", fmt.Errorf("sign challenge: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sig), nil
}

// VerifyChallenge checks a response produced by SignChallenge. A zero maxAge
// means DefaultChallengeTTL.
func VerifyChallenge(ctx context.Context, verifier Verifier, c *Challenge, response string, maxAge time.Duration) error {
	if maxAge == 0 {
		maxAge = DefaultChallengeTTL
	}
	if time.Since(c.IssuedAt) > maxAge {
		return ErrChallengeExpired
	}

	sig, err := base64.RawURLEncoding.DecodeString(response)
	if err != nil {
		return ErrInvalidToken
	}

	ok, err := verifier.Verify(ctx, c.Payload(), sig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeysUnavailable, err)
	}
	if !ok {
		return ErrInvalidToken
	}
	return nil
}

// ChallengeStore hands out challenges and accepts each answer once.
type ChallengeStore struct {
	ttl time.Duration

	mu      sync.Mutex
	pending map[string]*Challenge
}

// NewChallengeStore creates a store whose challenges live for ttl, or
// DefaultChallengeTTL when ttl is zero.
func NewChallengeStore(ttl time.Duration) *ChallengeStore {
	if ttl == 0 {
		ttl = DefaultChallengeTTL
	}
	return &ChallengeStore{ttl: ttl, pending: make(map[string]*Challenge)}
}

// Issue creates and records a new challenge. Expired challenges are dropped.
func (s *ChallengeStore) Issue() (*Challenge, error) {
	c, err := NewChallenge()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.pending[c.Hash()] = c
	return c, nil
}

// Redeem verifies response against the challenge and removes it. A challenge
// is removed on any outcome except ErrKeysUnavailable, so it cannot be
// answered twice.
func (s *ChallengeStore) Redeem(ctx context.Context, verifier Verifier, c *Challenge, response string) error {
	key := c.Hash()

	s.mu.Lock()
	stored, ok := s.pending[key]
	s.mu.Unlock()
	if !ok {
		return ErrUnknownChallenge
	}

	err := VerifyChallenge(ctx, verifier, stored, response, s.ttl)
	if isKeysUnavailable(err) {
		return err
	}

	s.mu.Lock()
	_, still := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if !still {
		return ErrUnknownChallenge
	}
	return err
}

// Len returns the number of outstanding challenges.
func (s *ChallengeStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *ChallengeStore) sweepLocked() {
	for k, c := range s.pending {
		if time.Since(c.IssuedAt) > s.ttl {
			delete(s.pending, k)
		}
	}
}
