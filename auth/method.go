package auth

import (
	"context"
	"crypto"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/randalmurphal/ghsign/auth/ssh"
)

// Signer signs data as a GitHub user. *ghsign.Signer implements it.
type Signer interface {
	Sign(ctx context.Context, data []byte) ([]byte, error)
	Username() string
}

// Verifier checks signatures against a GitHub user's keys.
// *ghsign.Verifier implements it.
type Verifier interface {
	Verify(ctx context.Context, data, sig []byte) (bool, error)
	Username() string
}

// SigningMethodSSH is a JWT signing method backed by a user's SSH keys.
// The JWT alg names the digest: "GHS1" or "GHS224".
type SigningMethodSSH struct {
	alg string
}

// SigningMethodGitHubSSH is the method for this build's digest.
var SigningMethodGitHubSSH = &SigningMethodSSH{alg: algName(ssh.Digest)}

func init() {
	jwt.RegisterSigningMethod(SigningMethodGitHubSSH.Alg(), func() jwt.SigningMethod {
		return SigningMethodGitHubSSH
	})
}

func algName(h crypto.Hash) string {
	if h == crypto.SHA224 {
		return "GHS224"
	}
	return "GHS1"
}

// SigningKey is the key argument to SigningMethodSSH.Sign.
type SigningKey struct {
	Ctx    context.Context
	Signer Signer
}

// VerifyingKey is the key argument to SigningMethodSSH.Verify.
type VerifyingKey struct {
	Ctx      context.Context
	Verifier Verifier
}

// Alg implements jwt.SigningMethod.
func (m *SigningMethodSSH) Alg() string {
	return m.alg
}

// Sign implements jwt.SigningMethod. key must be a *SigningKey.
func (m *SigningMethodSSH) Sign(signingString string, key any) ([]byte, error) {
	k, ok := key.(*SigningKey)
	if !ok || k.Signer == nil {
		return nil, jwt.ErrInvalidKeyType
	}

	sig, err := k.Signer.Sign(contextOf(k.Ctx), []byte(signingString))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return sig, nil
}

// Verify implements jwt.SigningMethod. key must be a *VerifyingKey.
func (m *SigningMethodSSH) Verify(signingString string, sig []byte, key any) error {
	k, ok := key.(*VerifyingKey)
	if !ok || k.Verifier == nil {
		return jwt.ErrInvalidKeyType
	}

	valid, err := k.Verifier.Verify(contextOf(k.Ctx), []byte(signingString), sig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeysUnavailable, err)
	}
	if !valid {
		return jwt.ErrSignatureInvalid
	}
	return nil
}

func contextOf(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// isKeysUnavailable reports whether a parse error came from the verifier
// rather than from the token.
func isKeysUnavailable(err error) bool {
	return errors.Is(err, ErrKeysUnavailable)
}
