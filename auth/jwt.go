package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	nanoid "github.com/matoous/go-nanoid/v2"
)

// DefaultTokenTTL is the token lifetime when TokenConfig.TTL is zero.
const DefaultTokenTTL = 15 * time.Minute

// TokenConfig holds configuration for token issue and validation.
type TokenConfig struct {
	// Issuer is the token issuer (e.g., "deploy-bot"). Checked on
	// validation when set.
	Issuer string

	// TTL is the token lifetime.
	// Defaults to DefaultTokenTTL (15 minutes) if zero.
	TTL time.Duration

	// Audience, when set, is written to the aud claim.
	Audience []string
}

func (c TokenConfig) ttl() time.Duration {
	if c.TTL == 0 {
		return DefaultTokenTTL
	}
	return c.TTL
}

// BaseClaims represents the standard JWT claims.
// Embed this in custom claims types for application-specific data.
type BaseClaims struct {
	jwt.RegisteredClaims
}

// Issue creates a token whose subject is the signer's GitHub username,
// signed with that user's SSH key.
func Issue(ctx context.Context, cfg TokenConfig, signer Signer) (string, error) {
	return IssueWithClaims(ctx, cfg, signer, func(base BaseClaims) BaseClaims {
		return base
	})
}

// IssueWithClaims creates a token with custom claims.
// The builder function receives a BaseClaims with standard fields pre-populated.
func IssueWithClaims[T jwt.Claims](ctx context.Context, cfg TokenConfig, signer Signer, builder func(BaseClaims) T) (string, error) {
	if signer.Username() == "" {
		return "", ErrNoUsername
	}

	tokenID, err := nanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}

	now := time.Now()
	base := BaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   signer.Username(),
			Audience:  cfg.Audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ttl())),
			ID:        tokenID,
		},
	}

	token := jwt.NewWithClaims(SigningMethodGitHubSSH, builder(base))
	return token.SignedString(&SigningKey{Ctx: ctx, Signer: signer})
}

// Validate parses and validates a token against the verifier's user,
// returning BaseClaims.
func Validate(ctx context.Context, cfg TokenConfig, verifier Verifier, tokenString string) (*BaseClaims, error) {
	claims := &BaseClaims{}
	if err := validateInto(ctx, cfg, verifier, tokenString, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ValidateAs parses and validates a token into the provided claims pointer.
// Pass a pointer to your custom claims type.
//
// Example:
//
//	claims := &DeployClaims{}
//	if err := auth.ValidateAs(ctx, cfg, verifier, token, claims); err != nil {
//	    return err
//	}
//	fmt.Println(claims.Environment)
func ValidateAs(ctx context.Context, cfg TokenConfig, verifier Verifier, tokenString string, claims jwt.Claims) error {
	return validateInto(ctx, cfg, verifier, tokenString, claims)
}

func validateInto(ctx context.Context, cfg TokenConfig, verifier Verifier, tokenString string, claims jwt.Claims) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{SigningMethodGitHubSSH.Alg()}),
		jwt.WithSubject(verifier.Username()),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	// The subject picks whose keys verify the signature, so a token for
	// another user would otherwise fail as a bad signature.
	unverified, _, err := jwt.NewParser().ParseUnverified(tokenString, &BaseClaims{})
	if err != nil {
		return ErrInvalidToken
	}
	if sub, err := unverified.Claims.GetSubject(); err != nil || sub != verifier.Username() {
		return ErrWrongSubject
	}

	key := &VerifyingKey{Ctx: ctx, Verifier: verifier}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return key, nil
	}, opts...)
	if err != nil {
		switch {
		case isKeysUnavailable(err):
			return err
		case errors.Is(err, jwt.ErrTokenExpired):
			return ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenInvalidSubject):
			return ErrWrongSubject
		default:
			return ErrInvalidToken
		}
	}

	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
