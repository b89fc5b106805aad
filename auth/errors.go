package auth

import "errors"

// Token and challenge errors.
var (
	// ErrInvalidToken indicates the token is malformed or its signature does
	// not verify against the subject's keys.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token has expired.
	ErrTokenExpired = errors.New("token expired")

	// ErrWrongSubject indicates the token was issued for another user.
	ErrWrongSubject = errors.New("token subject does not match")

	// ErrKeysUnavailable indicates the subject's public keys could not be
	// loaded, so the token could be neither accepted nor rejected.
	ErrKeysUnavailable = errors.New("public keys unavailable")

	// ErrNoUsername indicates the signer has no username to use as subject.
	ErrNoUsername = errors.New("signer has no username")

	// ErrUnknownChallenge indicates the challenge was never issued or was
	// already redeemed.
	ErrUnknownChallenge = errors.New("unknown challenge")

	// ErrChallengeExpired indicates the challenge is older than its lifetime.
	ErrChallengeExpired = errors.New("challenge expired")
)
