// Package auth builds bearer credentials on top of GitHub SSH signatures.
//
// This package includes:
//   - A JWT signing method whose keys are a GitHub user's SSH keys
//   - Token issue and validation with customizable claims
//   - One-time challenge/response proofs of key ownership
//   - Token hashing utilities
//
// # Tokens
//
// A token's subject is the signer's GitHub username. Validation fetches that
// user's published keys through the verifier:
//
//	signer := ghsign.NewSigner("octocat")
//	token, err := auth.Issue(ctx, auth.TokenConfig{Issuer: "deploy-bot"}, signer)
//
//	verifier := ghsign.NewVerifier("octocat")
//	claims, err := auth.Validate(ctx, auth.TokenConfig{Issuer: "deploy-bot"}, verifier, token)
//
// The JWT alg is "GHS1" in the default build and "GHS224" when built with
// the ghsign_sha224 tag.
//
// # Custom Claims
//
// Extend BaseClaims for application-specific claims:
//
//	type DeployClaims struct {
//	    auth.BaseClaims
//	    Environment string `json:"env"`
//	}
//
//	token, err := auth.IssueWithClaims(ctx, cfg, signer, func(base auth.BaseClaims) DeployClaims {
//	    return DeployClaims{BaseClaims: base, Environment: "prod"}
//	})
//
//	claims := &DeployClaims{}
//	err = auth.ValidateAs(ctx, cfg, verifier, token, claims)
//
// # Challenges
//
// A ChallengeStore issues nonces and accepts each signed answer once:
//
//	store := auth.NewChallengeStore(time.Minute)
//	c, _ := store.Issue()
//	resp, _ := auth.SignChallenge(ctx, signer, c)
//	err := store.Redeem(ctx, verifier, c, resp)
//
// # Errors
//
// ErrKeysUnavailable means the user's keys could not be fetched; the token
// or answer was neither accepted nor rejected and may be retried.
package auth
