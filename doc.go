// Package ghsign signs data as a GitHub user and verifies such signatures
// against the SSH public keys the user publishes at github.com/<user>.keys.
//
// Signing never touches a raw private key when an SSH agent is running: the
// Signer looks for the agent identity whose public key the user has published
// and asks the agent to sign. Without an agent, or when given a key, it signs
// with an RSA private key directly. Verification succeeds if any of the
// user's published RSA keys validates the signature.
//
// # Signing and Verifying
//
//	signer := ghsign.NewSigner("octocat")
//	defer signer.Close()
//
//	sig, err := signer.Sign(ctx, []byte("hello"))
//	if err != nil {
//	    return err
//	}
//
//	ok, err := ghsign.NewVerifier("octocat").Verify(ctx, []byte("hello"), sig)
//
// # Identity Resolution
//
// The agent identity chosen for a user is recorded in ~/.cache/ghsign.json
// and checked against the agent on the next run, so the published keys are
// only fetched when the record is missing, for another user or stale. When
// several identities match, a plain "ssh-rsa" identity wins.
//
// # Digest
//
// Signatures are RSA PKCS#1 v1.5 over SHA-1, the digest ssh-agent uses for
// "ssh-rsa" signatures, so agent and key-file signatures verify alike.
// Later revisions of the ghsign format sign with SHA-224 instead. The default
// build stays on SHA-1 because no ssh-agent signature format uses SHA-224,
// and agent signing is the common case. Building with -tags ghsign_sha224
// switches key-file signing and all verification to SHA-224 to interoperate
// with those signers; agent signing then fails with ErrDigestUnsupported.
// A build never accepts both digests.
//
// # Environment
//
// Home directory, agent socket, default key files, publisher and cache store
// come from an Environment. DefaultEnvironment reads them from the process;
// tests and embedders pass their own with WithEnvironment.
//
// # Subpackages
//
//   - auth/ssh: key conversion, agent client, RSA primitives
//   - auth: JWTs and challenges signed by a GitHub identity
//   - publisher: key sources (github.com/<user>.keys, GitHub API, GitLab API)
//   - flight: single-flight memoizing cache
//   - store: the resolution record file
//   - config: YAML and environment configuration
//   - errors: user-facing messages for ghsign failures
package ghsign
