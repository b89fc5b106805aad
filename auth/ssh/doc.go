// Package ssh converts between SSH and PEM key representations and talks to
// an SSH agent on behalf of the ghsign signer.
//
// This package includes:
//   - SSH-wire key line parsing and conversion to PEM (ToPEM, IsPublicKey)
//   - Private key classification and parsing (IsEncrypted, ParseRSAPrivateKey)
//   - An agent channel that lists identities and signs with them
//   - RSA PKCS#1 v1.5 sign and verify primitives using the build's digest
//
// # Converting Keys
//
// Public keys published on GitHub are SSH-wire lines. Convert them to PEM:
//
//	pem, err := ssh.ToPEM([]byte("ssh-rsa AAAAB3NzaC1yc2E... user@host"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(ssh.IsPublicKey(pem)) // true
//
// PEM input is returned unchanged, so callers can pass mixed lists.
//
// # Agent Identities
//
// Connect to the agent behind SSH_AUTH_SOCK and list its identities:
//
//	conn, err := ssh.Dial(os.Getenv("SSH_AUTH_SOCK"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close()
//
//	ids, err := conn.List()
//	for _, id := range ids {
//	    pem, err := ssh.IdentityToPEM(id)
//	    ...
//	}
//
// # Digest
//
// Signatures are RSA PKCS#1 v1.5. The digest is fixed per build: SHA-1 by
// default, which is what an agent produces for ssh-rsa identities, or SHA-224
// when built with the ghsign_sha224 tag. See Digest and AgentFormat.
package ssh
