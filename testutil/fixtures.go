// Package testutil provides utilities for testing.
package testutil

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// RSAKey is a generated RSA key pair in every representation the tests need.
type RSAKey struct {
	// Private is the parsed private key.
	Private *rsa.PrivateKey

	// PrivatePEM is the PKCS#1 "RSA PRIVATE KEY" encoding.
	PrivatePEM []byte

	// AuthorizedKey is the SSH-wire line, as published on GitHub.
	AuthorizedKey string

	// PublicPEM is the PKIX "PUBLIC KEY" encoding.
	PublicPEM string

	// SSH is the public key in x/crypto form.
	SSH ssh.PublicKey
}

var (
	keyPoolMu sync.Mutex
	keyPool   []*RSAKey
)

// RSAKeys returns n distinct RSA keys. Keys are generated once per test
// binary and shared, since 2048-bit generation is slow.
func RSAKeys(t *testing.T, n int) []*RSAKey {
	t.Helper()

	keyPoolMu.Lock()
	defer keyPoolMu.Unlock()

	for len(keyPool) < n {
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			t.Fatalf("generate RSA key: %v", err)
		}
		keyPool = append(keyPool, newRSAKey(t, priv))
	}

	return keyPool[:n]
}

// RSAKey1 returns a single shared RSA key.
func RSAKey1(t *testing.T) *RSAKey {
	t.Helper()
	return RSAKeys(t, 1)[0]
}

func newRSAKey(t *testing.T, priv *rsa.PrivateKey) *RSAKey {
	t.Helper()

	sshPub, err := ssh.NewPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("ssh public key: %v", err)
	}

	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}

	return &RSAKey{
		Private: priv,
		PrivatePEM: pem.EncodeToMemory(&pem.Block{
			Type:  "RSA PRIVATE KEY",
			Bytes: x509.MarshalPKCS1PrivateKey(priv),
		}),
		AuthorizedKey: strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub))) + " test@example.com",
		PublicPEM:     string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})),
		SSH:           sshPub,
	}
}

// EncryptedPEM returns the key's PEM with legacy encryption headers. The body
// is left as-is; only the headers matter to code that refuses encrypted keys.
func (k *RSAKey) EncryptedPEM() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type: "RSA PRIVATE KEY",
		Headers: map[string]string{
			"Proc-Type": "4,ENCRYPTED",
			"DEK-Info":  "AES-128-CBC,00112233445566778899AABBCCDDEEFF",
		},
		Bytes: x509.MarshalPKCS1PrivateKey(k.Private),
	})
}

// ED25519AuthorizedKey returns a freshly generated ed25519 key line.
func ED25519AuthorizedKey(t *testing.T) string {
	t.Helper()

	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("ssh public key: %v", err)
	}
	return strings.TrimSpace(string(ssh.MarshalAuthorizedKey(sshPub)))
}

// NewKeyring returns an in-memory agent holding keys, in order.
func NewKeyring(t *testing.T, keys ...*RSAKey) agent.Agent {
	t.Helper()

	ring := agent.NewKeyring()
	for _, k := range keys {
		if err := ring.Add(agent.AddedKey{PrivateKey: k.Private, Comment: "test"}); err != nil {
			t.Fatalf("add key to keyring: %v", err)
		}
	}
	return ring
}

// AddCertificate adds a user certificate for k to ring, so the agent lists an
// "ssh-rsa-cert-v01@openssh.com" identity backed by k's private key.
func AddCertificate(t *testing.T, ring agent.Agent, k *RSAKey) {
	t.Helper()

	_, caPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate CA key: %v", err)
	}
	ca, err := ssh.NewSignerFromKey(caPriv)
	if err != nil {
		t.Fatalf("CA signer: %v", err)
	}

	cert := &ssh.Certificate{
		Key:             k.SSH,
		CertType:        ssh.UserCert,
		KeyId:           "test",
		ValidPrincipals: []string{"test"},
		ValidBefore:     ssh.CertTimeInfinity,
	}
	if err := cert.SignCert(rand.Reader, ca); err != nil {
		t.Fatalf("sign certificate: %v", err)
	}

	if err := ring.Add(agent.AddedKey{PrivateKey: k.Private, Certificate: cert, Comment: "cert"}); err != nil {
		t.Fatalf("add certificate to keyring: %v", err)
	}
}

// KeysBody joins key lines the way GitHub serves /<user>.keys.
func KeysBody(keys ...*RSAKey) string {
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k.AuthorizedKey)
	}
	return strings.Join(lines, "\n") + "\n"
}
