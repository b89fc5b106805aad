package ssh

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	gossh "golang.org/x/crypto/ssh"
)

// KeyTypeRSA is the SSH algorithm name of plain RSA keys.
const KeyTypeRSA = gossh.KeyAlgoRSA

// PEM markers used to classify key material.
const (
	pemBegin        = "-----BEGIN "
	publicKeyHeader = "-----BEGIN PUBLIC KEY-----"
)

// KeyInfo holds information about an SSH-wire public key line.
type KeyInfo struct {
	// KeyType is the key algorithm (e.g., "ssh-rsa").
	KeyType string

	// Blob is the SSH wire encoding of the key.
	Blob []byte

	// Fingerprint is the SHA256 fingerprint of the key.
	Fingerprint string

	// Comment is the optional key comment.
	Comment string

	key gossh.PublicKey
}

// ParseKeyLine parses a "<type> <base64> [comment]" line.
func ParseKeyLine(line string) (*KeyInfo, error) {
	line = strings.TrimSpace(line)
	if len(strings.Fields(line)) < 2 {
		return nil, ErrInvalidKeyFormat
	}

	key, comment, _, _, err := gossh.ParseAuthorizedKey([]byte(line))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyFormat, err)
	}

	blob := key.Marshal()
	return &KeyInfo{
		KeyType:     key.Type(),
		Blob:        blob,
		Fingerprint: Fingerprint(blob),
		Comment:     comment,
		key:         key,
	}, nil
}

// PEM converts the parsed key to a PKIX PEM public key.
func (k *KeyInfo) PEM() (string, error) {
	return PublicKeyToPEM(k.key)
}

// ToPEM normalizes key material to PEM. Input that already carries a PEM
// header is returned unchanged; anything else is parsed as an SSH-wire line.
func ToPEM(key []byte) (string, error) {
	if bytes.Contains(key, []byte(pemBegin)) {
		return string(key), nil
	}

	info, err := ParseKeyLine(string(key))
	if err != nil {
		return "", err
	}
	return info.PEM()
}

// IsPublicKey reports whether pemString starts with the PKIX public key header.
func IsPublicKey(pemString string) bool {
	return strings.HasPrefix(pemString, publicKeyHeader)
}

// PublicKeyToPEM encodes an SSH public key as a PKIX PEM block.
// Certificates are reduced to the key they certify.
func PublicKeyToPEM(key gossh.PublicKey) (string, error) {
	if cert, ok := key.(*gossh.Certificate); ok {
		key = cert.Key
	}

	cpk, ok := key.(gossh.CryptoPublicKey)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKeyType, key.Type())
	}
	rsaKey, ok := cpk.CryptoPublicKey().(*rsa.PublicKey)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedKeyType, key.Type())
	}

	der, err := x509.MarshalPKIXPublicKey(rsaKey)
	if err != nil {
		return "", fmt.Errorf("marshal public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

// CanonicalPEM re-encodes a PEM public key so that keys differing only in
// line wrapping or surrounding whitespace compare equal. Input that does not
// parse is returned trimmed.
func CanonicalPEM(pemString string) string {
	pub, err := ParseRSAPublicKey(pemString)
	if err != nil {
		return strings.TrimSpace(pemString)
	}
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return strings.TrimSpace(pemString)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// ParseRSAPublicKey decodes a PEM public key. Both PKIX ("PUBLIC KEY") and
// PKCS#1 ("RSA PUBLIC KEY") blocks are accepted.
func ParseRSAPublicKey(pemString string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(pemString)))
	if block == nil {
		return nil, ErrInvalidKeyFormat
	}

	switch block.Type {
	case "RSA PUBLIC KEY":
		pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKeyFormat, err)
		}
		return pub, nil
	case "PUBLIC KEY":
		pub, err := x509.ParsePKIXPublicKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKeyFormat, err)
		}
		rsaKey, ok := pub.(*rsa.PublicKey)
		if !ok {
			return nil, ErrUnsupportedKeyType
		}
		return rsaKey, nil
	default:
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrInvalidKeyFormat, block.Type)
	}
}

// IsEncrypted reports whether PEM private key material is passphrase protected.
// Both legacy "Proc-Type: 4,ENCRYPTED" blocks and "ENCRYPTED PRIVATE KEY"
// blocks are detected, as are OpenSSH keys with a cipher set.
func IsEncrypted(key []byte) bool {
	if bytes.Contains(key, []byte("ENCRYPTED")) {
		return true
	}
	_, err := gossh.ParseRawPrivateKey(key)
	var missing *gossh.PassphraseMissingError
	return errors.As(err, &missing)
}

// ParseRSAPrivateKey parses unencrypted PEM private key material.
// Encrypted keys yield ErrPassphraseRequired; no passphrase is ever requested.
func ParseRSAPrivateKey(key []byte) (*rsa.PrivateKey, error) {
	if IsEncrypted(key) {
		return nil, ErrPassphraseRequired
	}

	raw, err := gossh.ParseRawPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyFormat, err)
	}

	switch k := raw.(type) {
	case *rsa.PrivateKey:
		return k, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, raw)
	}
}
