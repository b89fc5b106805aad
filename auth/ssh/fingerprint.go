package ssh

import (
	"crypto/sha256"
	"encoding/base64"

	gossh "golang.org/x/crypto/ssh"
)

// Fingerprint returns the SHA256 fingerprint of an SSH wire-format key blob,
// in the form ssh-add -l prints. Blobs that do not parse are hashed as-is.
func Fingerprint(blob []byte) string {
	if pub, err := gossh.ParsePublicKey(blob); err == nil {
		return gossh.FingerprintSHA256(pub)
	}
	sum := sha256.Sum256(blob)
	return "SHA256:" + base64.RawStdEncoding.EncodeToString(sum[:])
}
