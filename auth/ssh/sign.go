package ssh

import (
	"crypto/rand"
	"crypto/rsa"
	_ "crypto/sha1" // registers crypto.SHA1
	_ "crypto/sha256"
	"fmt"
)

// SignPKCS1 signs data with key using Digest.
func SignPKCS1(key *rsa.PrivateKey, data []byte) ([]byte, error) {
	h := Digest.New()
	h.Write(data)

	sig, err := rsa.SignPKCS1v15(rand.Reader, key, Digest, h.Sum(nil))
	if err != nil {
		return nil, fmt.Errorf("sign data: %w", err)
	}
	return sig, nil
}

// VerifyPKCS1 reports whether sig is a valid signature of data under pub.
func VerifyPKCS1(pub *rsa.PublicKey, data, sig []byte) bool {
	h := Digest.New()
	h.Write(data)
	return rsa.VerifyPKCS1v15(pub, Digest, h.Sum(nil), sig) == nil
}

// VerifyPEM parses pemString and verifies sig against it. A key that does
// not parse is reported as an error so callers can decide to skip it.
func VerifyPEM(pemString string, data, sig []byte) (bool, error) {
	pub, err := ParseRSAPublicKey(pemString)
	if err != nil {
		return false, err
	}
	return VerifyPKCS1(pub, data, sig), nil
}
