package ssh

import (
	"strings"
	"testing"

	gossh "golang.org/x/crypto/ssh"

	"github.com/randalmurphal/ghsign/testutil"
)

func TestFingerprint(t *testing.T) {
	k := testutil.RSAKey1(t)

	fp := Fingerprint(k.SSH.Marshal())
	if fp != gossh.FingerprintSHA256(k.SSH) {
		t.Errorf("Fingerprint() = %q, want %q", fp, gossh.FingerprintSHA256(k.SSH))
	}

	raw := Fingerprint([]byte("test-key-blob"))
	if !strings.HasPrefix(raw, "SHA256:") {
		t.Errorf("fingerprint should start with 'SHA256:', got %q", raw)
	}
	if raw == Fingerprint([]byte("different-blob")) {
		t.Error("different inputs should give different fingerprints")
	}
}
