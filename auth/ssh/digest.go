//go:build !ghsign_sha224

package ssh

import "crypto"

// Digest is the hash used for every RSA signature this build produces or checks.
const Digest = crypto.SHA1

// AgentFormat is the agent signature format whose blob is a PKCS#1 v1.5
// signature under Digest.
const AgentFormat = "ssh-rsa"
