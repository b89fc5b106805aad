//go:build ghsign_sha224

package ssh

import "crypto"

// Digest is the hash used for every RSA signature this build produces or checks.
const Digest = crypto.SHA224

// AgentFormat is empty: no agent signature format uses SHA-224.
const AgentFormat = ""
