package ghsign

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// Encoding selects how a signature is rendered as text.
type Encoding string

const (
	// Raw keeps the signature bytes unchanged.
	Raw Encoding = "raw"

	// Base64 is standard padded base64, the encoding ssh-agent uses on the wire.
	Base64 Encoding = "base64"

	// Base64URL is unpadded URL-safe base64, suitable for tokens.
	Base64URL Encoding = "base64url"

	// Hex is lowercase hexadecimal.
	Hex Encoding = "hex"
)

// ParseEncoding returns the Encoding named s. Empty means Base64.
func ParseEncoding(s string) (Encoding, error) {
	switch enc := Encoding(strings.ToLower(strings.TrimSpace(s))); enc {
	case "":
		return Base64, nil
	case Raw, Base64, Base64URL, Hex:
		return enc, nil
	default:
		return "", fmt.Errorf("unknown signature encoding %q", s)
	}
}

// Encode renders sig as text.
func (e Encoding) Encode(sig []byte) string {
	switch e {
	case Raw:
		return string(sig)
	case Base64URL:
		return base64.RawURLEncoding.EncodeToString(sig)
	case Hex:
		return hex.EncodeToString(sig)
	default:
		return base64.StdEncoding.EncodeToString(sig)
	}
}

// Decode parses text produced by Encode.
func (e Encoding) Decode(s string) ([]byte, error) {
	switch e {
	case Raw:
		return []byte(s), nil
	case Base64URL:
		return base64.RawURLEncoding.DecodeString(s)
	case Hex:
		return hex.DecodeString(s)
	default:
		return base64.StdEncoding.DecodeString(s)
	}
}

// String implements fmt.Stringer.
func (e Encoding) String() string {
	return string(e)
}
