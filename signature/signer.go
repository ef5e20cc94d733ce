// Package signature provides HMAC-SHA256 signing and verification for
// inbound webhook bodies.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the HMAC-SHA256 signature for the raw request body.
// The digest is hex-encoded with no version prefix; it must be computed
// over the raw, unparsed bytes so re-serialization cannot invalidate it.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
