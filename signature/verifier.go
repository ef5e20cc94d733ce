package signature

import (
	"crypto/hmac"
	"time"
)

// AllowedSkew is the maximum age difference accepted for a signed
// request timestamp.
const AllowedSkew = 5 * time.Minute

// Verify checks whether sig matches the expected HMAC-SHA256 signature of
// the raw body under the shared secret. The comparison is constant time.
// A missing or malformed signature yields false, never an error.
func Verify(body []byte, secret, sig string) bool {
	if secret == "" || sig == "" {
		return false
	}
	expected := Sign(body, secret)
	return hmac.Equal([]byte(expected), []byte(sig))
}

// CheckTimestamp validates an RFC3339 request timestamp against the allowed
// clock skew. An unparseable timestamp or one outside the window returns
// false. Skew <= 0 falls back to AllowedSkew.
func CheckTimestamp(value string, now time.Time, skew time.Duration) bool {
	if skew <= 0 {
		skew = AllowedSkew
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return false
	}
	delta := now.Sub(ts)
	if delta < 0 {
		delta = -delta
	}
	return delta <= skew
}
