package signature_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/kiket-dev/dispatch/signature"
)

func TestSignKnownVector(t *testing.T) {
	body := []byte(`{"event":"issue.created"}`)
	secret := "whsec_testsecret123"

	got := signature.Sign(body, secret)

	// Compute expected HMAC-SHA256 independently.
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if got != expected {
		t.Errorf("Sign() = %q, want %q", got, expected)
	}
}

func TestSignVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"issue_id":"iss_01h2x","title":"broken build"}`)
	secret := "whsec_roundtripsecret"

	sig := signature.Sign(body, secret)
	if !signature.Verify(body, secret, sig) {
		t.Error("Verify() returned false for valid signature")
	}
}

func TestVerifyTamperedBody(t *testing.T) {
	body := []byte(`{"original":true}`)
	secret := "whsec_tampersecret"

	sig := signature.Sign(body, secret)

	tampered := []byte(`{"original":false}`)
	if signature.Verify(tampered, secret, sig) {
		t.Error("Verify() returned true for tampered body")
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	body := []byte(`{"data":"value"}`)

	sig := signature.Sign(body, "whsec_correct")

	if signature.Verify(body, "whsec_wrong", sig) {
		t.Error("Verify() returned true for wrong secret")
	}
}

func TestVerifyEmptyInputs(t *testing.T) {
	body := []byte(`{"data":"value"}`)
	sig := signature.Sign(body, "whsec_s")

	if signature.Verify(body, "whsec_s", "") {
		t.Error("Verify() returned true for empty signature")
	}
	if signature.Verify(body, "", sig) {
		t.Error("Verify() returned true for empty secret")
	}
	if signature.Verify(body, "whsec_s", "not-hex-at-all") {
		t.Error("Verify() returned true for malformed signature")
	}
}

func TestSignatureFormat(t *testing.T) {
	sig := signature.Sign([]byte("test"), "secret")

	// SHA256 = 32 bytes = 64 hex chars, no prefix.
	if len(sig) != 64 {
		t.Errorf("expected signature length 64, got %d", len(sig))
	}
}

func TestCheckTimestampWithinSkew(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{0, time.Minute, -time.Minute, 4 * time.Minute} {
		ts := now.Add(offset).Format(time.RFC3339)
		if !signature.CheckTimestamp(ts, now, signature.AllowedSkew) {
			t.Errorf("timestamp at offset %v rejected", offset)
		}
	}
}

func TestCheckTimestampOutsideSkew(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{6 * time.Minute, -6 * time.Minute} {
		ts := now.Add(offset).Format(time.RFC3339)
		if signature.CheckTimestamp(ts, now, signature.AllowedSkew) {
			t.Errorf("timestamp at offset %v accepted", offset)
		}
	}
}

func TestCheckTimestampMalformed(t *testing.T) {
	now := time.Now().UTC()
	if signature.CheckTimestamp("yesterday", now, signature.AllowedSkew) {
		t.Error("malformed timestamp accepted")
	}
	if signature.CheckTimestamp("", now, signature.AllowedSkew) {
		t.Error("empty timestamp accepted")
	}
}

func TestGenerateSecretFormat(t *testing.T) {
	secret := signature.GenerateSecret()

	if !strings.HasPrefix(secret, "whsec_") {
		t.Errorf("expected prefix 'whsec_', got %q", secret)
	}

	// whsec_ (6) + 64 hex chars (32 bytes) = 70 total
	if len(secret) != 70 {
		t.Errorf("expected length 70, got %d for %q", len(secret), secret)
	}
}

func TestGenerateSecretUniqueness(t *testing.T) {
	a := signature.GenerateSecret()
	b := signature.GenerateSecret()
	if a == b {
		t.Errorf("two consecutive GenerateSecret() calls returned the same value: %q", a)
	}
}
