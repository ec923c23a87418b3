package redisstore

import "testing"

func TestOTPKeyNormalizesEmail(t *testing.T) {
	if got := otpKey("  Alice@Example.COM "); got != "otp:registration:alice@example.com" {
		t.Fatalf("unexpected key %q", got)
	}
}
