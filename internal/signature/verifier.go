package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Prefix is the provider's signature header convention.
const Prefix = "sha256="

// Verify reports whether providedSignature matches the HMAC-SHA256 of
// rawBody under secret. It is a pure predicate: any malformed, missing, or
// mismatched signature yields false. The digest comparison is constant time;
// prefix and length checks short-circuit since neither is secret.
func Verify(rawBody []byte, providedSignature string, secret []byte) bool {
	if len(secret) == 0 || providedSignature == "" {
		return false
	}
	if !strings.HasPrefix(providedSignature, Prefix) {
		return false
	}

	provided, err := hex.DecodeString(strings.TrimPrefix(providedSignature, Prefix))
	if err != nil {
		return false
	}
	if len(provided) != sha256.Size {
		return false
	}

	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(rawBody)
	return hmac.Equal(mac.Sum(nil), provided)
}

// Sign computes the provider-convention signature for rawBody under secret.
func Sign(rawBody []byte, secret []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write(rawBody)
	return Prefix + hex.EncodeToString(mac.Sum(nil))
}
