package line

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	ErrMissingSignature  = errors.New("missing X-Line-Signature header")
	ErrInvalidEncoding   = errors.New("invalid signature encoding")
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Sign returns the base64 HMAC-SHA256 of body keyed by the channel secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks headerSignature against body. An empty secret
// disables verification and reports ok.
func VerifySignature(body []byte, headerSignature, secret string) (bool, error) {
	if strings.TrimSpace(secret) == "" {
		return true, nil
	}
	if headerSignature == "" {
		return false, ErrMissingSignature
	}

	provided, err := base64.StdEncoding.DecodeString(headerSignature)
	if err != nil {
		return false, ErrInvalidEncoding
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	if !hmac.Equal(mac.Sum(nil), provided) {
		return false, ErrSignatureMismatch
	}
	return true, nil
}
