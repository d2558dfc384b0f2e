package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
)

// SignWebhookBody computes HMAC-SHA256(body, secret) hex-encoded. The gateway
// sends this in X-Payment-Signature on every callback.
func SignWebhookBody(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyWebhookSignature checks a callback signature in constant time.
// A missing secret fails every request rather than skipping the check.
func VerifyWebhookSignature(body []byte, signature string) error {
	secret := os.Getenv("PAYMENT_WEBHOOK_SECRET")
	if secret == "" {
		return errors.New("PAYMENT_WEBHOOK_SECRET not set")
	}
	if signature == "" {
		return errors.New("missing signature")
	}
	expected := SignWebhookBody(body, secret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return errors.New("signature mismatch")
	}
	return nil
}
