package utils

import "testing"

func TestVerifyWebhookSignature(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "testsecret")
	body := []byte(`{"payment_id":"abc","status":"completed"}`)

	sig := SignWebhookBody(body, "testsecret")
	if err := VerifyWebhookSignature(body, sig); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifyWebhookSignatureTamperedBody(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "testsecret")
	body := []byte(`{"payment_id":"abc","status":"completed"}`)
	sig := SignWebhookBody(body, "testsecret")

	tampered := []byte(`{"payment_id":"abc","status":"failed"}`)
	if err := VerifyWebhookSignature(tampered, sig); err == nil {
		t.Fatal("tampered body accepted")
	}
}

func TestVerifyWebhookSignatureWrongSecret(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "testsecret")
	body := []byte(`{"payment_id":"abc"}`)
	sig := SignWebhookBody(body, "othersecret")
	if err := VerifyWebhookSignature(body, sig); err == nil {
		t.Fatal("signature from wrong secret accepted")
	}
}

func TestVerifyWebhookSignatureMissing(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "testsecret")
	if err := VerifyWebhookSignature([]byte(`{}`), ""); err == nil {
		t.Fatal("missing signature accepted")
	}
}

func TestVerifyWebhookSignatureNoSecretConfigured(t *testing.T) {
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "")
	body := []byte(`{}`)
	if err := VerifyWebhookSignature(body, SignWebhookBody(body, "")); err == nil {
		t.Fatal("verification passed with no secret configured")
	}
}
