package store

import (
	"errors"
	"testing"

	"taskmarket/models"
)

func TestValidPaymentTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.PaymentStatusPending, models.PaymentStatusProcessing, true},
		{models.PaymentStatusPending, models.PaymentStatusCompleted, true},
		{models.PaymentStatusPending, models.PaymentStatusFailed, true},
		{models.PaymentStatusPending, models.PaymentStatusCancelled, true},
		{models.PaymentStatusProcessing, models.PaymentStatusCompleted, true},
		{models.PaymentStatusProcessing, models.PaymentStatusFailed, true},
		{models.PaymentStatusProcessing, models.PaymentStatusPending, false},
		{models.PaymentStatusCompleted, models.PaymentStatusFailed, false},
		{models.PaymentStatusCompleted, models.PaymentStatusProcessing, false},
		{models.PaymentStatusFailed, models.PaymentStatusCompleted, false},
		{models.PaymentStatusCancelled, models.PaymentStatusPending, false},
	}
	for _, c := range cases {
		if got := ValidPaymentTransition(c.from, c.to); got != c.want {
			t.Fatalf("ValidPaymentTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestPaymentTerminalAndSettling(t *testing.T) {
	terminal := map[string]bool{
		models.PaymentStatusPending:    false,
		models.PaymentStatusProcessing: false,
		models.PaymentStatusCompleted:  true,
		models.PaymentStatusFailed:     true,
		models.PaymentStatusCancelled:  true,
	}
	settling := map[string]bool{
		models.PaymentStatusPending:    true,
		models.PaymentStatusProcessing: true,
		models.PaymentStatusCompleted:  true,
		models.PaymentStatusFailed:     false,
		models.PaymentStatusCancelled:  false,
	}
	for status, want := range terminal {
		p := models.Payment{Status: status}
		if p.IsTerminal() != want {
			t.Fatalf("IsTerminal(%s) = %v, want %v", status, p.IsTerminal(), want)
		}
	}
	for status, want := range settling {
		p := models.Payment{Status: status}
		if p.IsSettling() != want {
			t.Fatalf("IsSettling(%s) = %v, want %v", status, p.IsSettling(), want)
		}
	}
}

func TestApplyTransitionRecordsHash(t *testing.T) {
	p := models.Payment{Status: models.PaymentStatusPending}
	hash := "0xdeadbeef"
	if err := applyTransition(&p, models.PaymentStatusCompleted, &hash, nil); err != nil {
		t.Fatalf("applyTransition: %v", err)
	}
	if p.Status != models.PaymentStatusCompleted {
		t.Fatalf("status = %s, want completed", p.Status)
	}
	if p.TransactionHash == nil || *p.TransactionHash != hash {
		t.Fatalf("transaction hash = %v, want %q", p.TransactionHash, hash)
	}
}

func TestApplyTransitionRejectedLeavesPaymentUntouched(t *testing.T) {
	hash := "0xoriginal"
	p := models.Payment{Status: models.PaymentStatusCompleted, TransactionHash: &hash}
	newHash := "0xlate"
	err := applyTransition(&p, models.PaymentStatusFailed, &newHash, nil)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if p.Status != models.PaymentStatusCompleted || *p.TransactionHash != hash {
		t.Fatalf("rejected transition mutated payment: status=%s hash=%s", p.Status, *p.TransactionHash)
	}
}

func TestApplyWebhookEventAppliedThenReplay(t *testing.T) {
	p := models.Payment{Status: models.PaymentStatusPending, ExternalPaymentID: "ext-1"}
	hash := "0xabc"
	ev := WebhookEvent{ExternalPaymentID: "ext-1", Status: models.PaymentStatusCompleted, TransactionHash: &hash}

	outcome, err := applyWebhookEvent(&p, ev)
	if err != nil || outcome != webhookApplied {
		t.Fatalf("first delivery: outcome=%v err=%v, want applied", outcome, err)
	}
	if p.Status != models.PaymentStatusCompleted {
		t.Fatalf("status = %s, want completed", p.Status)
	}

	// The gateway redelivers the same event. Nothing changes and the caller
	// must not settle again.
	outcome, err = applyWebhookEvent(&p, ev)
	if err != nil || outcome != webhookReplay {
		t.Fatalf("redelivery: outcome=%v err=%v, want replay", outcome, err)
	}
	if p.TransactionHash == nil || *p.TransactionHash != hash {
		t.Fatalf("replay mutated hash to %v", p.TransactionHash)
	}
}

func TestApplyWebhookEventTerminalConflict(t *testing.T) {
	p := models.Payment{Status: models.PaymentStatusFailed, ExternalPaymentID: "ext-1"}
	ev := WebhookEvent{ExternalPaymentID: "ext-1", Status: models.PaymentStatusCompleted}

	outcome, err := applyWebhookEvent(&p, ev)
	if err != nil || outcome != webhookConflict {
		t.Fatalf("outcome=%v err=%v, want conflict without error", outcome, err)
	}
	if p.Status != models.PaymentStatusFailed {
		t.Fatalf("conflicting delivery mutated status to %s", p.Status)
	}
}

func TestApplyWebhookEventInvalidTransition(t *testing.T) {
	p := models.Payment{Status: models.PaymentStatusProcessing, ExternalPaymentID: "ext-1"}
	ev := WebhookEvent{ExternalPaymentID: "ext-1", Status: models.PaymentStatusPending}

	_, err := applyWebhookEvent(&p, ev)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
	if p.Status != models.PaymentStatusProcessing {
		t.Fatalf("invalid delivery mutated status to %s", p.Status)
	}
}

func TestValidCurrencyAndType(t *testing.T) {
	for _, c := range []string{"WLD", "ETH", "USDC"} {
		if !validCurrency(c) {
			t.Fatalf("%s rejected", c)
		}
	}
	if validCurrency("BTC") || validCurrency("") {
		t.Fatal("unknown currency accepted")
	}
	for _, pt := range []string{"task_reward", "escrow_deposit", "escrow_release", "refund"} {
		if !validPaymentType(pt) {
			t.Fatalf("%s rejected", pt)
		}
	}
	if validPaymentType("tip") {
		t.Fatal("unknown payment type accepted")
	}
}
