package stripe

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopcore-next/internal/constants"
)

func checkoutCompletedBody(t *testing.T, created int64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"id":   "evt_test_1",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":         "checkout.session",
				"id":             "cs_test_123",
				"payment_status": "paid",
				"currency":       "usd",
				"amount_total":   29000,
				"created":        created,
				"payment_intent": "pi_test_9",
				"metadata": map[string]interface{}{
					"order_no": "SC20260101000000123456",
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return body
}

func TestVerifyAndParseWebhookCheckoutCompleted(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 300}
	body := checkoutCompletedBody(t, now.Unix())

	result, err := VerifyAndParseWebhook(cfg, SignPayload(cfg.WebhookSecret, now.Unix(), body), body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if result.EventType != "checkout.session.completed" {
		t.Fatalf("unexpected event type: %s", result.EventType)
	}
	if result.ProviderRef != "cs_test_123" {
		t.Fatalf("unexpected provider ref: %s", result.ProviderRef)
	}
	if result.PaymentIntentID != "pi_test_9" {
		t.Fatalf("unexpected payment intent: %s", result.PaymentIntentID)
	}
	if result.OrderNo != "SC20260101000000123456" {
		t.Fatalf("unexpected order no: %s", result.OrderNo)
	}
	if result.Status != constants.ProviderStatusSuccess {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.Amount == nil || result.Amount.StringFixed(2) != "290.00" {
		t.Fatalf("unexpected amount: %v", result.Amount)
	}
}

func TestVerifyAndParseWebhookInvalidSignature(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := Config{WebhookSecret: "whsec_test_abc"}
	body := checkoutCompletedBody(t, now.Unix())

	_, err := VerifyAndParseWebhook(cfg, "t=1760000000,v1=invalid-signature", body, now)
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestVerifyAndParseWebhookOutsideTolerance(t *testing.T) {
	signedAt := time.Unix(1760000000, 0)
	cfg := Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 60}
	body := checkoutCompletedBody(t, signedAt.Unix())
	header := SignPayload(cfg.WebhookSecret, signedAt.Unix(), body)

	_, err := VerifyAndParseWebhook(cfg, header, body, signedAt.Add(2*time.Minute))
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected tolerance error, got %v", err)
	}
}

func TestVerifyAndParseWebhookRequiresSecret(t *testing.T) {
	_, err := VerifyAndParseWebhook(Config{}, "t=1,v1=abc", []byte(`{}`), time.Now())
	if !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestPaymentIntentZeroDecimalCurrency(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := Config{WebhookSecret: "whsec_test_abc"}
	body, _ := json.Marshal(map[string]interface{}{
		"id":   "evt_test_2",
		"type": "payment_intent.payment_failed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":   "payment_intent",
				"id":       "pi_test_2",
				"currency": "jpy",
				"amount":   1500,
			},
		},
	})

	result, err := VerifyAndParseWebhook(cfg, SignPayload(cfg.WebhookSecret, now.Unix(), body), body, now)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.Status != constants.ProviderStatusFailed {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.ProviderRef != "pi_test_2" {
		t.Fatalf("unexpected provider ref: %s", result.ProviderRef)
	}
	if result.Amount == nil || result.Amount.String() != "1500" {
		t.Fatalf("unexpected amount: %v", result.Amount)
	}
}

func TestMapPaymentIntentStatus(t *testing.T) {
	cases := map[string]string{
		"succeeded":               constants.ProviderStatusSuccess,
		"processing":              constants.ProviderStatusPending,
		"canceled":                constants.ProviderStatusFailed,
		"requires_payment_method": constants.ProviderStatusFailed,
	}
	for input, want := range cases {
		if got := mapPaymentIntentStatus(input); got != want {
			t.Fatalf("status %s: expected %s, got %s", input, want, got)
		}
	}
}
