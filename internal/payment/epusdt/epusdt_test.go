package epusdt

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopcore-next/internal/constants"
)

const testAuthToken = "epusdt-token"

func signedCallbackBody(t *testing.T, status int, amount string) []byte {
	t.Helper()
	data := CallbackData{
		TradeID:            "T202601010001",
		OrderID:            "SC20260101000000123456",
		Amount:             json.Number(amount),
		ActualAmount:       json.Number("41.42"),
		Token:              "TXwalletaddress",
		BlockTransactionID: "0xabc",
		Status:             status,
	}
	data.Signature = Sign(data.signParams(), testAuthToken)
	body, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal callback failed: %v", err)
	}
	return body
}

func TestVerifyCallbackSuccess(t *testing.T) {
	data, err := ParseCallback(signedCallbackBody(t, StatusSuccess, "290.00"))
	if err != nil {
		t.Fatalf("parse callback failed: %v", err)
	}
	result, err := VerifyCallback(testAuthToken, data)
	if err != nil {
		t.Fatalf("verify callback failed: %v", err)
	}
	if result.Status != constants.ProviderStatusSuccess {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if result.ProviderRef != "T202601010001" || result.OrderNo != "SC20260101000000123456" {
		t.Fatalf("unexpected refs: %+v", result)
	}
	if result.Amount == nil || result.Amount.StringFixed(2) != "290.00" {
		t.Fatalf("unexpected amount: %v", result.Amount)
	}
}

func TestVerifyCallbackRejectsTamperedBody(t *testing.T) {
	data, err := ParseCallback(signedCallbackBody(t, StatusSuccess, "290.00"))
	if err != nil {
		t.Fatalf("parse callback failed: %v", err)
	}
	data.Amount = json.Number("1.00")
	if _, err := VerifyCallback(testAuthToken, data); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestVerifyCallbackRequiresToken(t *testing.T) {
	if _, err := VerifyCallback("", &CallbackData{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestParseCallbackAcceptsQuotedAmount(t *testing.T) {
	body := []byte(`{"trade_id":"T1","order_id":"SC1","amount":"12.5","status":3}`)
	data, err := ParseCallback(body)
	if err != nil {
		t.Fatalf("parse callback failed: %v", err)
	}
	if data.Amount.String() != "12.5" {
		t.Fatalf("unexpected amount: %s", data.Amount)
	}
	if ToProviderStatus(data.Status) != constants.ProviderStatusExpired {
		t.Fatalf("unexpected status mapping")
	}
}

func TestSignSkipsEmptyValues(t *testing.T) {
	a := Sign(map[string]interface{}{"a": "1", "b": "", "signature": "x"}, "k")
	b := Sign(map[string]interface{}{"a": "1"}, "k")
	if a != b {
		t.Fatalf("empty values should not affect signature")
	}
}
