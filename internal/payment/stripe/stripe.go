package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopcore-next/internal/constants"

	"github.com/shopspring/decimal"
)

var (
	ErrConfigInvalid    = errors.New("stripe config invalid")
	ErrPayloadInvalid   = errors.New("stripe payload invalid")
	ErrSignatureInvalid = errors.New("stripe signature invalid")
)

const (
	signatureHeaderName      = "Stripe-Signature"
	defaultWebhookToleranceS = 300
)

var zeroDecimalCurrencies = map[string]struct{}{
	"BIF": {},
	"CLP": {},
	"DJF": {},
	"GNF": {},
	"JPY": {},
	"KMF": {},
	"KRW": {},
	"MGA": {},
	"PYG": {},
	"RWF": {},
	"UGX": {},
	"VND": {},
	"VUV": {},
	"XAF": {},
	"XOF": {},
	"XPF": {},
}

// Config Stripe webhook 校验配置
type Config struct {
	WebhookSecret           string
	WebhookToleranceSeconds int
}

// WebhookResult Stripe 事件解析结果，状态已映射为统一的渠道状态
type WebhookResult struct {
	EventID         string
	EventType       string
	OrderNo         string
	ProviderRef     string
	PaymentIntentID string
	Status          string
	Currency        string
	Amount          *decimal.Decimal
	OccurredAt      *time.Time
}

type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type eventObject struct {
	Object            string            `json:"object"`
	ID                string            `json:"id"`
	Currency          string            `json:"currency"`
	AmountTotal       int64             `json:"amount_total"`
	AmountReceived    int64             `json:"amount_received"`
	Amount            int64             `json:"amount"`
	PaymentStatus     string            `json:"payment_status"`
	Status            string            `json:"status"`
	Created           int64             `json:"created"`
	ClientReferenceID string            `json:"client_reference_id"`
	Metadata          map[string]string `json:"metadata"`
	PaymentIntent     json.RawMessage   `json:"payment_intent"`
}

// VerifyAndParseWebhook 校验签名并解析 webhook 事件
func VerifyAndParseWebhook(cfg Config, signatureHeader string, body []byte, now time.Time) (*WebhookResult, error) {
	secret := strings.TrimSpace(cfg.WebhookSecret)
	if secret == "" {
		return nil, fmt.Errorf("%w: webhook_secret is required", ErrConfigInvalid)
	}
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: body is empty", ErrPayloadInvalid)
	}
	if now.IsZero() {
		now = time.Now()
	}
	if err := verifySignature(secret, toleranceOf(cfg), signatureHeader, body, now); err != nil {
		return nil, err
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: decode event failed", ErrPayloadInvalid)
	}
	event.Type = strings.TrimSpace(event.Type)
	if event.Type == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrPayloadInvalid)
	}
	if len(event.Data.Object) == 0 {
		return nil, fmt.Errorf("%w: missing event object", ErrPayloadInvalid)
	}
	var object eventObject
	if err := json.Unmarshal(event.Data.Object, &object); err != nil {
		return nil, fmt.Errorf("%w: decode event object failed", ErrPayloadInvalid)
	}

	result := &WebhookResult{
		EventID:   strings.TrimSpace(event.ID),
		EventType: event.Type,
	}
	fillResult(result, &object)
	return result, nil
}

// SignPayload 生成 Stripe-Signature 头，供本地联调与测试使用
func SignPayload(secret string, timestamp int64, body []byte) string {
	return "t=" + strconv.FormatInt(timestamp, 10) + ",v1=" + computeSignature(secret, timestamp, body)
}

// HeaderName 返回签名头名称
func HeaderName() string {
	return signatureHeaderName
}

func toleranceOf(cfg Config) time.Duration {
	if cfg.WebhookToleranceSeconds <= 0 {
		return defaultWebhookToleranceS * time.Second
	}
	return time.Duration(cfg.WebhookToleranceSeconds) * time.Second
}

func verifySignature(secret string, tolerance time.Duration, header string, body []byte, now time.Time) error {
	if strings.TrimSpace(header) == "" {
		return fmt.Errorf("%w: %s is required", ErrSignatureInvalid, signatureHeaderName)
	}
	timestamp, signatures, err := parseSignatureHeader(header)
	if err != nil {
		return err
	}
	delta := now.Sub(time.Unix(timestamp, 0))
	if delta < 0 {
		delta = -delta
	}
	if delta > tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrSignatureInvalid)
	}
	expected := []byte(computeSignature(secret, timestamp, body))
	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), expected) {
			return nil
		}
	}
	return fmt.Errorf("%w: verify failed", ErrSignatureInvalid)
}

func fillResult(result *WebhookResult, object *eventObject) {
	result.Currency = strings.ToUpper(strings.TrimSpace(object.Currency))
	result.OrderNo = strings.TrimSpace(object.Metadata["order_no"])
	if result.OrderNo == "" {
		result.OrderNo = strings.TrimSpace(object.ClientReferenceID)
	}
	if object.Created > 0 {
		occurred := time.Unix(object.Created, 0)
		result.OccurredAt = &occurred
	}

	var minor int64
	switch strings.TrimSpace(object.Object) {
	case "checkout.session":
		result.ProviderRef = strings.TrimSpace(object.ID)
		result.PaymentIntentID = readPaymentIntentID(object.PaymentIntent)
		minor = object.AmountTotal
		if status, ok := mapEventTypeStatus(result.EventType); ok {
			result.Status = status
		} else {
			result.Status = mapCheckoutSessionStatus(object.PaymentStatus, object.Status)
		}
	case "payment_intent":
		result.PaymentIntentID = strings.TrimSpace(object.ID)
		result.ProviderRef = result.PaymentIntentID
		minor = object.AmountReceived
		if minor <= 0 {
			minor = object.Amount
		}
		if status, ok := mapEventTypeStatus(result.EventType); ok {
			result.Status = status
		} else {
			result.Status = mapPaymentIntentStatus(object.Status)
		}
	default:
		result.ProviderRef = strings.TrimSpace(object.ID)
		if status, ok := mapEventTypeStatus(result.EventType); ok {
			result.Status = status
		}
	}
	if minor > 0 && result.Currency != "" {
		amount := fromMinorAmount(minor, result.Currency)
		result.Amount = &amount
	}
}

func mapEventTypeStatus(eventType string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded", "payment_intent.succeeded":
		return constants.ProviderStatusSuccess, true
	case "checkout.session.expired":
		return constants.ProviderStatusExpired, true
	case "checkout.session.async_payment_failed", "payment_intent.payment_failed", "payment_intent.canceled":
		return constants.ProviderStatusFailed, true
	case "payment_intent.processing":
		return constants.ProviderStatusPending, true
	default:
		return "", false
	}
}

func mapCheckoutSessionStatus(paymentStatus string, sessionStatus string) string {
	paymentStatus = strings.ToLower(strings.TrimSpace(paymentStatus))
	sessionStatus = strings.ToLower(strings.TrimSpace(sessionStatus))
	switch {
	case paymentStatus == "paid":
		return constants.ProviderStatusSuccess
	case sessionStatus == "expired":
		return constants.ProviderStatusExpired
	case sessionStatus == "complete" && paymentStatus == "no_payment_required":
		return constants.ProviderStatusSuccess
	default:
		return constants.ProviderStatusPending
	}
}

func mapPaymentIntentStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "succeeded":
		return constants.ProviderStatusSuccess
	case "canceled", "requires_payment_method":
		return constants.ProviderStatusFailed
	default:
		return constants.ProviderStatusPending
	}
}

func fromMinorAmount(minor int64, currency string) decimal.Decimal {
	return decimal.NewFromInt(minor).Shift(-currencyScale(currency))
}

func currencyScale(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return 0
	}
	return 2
}

// payment_intent 可能是字符串 ID，也可能是展开后的对象
func readPaymentIntentID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return strings.TrimSpace(id)
	}
	var expanded struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &expanded); err == nil {
		return strings.TrimSpace(expanded.ID)
	}
	return ""
}

func computeSignature(secret string, timestamp int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	_, _ = h.Write([]byte(strconv.FormatInt(timestamp, 10)))
	_, _ = h.Write([]byte("."))
	_, _ = h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

func parseSignatureHeader(header string) (int64, []string, error) {
	var timestamp int64
	signatures := make([]string, 0, 1)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.TrimSpace(key) {
		case "t":
			parsed, err := strconv.ParseInt(value, 10, 64)
			if err != nil || parsed <= 0 {
				return 0, nil, fmt.Errorf("%w: invalid timestamp", ErrSignatureInvalid)
			}
			timestamp = parsed
		case "v1":
			if value != "" {
				signatures = append(signatures, strings.ToLower(value))
			}
		}
	}
	if timestamp <= 0 {
		return 0, nil, fmt.Errorf("%w: timestamp is missing", ErrSignatureInvalid)
	}
	if len(signatures) == 0 {
		return 0, nil, fmt.Errorf("%w: v1 signature is missing", ErrSignatureInvalid)
	}
	return timestamp, signatures, nil
}
