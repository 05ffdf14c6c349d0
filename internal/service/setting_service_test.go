package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopcore-next/internal/constants"
)

func TestUpdateOrderSettingNormalized(t *testing.T) {
	env := newServiceTestEnv(t)

	result, err := env.settings.Update(context.Background(), constants.SettingKeyOrderConfig, map[string]interface{}{
		constants.SettingFieldPaymentExpireMinutes: "20000",
		"extra": "dropped",
	})
	if err != nil {
		t.Fatalf("update order config failed: %v", err)
	}
	minutes, err := parseSettingInt(result[constants.SettingFieldPaymentExpireMinutes])
	if err != nil {
		t.Fatalf("parse payment_expire_minutes failed: %v", err)
	}
	if minutes != maxPaymentExpireMinutes {
		t.Fatalf("expected clamp to %d, got %d", maxPaymentExpireMinutes, minutes)
	}
	if _, ok := result["extra"]; ok {
		t.Fatalf("unknown field should be dropped")
	}

	got, err := env.settings.GetOrderPaymentExpireMinutes(context.Background(), 30)
	if err != nil || got != maxPaymentExpireMinutes {
		t.Fatalf("expected stored minutes, got %d err=%v", got, err)
	}
}

func TestGetOrderPaymentExpireMinutesFallback(t *testing.T) {
	env := newServiceTestEnv(t)
	got, err := env.settings.GetOrderPaymentExpireMinutes(context.Background(), 45)
	if err != nil || got != 45 {
		t.Fatalf("expected fallback 45, got %d err=%v", got, err)
	}
	var nilService *SettingService
	if got, _ := nilService.GetOrderPaymentExpireMinutes(context.Background(), 12); got != 12 {
		t.Fatalf("nil service should return default, got %d", got)
	}
}

func TestUpdateSiteSettingNormalized(t *testing.T) {
	env := newServiceTestEnv(t)

	result, err := env.settings.Update(context.Background(), constants.SettingKeySiteConfig, map[string]interface{}{
		constants.SettingFieldSiteName:     "  Shop Core  ",
		constants.SettingFieldSupportEmail: "not-an-email",
		constants.SettingFieldLanguages:    []interface{}{"en-US", "fr-FR", "en-US", "zh-CN"},
	})
	if err != nil {
		t.Fatalf("update site config failed: %v", err)
	}
	if result[constants.SettingFieldSiteName] != "Shop Core" {
		t.Fatalf("site name not trimmed: %v", result[constants.SettingFieldSiteName])
	}
	if result[constants.SettingFieldSupportEmail] != "" {
		t.Fatalf("invalid email should be cleared: %v", result[constants.SettingFieldSupportEmail])
	}

	merged, err := env.settings.GetSiteConfig(context.Background(), map[string]interface{}{"currency": "USD"})
	if err != nil {
		t.Fatalf("get site config failed: %v", err)
	}
	if merged["currency"] != "USD" || merged[constants.SettingFieldSiteName] != "Shop Core" {
		t.Fatalf("unexpected merged config: %v", merged)
	}
	languages, ok := merged[constants.SettingFieldLanguages].([]interface{})
	if !ok || len(languages) != 2 {
		t.Fatalf("expected two supported languages, got %#v", merged[constants.SettingFieldLanguages])
	}
}

func TestUpdateSettingRejectsUnknownKey(t *testing.T) {
	env := newServiceTestEnv(t)
	if _, err := env.settings.Update(context.Background(), "smtp_config", map[string]interface{}{}); !errors.Is(err, ErrSettingNotFound) {
		t.Fatalf("expected setting not found, got %v", err)
	}
	if _, err := env.settings.Update(context.Background(), " ", nil); !errors.Is(err, ErrSettingKeyEmpty) {
		t.Fatalf("expected empty key error, got %v", err)
	}
}
