package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/shopcore-next/internal/constants"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
)

const (
	maxPaymentExpireMinutes  = 10080
	settingTextMaxRuneSize   = 500
	settingSiteNameMaxRune   = 120
	settingLanguagesMaxCount = 8
)

var settingSupportedLanguages = map[string]bool{"zh-CN": true, "zh-TW": true, "en-US": true}

// SettingService 设置业务服务
type SettingService struct {
	repo repository.SettingRepository
}

// NewSettingService 创建设置服务
func NewSettingService(repo repository.SettingRepository) *SettingService {
	return &SettingService{repo: repo}
}

// GetSiteConfig 获取站点配置（合并默认值）
func (s *SettingService) GetSiteConfig(ctx context.Context, defaults map[string]interface{}) (map[string]interface{}, error) {
	data := make(map[string]interface{}, len(defaults))
	for k, v := range defaults {
		data[k] = v
	}
	value, err := s.GetByKey(ctx, constants.SettingKeySiteConfig)
	if err != nil {
		return nil, err
	}
	for k, v := range value {
		data[k] = v
	}
	return data, nil
}

// GetByKey 获取设置，不存在时返回 nil
func (s *SettingService) GetByKey(ctx context.Context, key string) (models.JSON, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrSettingKeyEmpty
	}
	setting, err := s.repo.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if setting == nil {
		return nil, nil
	}
	return setting.ValueJSON, nil
}

// List 获取全部设置
func (s *SettingService) List(ctx context.Context) ([]models.Setting, error) {
	return s.repo.List(ctx)
}

// Update 归一化后写入设置，仅接受已知的设置键
func (s *SettingService) Update(ctx context.Context, key string, value map[string]interface{}) (models.JSON, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrSettingKeyEmpty
	}
	var normalized models.JSON
	switch key {
	case constants.SettingKeyOrderConfig:
		normalized = normalizeOrderSetting(value)
	case constants.SettingKeySiteConfig:
		normalized = normalizeSiteSetting(value)
	default:
		return nil, fmt.Errorf("%w: %s", ErrSettingNotFound, key)
	}
	setting, err := s.repo.Upsert(ctx, key, normalized)
	if err != nil {
		return nil, err
	}
	return setting.ValueJSON, nil
}

// GetOrderPaymentExpireMinutes 获取订单超时分钟配置
func (s *SettingService) GetOrderPaymentExpireMinutes(ctx context.Context, defaultValue int) (int, error) {
	if s == nil {
		return defaultValue, nil
	}
	value, err := s.GetByKey(ctx, constants.SettingKeyOrderConfig)
	if err != nil {
		return defaultValue, err
	}
	raw, ok := value[constants.SettingFieldPaymentExpireMinutes]
	if !ok {
		return defaultValue, nil
	}
	minutes, err := parseSettingInt(raw)
	if err != nil {
		return defaultValue, err
	}
	if minutes <= 0 {
		return defaultValue, nil
	}
	return minutes, nil
}

// normalizeOrderSetting 归一化订单设置
func normalizeOrderSetting(value map[string]interface{}) models.JSON {
	normalized := make(models.JSON, 1)
	expireMinutes := defaultPaymentExpireMinutes
	if raw, ok := value[constants.SettingFieldPaymentExpireMinutes]; ok {
		if parsed, err := parseSettingInt(raw); err == nil && parsed > 0 {
			expireMinutes = parsed
		}
	}
	if expireMinutes > maxPaymentExpireMinutes {
		expireMinutes = maxPaymentExpireMinutes
	}
	normalized[constants.SettingFieldPaymentExpireMinutes] = expireMinutes
	return normalized
}

// normalizeSiteSetting 归一化站点配置，未知字段丢弃
func normalizeSiteSetting(value map[string]interface{}) models.JSON {
	normalized := make(models.JSON, 4)
	normalized[constants.SettingFieldSiteName] = truncateRunes(settingString(value[constants.SettingFieldSiteName]), settingSiteNameMaxRune)
	normalized[constants.SettingFieldAnnouncement] = truncateRunes(settingString(value[constants.SettingFieldAnnouncement]), settingTextMaxRuneSize)

	email := strings.ToLower(settingString(value[constants.SettingFieldSupportEmail]))
	if _, err := mail.ParseAddress(email); err != nil {
		email = ""
	}
	normalized[constants.SettingFieldSupportEmail] = email
	normalized[constants.SettingFieldLanguages] = normalizeSiteLanguages(value[constants.SettingFieldLanguages])
	return normalized
}

func normalizeSiteLanguages(raw interface{}) []string {
	list, ok := raw.([]interface{})
	if !ok {
		return []string{}
	}
	seen := make(map[string]bool, len(list))
	languages := make([]string, 0, len(list))
	for _, item := range list {
		lang := settingString(item)
		if !settingSupportedLanguages[lang] || seen[lang] {
			continue
		}
		seen[lang] = true
		languages = append(languages, lang)
		if len(languages) >= settingLanguagesMaxCount {
			break
		}
	}
	return languages
}

func settingString(raw interface{}) string {
	value, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func parseSettingInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), nil
		}
		if f, err := v.Float64(); err == nil {
			return int(f), nil
		}
		return 0, fmt.Errorf("invalid json number")
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, fmt.Errorf("empty string")
		}
		return strconv.Atoi(trimmed)
	default:
		return 0, fmt.Errorf("unsupported value type")
	}
}
