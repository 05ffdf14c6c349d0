package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/shopcore-next/internal/models"
)

const adminAuthStateCacheTTL = 10 * time.Minute

// SessionIdentity 会话对应的用户身份快照
// 仅缓存令牌哈希对应的身份，不缓存原始令牌
type SessionIdentity struct {
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	ExpiresAt   int64  `json:"expires_at"`
}

// AdminAuthState 管理员鉴权快照
type AdminAuthState struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	IsSuper      bool   `json:"is_super"`
	UpdatedAt    int64  `json:"updated_at"`
}

func sessionKey(tokenHash string) string {
	return "session:" + tokenHash
}

func adminAuthStateKey(adminID uint) string {
	return fmt.Sprintf("auth:admin:%d", adminID)
}

// GetSessionIdentity 获取会话身份缓存
func GetSessionIdentity(ctx context.Context, tokenHash string) (*SessionIdentity, bool, error) {
	if tokenHash == "" {
		return nil, false, nil
	}
	var identity SessionIdentity
	hit, err := GetJSON(ctx, sessionKey(tokenHash), &identity)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &identity, true, nil
}

// SetSessionIdentity 写入会话身份缓存，ttl 不超过会话剩余时间
func SetSessionIdentity(ctx context.Context, tokenHash string, identity *SessionIdentity, ttl time.Duration) error {
	if tokenHash == "" || identity == nil || ttl <= 0 {
		return nil
	}
	return SetJSON(ctx, sessionKey(tokenHash), identity, ttl)
}

// DelSessionIdentity 删除会话身份缓存
func DelSessionIdentity(ctx context.Context, tokenHashes ...string) error {
	for _, hash := range tokenHashes {
		if hash == "" {
			continue
		}
		if err := Del(ctx, sessionKey(hash)); err != nil {
			return err
		}
	}
	return nil
}

// BuildAdminAuthState 从管理员模型构建鉴权快照
func BuildAdminAuthState(admin *models.Admin) *AdminAuthState {
	if admin == nil {
		return nil
	}
	return &AdminAuthState{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		IsSuper:      admin.IsSuper,
		UpdatedAt:    time.Now().Unix(),
	}
}

// GetAdminAuthState 获取管理员鉴权快照
func GetAdminAuthState(ctx context.Context, adminID uint) (*AdminAuthState, bool, error) {
	if adminID == 0 {
		return nil, false, nil
	}
	var state AdminAuthState
	hit, err := GetJSON(ctx, adminAuthStateKey(adminID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetAdminAuthState 写入管理员鉴权快照
func SetAdminAuthState(ctx context.Context, state *AdminAuthState) error {
	if state == nil || state.AdminID == 0 {
		return nil
	}
	return SetJSON(ctx, adminAuthStateKey(state.AdminID), state, adminAuthStateCacheTTL)
}
