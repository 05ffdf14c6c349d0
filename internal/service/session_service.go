package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"time"

	"github.com/shopcore-next/internal/cache"
	"github.com/shopcore-next/internal/config"
	"github.com/shopcore-next/internal/logger"
	"github.com/shopcore-next/internal/models"
	"github.com/shopcore-next/internal/repository"
)

const (
	sessionTokenBytes        = 32
	sessionTokenLength       = 43 // base64url 无填充编码后的长度
	defaultSessionTTLHours   = 24 * 7
	defaultSessionCacheTTL   = 5 * time.Minute
	sessionUserAgentMaxChars = 255
)

// ClientMeta 创建会话时记录的客户端信息
type ClientMeta struct {
	UserAgent string
	IP        string
}

// Identity 会话校验通过后的用户身份
type Identity struct {
	UserID      uint      `json:"user_id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IssuedSession 新建会话结果，Token 仅返回这一次
type IssuedSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionService 用户会话服务
type SessionService struct {
	sessionRepo repository.SessionRepository
	ttl         time.Duration
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewSessionService 创建会话服务
func NewSessionService(sessionRepo repository.SessionRepository, cfg config.SessionConfig) *SessionService {
	ttlHours := cfg.TTLHours
	if ttlHours <= 0 {
		ttlHours = defaultSessionTTLHours
	}
	cacheTTL := defaultSessionCacheTTL
	if cfg.CacheSeconds > 0 {
		cacheTTL = time.Duration(cfg.CacheSeconds) * time.Second
	}
	return &SessionService{
		sessionRepo: sessionRepo,
		ttl:         time.Duration(ttlHours) * time.Hour,
		cacheTTL:    cacheTTL,
		now:         time.Now,
	}
}

// Create 为用户创建会话，返回原始令牌
func (s *SessionService) Create(ctx context.Context, userID uint, meta ClientMeta) (*IssuedSession, error) {
	if userID == 0 {
		return nil, ErrUserNotFound
	}
	token, err := generateSessionToken()
	if err != nil {
		return nil, err
	}
	now := s.now()
	session := &models.Session{
		TokenHash: hashSessionToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(s.ttl),
		UserAgent: truncateRunes(strings.TrimSpace(meta.UserAgent), sessionUserAgentMaxChars),
		IP:        strings.TrimSpace(meta.IP),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}
	return &IssuedSession{Token: token, ExpiresAt: session.ExpiresAt}, nil
}

// Verify 校验令牌，任何失败均返回 nil
func (s *SessionService) Verify(ctx context.Context, token string) *Identity {
	if !isWellFormedSessionToken(token) {
		return nil
	}
	tokenHash := hashSessionToken(token)
	now := s.now()

	cached, hit, err := cache.GetSessionIdentity(ctx, tokenHash)
	if err != nil {
		logger.Ctx(ctx).Warnw("session_cache_get_failed", "error", err)
	}
	if hit && cached != nil {
		expiresAt := time.Unix(cached.ExpiresAt, 0)
		if now.Before(expiresAt) {
			return &Identity{
				UserID:      cached.UserID,
				Email:       cached.Email,
				DisplayName: cached.DisplayName,
				ExpiresAt:   expiresAt,
			}
		}
		_ = cache.DelSessionIdentity(ctx, tokenHash)
		return nil
	}

	session, err := s.sessionRepo.GetActiveByTokenHash(ctx, tokenHash, now)
	if err != nil {
		logger.Ctx(ctx).Warnw("session_lookup_failed", "error", err)
		return nil
	}
	if session == nil || session.User == nil {
		return nil
	}

	identity := &Identity{
		UserID:      session.UserID,
		Email:       session.User.Email,
		DisplayName: session.User.DisplayName,
		ExpiresAt:   session.ExpiresAt,
	}
	ttl := s.cacheTTL
	if remaining := session.ExpiresAt.Sub(now); remaining < ttl {
		ttl = remaining
	}
	if err := cache.SetSessionIdentity(ctx, tokenHash, &cache.SessionIdentity{
		UserID:      identity.UserID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		ExpiresAt:   identity.ExpiresAt.Unix(),
	}, ttl); err != nil {
		logger.Ctx(ctx).Warnw("session_cache_set_failed", "error", err)
	}
	return identity
}

// Invalidate 注销会话，重复调用无副作用
func (s *SessionService) Invalidate(ctx context.Context, token string) error {
	if !isWellFormedSessionToken(token) {
		return nil
	}
	tokenHash := hashSessionToken(token)
	if _, err := s.sessionRepo.DeleteByTokenHash(ctx, tokenHash); err != nil {
		return err
	}
	if err := cache.DelSessionIdentity(ctx, tokenHash); err != nil {
		logger.Ctx(ctx).Warnw("session_cache_del_failed", "error", err)
	}
	return nil
}

// InvalidateAllForUser 注销用户全部会话
func (s *SessionService) InvalidateAllForUser(ctx context.Context, userID uint) error {
	if userID == 0 {
		return nil
	}
	hashes, err := s.sessionRepo.ListTokenHashesByUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.sessionRepo.DeleteByUser(ctx, userID); err != nil {
		return err
	}
	if err := cache.DelSessionIdentity(ctx, hashes...); err != nil {
		logger.Ctx(ctx).Warnw("session_cache_del_failed", "user_id", userID, "error", err)
	}
	return nil
}

// PurgeExpired 清理过期会话
func (s *SessionService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, s.now())
}

func generateSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func isWellFormedSessionToken(token string) bool {
	if len(token) != sessionTokenLength {
		return false
	}
	decoded, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil && len(decoded) == sessionTokenBytes
}

func truncateRunes(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
