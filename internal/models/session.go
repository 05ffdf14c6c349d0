package models

import "time"

// Session 用户会话表，仅保存令牌哈希
type Session struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                    // 主键
	TokenHash string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`          // 令牌 SHA-256 哈希
	UserID    uint      `gorm:"index;not null" json:"user_id"`                           // 用户ID
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`                        // 过期时间
	UserAgent string    `gorm:"type:varchar(255);not null;default:''" json:"user_agent"` // 客户端 UA
	IP        string    `gorm:"type:varchar(64);not null;default:''" json:"ip"`          // 客户端 IP
	CreatedAt time.Time `gorm:"index" json:"created_at"`                                 // 创建时间

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"` // 关联用户
}

// TableName 指定表名
func (Session) TableName() string {
	return "sessions"
}

// IsExpired 判断会话在给定时间点是否已过期
func (s *Session) IsExpired(now time.Time) bool {
	return s == nil || !now.Before(s.ExpiresAt)
}
