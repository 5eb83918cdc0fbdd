package model

import "time"

// refreshtokenは平文を保存しない（hashのみ）。
type RefreshToken struct {
	ID        string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	TokenHash string     `gorm:"not null;uniqueIndex" json:"-"`
	UserAgent string     `gorm:"type:varchar(500)" json:"user_agent"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	UsedAt    *time.Time `gorm:"index" json:"used_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	CreatedAt time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (t *RefreshToken) Usable(now time.Time) bool {
	if t.RevokedAt != nil || t.UsedAt != nil {
		return false
	}
	return now.Before(t.ExpiresAt)
}
