package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	VerificationOrb    = "orb"
	VerificationDevice = "device"
)

const (
	RoleWorker   = "worker"
	RoleCreator  = "creator"
	RoleReviewer = "reviewer"
)

type User struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	WorldID           string          `gorm:"size:80;uniqueIndex;not null" json:"world_id"`
	NullifierHash     string          `gorm:"size:80;uniqueIndex;not null" json:"nullifier_hash"`
	Username          *string         `gorm:"size:50;uniqueIndex" json:"username,omitempty"`
	VerificationLevel string          `gorm:"type:enum('orb','device');default:'device'" json:"verification_level"`
	ReputationScore   uint            `gorm:"default:0" json:"reputation_score"`
	TotalEarned       decimal.Decimal `gorm:"type:decimal(20,8);default:0" json:"total_earned"`
	Role              string          `gorm:"type:enum('worker','creator','reviewer');default:'worker'" json:"role"`
	IsActive          bool            `gorm:"default:true" json:"is_active"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"-"`
}

func (User) TableName() string {
	return "users"
}

// HasVerificationLevel reports whether the user's trust tier satisfies the
// required tier. Orb strictly dominates device.
func (u *User) HasVerificationLevel(required string) bool {
	if required == "" || required == VerificationDevice {
		return true
	}
	return u.VerificationLevel == VerificationOrb
}
