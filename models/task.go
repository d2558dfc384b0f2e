package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TaskStatusDraft     = "draft"
	TaskStatusActive    = "active"
	TaskStatusPaused    = "paused"
	TaskStatusCompleted = "completed"
	TaskStatusCancelled = "cancelled"
)

const (
	TaskTypePairwiseRating = "pairwise_rating"
	TaskTypeVoiceRecording = "voice_recording"
	TaskTypeAnnotation     = "annotation"
	TaskTypeCustom         = "custom"
)

type Task struct {
	ID                   uint            `gorm:"primaryKey" json:"id"`
	CreatorID            uint            `gorm:"not null;index" json:"creator_id"`
	CategoryID           uint            `gorm:"not null;index" json:"category_id"`
	Category             *TaskCategory   `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Title                string          `gorm:"size:200;not null" json:"title"`
	Description          *string         `gorm:"type:text" json:"description,omitempty"`
	TaskType             string          `gorm:"type:enum('pairwise_rating','voice_recording','annotation','custom');not null" json:"task_type"`
	DifficultyLevel      int             `gorm:"not null;default:1" json:"difficulty_level"`
	RewardAmount         decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"reward_amount"`
	RewardCurrency       string          `gorm:"type:enum('WLD','ETH','USDC');default:'WLD'" json:"reward_currency"`
	MaxSubmissions       int             `gorm:"not null;default:1" json:"max_submissions"`
	RequiresVerification bool            `gorm:"default:false" json:"requires_verification"`
	RequiredLevel        string          `gorm:"type:enum('orb','device');default:'device'" json:"required_level"`
	Status               string          `gorm:"type:enum('draft','active','paused','completed','cancelled');default:'draft';index" json:"status"`
	Priority             int             `gorm:"default:3" json:"priority"`
	ExpiresAt            *time.Time      `json:"expires_at,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

// IsExpired reports whether the task's deadline has passed. Expiry is
// enforced at query time; there is no background sweeper.
func (t *Task) IsExpired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}
