package models

import "time"

const (
	ReviewActionStartReview = "start_review"
	ReviewActionApprove     = "approve"
	ReviewActionReject      = "reject"
)

// Review is an append-only audit record of a reviewer decision. The
// submission row carries the current state; this table keeps the history.
type Review struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	ReviewerID   uint      `gorm:"not null;index" json:"reviewer_id"`
	Action       string    `gorm:"type:enum('start_review','approve','reject');not null" json:"action"`
	QualityScore *float64  `gorm:"type:decimal(3,2)" json:"quality_score,omitempty"`
	Notes        *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}
