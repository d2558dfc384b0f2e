package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	SubmissionStatusPending     = "pending"
	SubmissionStatusUnderReview = "under_review"
	SubmissionStatusApproved    = "approved"
	SubmissionStatusRejected    = "rejected"
)

// Submission is one user's response to one task. The two unique indexes are
// the sybil-resistance guarantee at the data layer: a second submission by
// the same account OR the same proof-of-personhood nullifier is rejected by
// the database even if an application check is bypassed.
type Submission struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	TaskID             uint           `gorm:"not null;uniqueIndex:idx_task_user;uniqueIndex:idx_task_nullifier" json:"task_id"`
	UserID             uint           `gorm:"not null;uniqueIndex:idx_task_user;index" json:"user_id"`
	SubmitterNullifier string         `gorm:"size:80;not null;uniqueIndex:idx_task_nullifier" json:"submitter_nullifier"`
	SubmissionData     datatypes.JSON `gorm:"type:json" json:"submission_data"`
	AttachmentsURLs    datatypes.JSON `gorm:"type:json" json:"attachments_urls,omitempty"`
	TimeSpentMinutes   *int           `json:"time_spent_minutes,omitempty"`
	QualityScore       *float64       `gorm:"type:decimal(3,2)" json:"quality_score,omitempty"`
	Status             string         `gorm:"type:enum('pending','under_review','approved','rejected');default:'pending';index" json:"status"`
	ReviewerID         *uint          `json:"reviewer_id,omitempty"`
	ReviewNotes        *string        `gorm:"type:text" json:"review_notes,omitempty"`
	ReviewedAt         *time.Time     `json:"reviewed_at,omitempty"`
	IsPaid             bool           `gorm:"default:false" json:"is_paid"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

func (Submission) TableName() string {
	return "submissions"
}
