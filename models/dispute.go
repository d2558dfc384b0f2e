package models

import "time"

const (
	DisputeStatusOpen      = "open"
	DisputeStatusResolved  = "resolved"
	DisputeStatusDismissed = "dismissed"
)

type Dispute struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	SubmissionID    uint      `gorm:"not null;index" json:"submission_id"`
	RaisedBy        uint      `gorm:"not null;index" json:"raised_by"`
	Reason          string    `gorm:"type:text;not null" json:"reason"`
	Status          string    `gorm:"type:enum('open','resolved','dismissed');default:'open'" json:"status"`
	ResolutionNotes *string   `gorm:"type:text" json:"resolution_notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Dispute) TableName() string {
	return "disputes"
}
