package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusPending    = "pending"
	PaymentStatusProcessing = "processing"
	PaymentStatusCompleted  = "completed"
	PaymentStatusFailed     = "failed"
	PaymentStatusCancelled  = "cancelled"
)

const (
	PaymentTypeTaskReward    = "task_reward"
	PaymentTypeEscrowDeposit = "escrow_deposit"
	PaymentTypeEscrowRelease = "escrow_release"
	PaymentTypeRefund        = "refund"
)

type Payment struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	TaskID            uint            `gorm:"not null;index" json:"task_id"`
	SubmissionID      *uint           `gorm:"index" json:"submission_id,omitempty"`
	PayerID           uint            `gorm:"not null;index" json:"payer_id"`
	RecipientID       uint            `gorm:"not null;index" json:"recipient_id"`
	Amount            decimal.Decimal `gorm:"type:decimal(20,8);not null" json:"amount"`
	Currency          string          `gorm:"type:enum('WLD','ETH','USDC');default:'WLD'" json:"currency"`
	PaymentType       string          `gorm:"type:enum('task_reward','escrow_deposit','escrow_release','refund');default:'task_reward'" json:"payment_type"`
	Status            string          `gorm:"type:enum('pending','processing','completed','failed','cancelled');default:'pending';index" json:"status"`
	PlatformFee       decimal.Decimal `gorm:"type:decimal(20,8);default:0" json:"platform_fee"`
	GasFeeEstimate    decimal.Decimal `gorm:"type:decimal(20,8);default:0" json:"gas_fee_estimate"`
	NetAmount         decimal.Decimal `gorm:"type:decimal(20,8);default:0" json:"net_amount"`
	TransactionHash   *string         `gorm:"size:80;uniqueIndex" json:"transaction_hash,omitempty"`
	ExternalPaymentID string          `gorm:"size:64;uniqueIndex;not null" json:"external_payment_id"`
	FailureReason     *string         `gorm:"size:255" json:"failure_reason,omitempty"`
	ExpiresAt         *time.Time      `json:"expires_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// IsTerminal reports whether the payment has reached a final state. Terminal
// payments never transition again; a stale webhook for one is ignored.
func (p *Payment) IsTerminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed || p.Status == PaymentStatusCancelled
}

// IsSettling reports whether the payment still occupies its submission's
// payment slot. At most one pending/processing/completed payment may
// reference a submission at a time.
func (p *Payment) IsSettling() bool {
	return p.Status == PaymentStatusPending || p.Status == PaymentStatusProcessing || p.Status == PaymentStatusCompleted
}
