package store

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskmarket/models"
)

var (
	minimumTransfer = decimal.NewFromFloat(0.1)

	// Reward payouts tolerate a tiny drift from the advertised amount to
	// absorb client-side decimal rounding.
	rewardTolerance = decimal.NewFromFloat(0.001)
)

const (
	payerDailyLimit = 300
	paymentTTLHours = 24
)

// paymentTransitions is the settlement state machine. completed, failed and
// cancelled are terminal.
var paymentTransitions = map[string][]string{
	models.PaymentStatusPending:    {models.PaymentStatusProcessing, models.PaymentStatusCompleted, models.PaymentStatusFailed, models.PaymentStatusCancelled},
	models.PaymentStatusProcessing: {models.PaymentStatusCompleted, models.PaymentStatusFailed, models.PaymentStatusCancelled},
}

// ValidPaymentTransition reports whether a payment may move between the two
// statuses.
func ValidPaymentTransition(from, to string) bool {
	for _, allowed := range paymentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type CreatePaymentInput struct {
	TaskID       uint            `json:"task_id"`
	SubmissionID *uint           `json:"submission_id,omitempty"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	PaymentType  string          `json:"payment_type"`
}

// WebhookEvent is the normalized payload of a gateway status callback, after
// signature verification.
type WebhookEvent struct {
	ExternalPaymentID string  `json:"external_payment_id"`
	Status            string  `json:"status"`
	TransactionHash   *string `json:"transaction_hash,omitempty"`
	FailureReason     *string `json:"failure_reason,omitempty"`
}

type PaymentStore struct {
	DB *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *PaymentStore {
	return &PaymentStore{DB: db}
}

func validCurrency(c string) bool {
	switch c {
	case "WLD", "ETH", "USDC":
		return true
	}
	return false
}

func validPaymentType(t string) bool {
	switch t {
	case models.PaymentTypeTaskReward, models.PaymentTypeEscrowDeposit,
		models.PaymentTypeEscrowRelease, models.PaymentTypeRefund:
		return true
	}
	return false
}

// CreatePayment opens a settlement. For task rewards the payer must be the
// task creator, the submission must be approved, the amount must match the
// advertised reward, and at most one live payment may reference the
// submission. The external payment ID minted here is the idempotency key for
// every later webhook.
func (s *PaymentStore) CreatePayment(ctx context.Context, payer *models.User, in CreatePaymentInput) (*models.Payment, error) {
	if payer == nil || payer.ID == 0 {
		return nil, ErrAuthenticationRequired
	}
	if in.TaskID == 0 {
		return nil, Validation("task_id is required")
	}
	if !validCurrency(in.Currency) {
		return nil, Validation("currency must be WLD, ETH or USDC")
	}
	if !validPaymentType(in.PaymentType) {
		return nil, Validation("unknown payment_type")
	}
	if in.Amount.LessThan(minimumTransfer) {
		return nil, ErrPaymentBelowMinimum
	}

	var payment models.Payment
	err := withRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Per-payer throttle over a rolling day.
			since := time.Now().Add(-24 * time.Hour)
			var recent int64
			if err := tx.Model(&models.Payment{}).
				Where("payer_id = ? AND created_at > ?", payer.ID, since).
				Count(&recent).Error; err != nil {
				return err
			}
			if recent >= payerDailyLimit {
				return ErrPaymentThrottled
			}

			var task models.Task
			if err := tx.First(&task, in.TaskID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrTaskNotFound
				}
				return err
			}

			recipientID := payer.ID
			if in.PaymentType == models.PaymentTypeTaskReward {
				if in.SubmissionID == nil {
					return Validation("submission_id is required for task_reward payments")
				}
				if task.CreatorID != payer.ID {
					return ErrPaymentNotAuthorized
				}

				var sub models.Submission
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sub, *in.SubmissionID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return ErrSubmissionNotFound
					}
					return err
				}
				if sub.TaskID != task.ID {
					return Validation("submission does not belong to this task")
				}
				if sub.Status != models.SubmissionStatusApproved {
					return ErrSubmissionNotApproved
				}
				if in.Amount.Sub(task.RewardAmount).Abs().GreaterThan(rewardTolerance) {
					return ErrPaymentAmountMismatch
				}

				// One live settlement per submission. Failed or cancelled
				// payments free the slot for a retry.
				var existing []models.Payment
				if err := tx.Where("submission_id = ?", sub.ID).Find(&existing).Error; err != nil {
					return err
				}
				for i := range existing {
					if existing[i].IsSettling() {
						return ErrPaymentDuplicate
					}
				}
				recipientID = sub.UserID
			}

			fees := CalculateFees(in.Amount, in.Currency)
			expires := time.Now().Add(paymentTTLHours * time.Hour)
			payment = models.Payment{
				TaskID:            task.ID,
				SubmissionID:      in.SubmissionID,
				PayerID:           payer.ID,
				RecipientID:       recipientID,
				Amount:            in.Amount,
				Currency:          in.Currency,
				PaymentType:       in.PaymentType,
				Status:            models.PaymentStatusPending,
				PlatformFee:       fees.PlatformFee,
				GasFeeEstimate:    fees.GasFeeEstimate,
				NetAmount:         fees.NetAmount,
				ExternalPaymentID: uuid.NewString(),
				ExpiresAt:         &expires,
			}
			if err := tx.Create(&payment).Error; err != nil {
				if isDuplicateKey(err) {
					return ErrPaymentDuplicate
				}
				return err
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// GetPayment returns a payment visible to the caller. Payer and recipient may
// read it; nobody else can.
func (s *PaymentStore) GetPayment(ctx context.Context, caller *models.User, paymentID uint) (*models.Payment, error) {
	if caller == nil || caller.ID == 0 {
		return nil, ErrAuthenticationRequired
	}
	var payment models.Payment
	if err := s.DB.WithContext(ctx).First(&payment, paymentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.PayerID != caller.ID && payment.RecipientID != caller.ID {
		return nil, ErrPaymentNotFound
	}
	return &payment, nil
}

// applyTransition moves a payment to the target status, recording the
// transaction hash and failure reason when the caller has them. The payment is
// untouched when the transition is not allowed.
func applyTransition(p *models.Payment, target string, txHash, reason *string) error {
	if !ValidPaymentTransition(p.Status, target) {
		return ErrInvalidTransition
	}
	p.Status = target
	if txHash != nil {
		p.TransactionHash = txHash
	}
	if reason != nil {
		p.FailureReason = reason
	}
	return nil
}

// UpdatePaymentStatus moves a payment through the state machine on behalf of
// the payer. Webhooks go through ProcessWebhook instead; this path is for
// explicit cancellation and for operators who already hold the on-chain hash.
func (s *PaymentStore) UpdatePaymentStatus(ctx context.Context, caller *models.User, paymentID uint, target string, txHash, reason *string) (*models.Payment, error) {
	if caller == nil || caller.ID == 0 {
		return nil, ErrAuthenticationRequired
	}
	var payment models.Payment
	err := withRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&payment, paymentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPaymentNotFound
				}
				return err
			}
			if payment.PayerID != caller.ID {
				return ErrPaymentNotAuthorized
			}
			if err := applyTransition(&payment, target, txHash, reason); err != nil {
				return err
			}
			if err := tx.Save(&payment).Error; err != nil {
				return err
			}
			if target == models.PaymentStatusCompleted {
				return settleCompleted(tx, &payment)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// webhookOutcome classifies what a gateway callback did to the payment row.
type webhookOutcome int

const (
	webhookApplied webhookOutcome = iota
	webhookReplay
	webhookConflict
)

// applyWebhookEvent decides how a verified callback lands on a payment.
// Replays of a status already applied and conflicting updates to a terminal
// payment both leave the row untouched; only webhookApplied means the caller
// must persist the payment.
func applyWebhookEvent(p *models.Payment, ev WebhookEvent) (webhookOutcome, error) {
	if p.Status == ev.Status {
		return webhookReplay, nil
	}
	if p.IsTerminal() {
		return webhookConflict, nil
	}
	if err := applyTransition(p, ev.Status, ev.TransactionHash, ev.FailureReason); err != nil {
		return webhookConflict, err
	}
	return webhookApplied, nil
}

// ProcessWebhook applies a verified gateway callback. The whole handler is
// idempotent: replays of a terminal status ACK without touching anything, and
// a conflicting terminal status is logged and ignored rather than fought
// over. The gateway retries on non-2xx, so "ignore and ACK" is the only
// stable answer for garbage we cannot act on.
func (s *PaymentStore) ProcessWebhook(ctx context.Context, ev WebhookEvent) error {
	if ev.ExternalPaymentID == "" {
		return Validation("payment_id is required")
	}
	switch ev.Status {
	case models.PaymentStatusProcessing, models.PaymentStatusCompleted,
		models.PaymentStatusFailed, models.PaymentStatusCancelled:
	default:
		return Validation("unknown payment status")
	}

	return withRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var payment models.Payment
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("external_payment_id = ?", ev.ExternalPaymentID).
				First(&payment).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrPaymentNotFound
				}
				return err
			}

			outcome, err := applyWebhookEvent(&payment, ev)
			if err != nil {
				return err
			}
			switch outcome {
			case webhookReplay:
				// Gateway retry of a delivery we already applied.
				return nil
			case webhookConflict:
				log.Printf("[payment] webhook for terminal payment ignored external_id=%s have=%s got=%s",
					payment.ExternalPaymentID, payment.Status, ev.Status)
				return nil
			}

			if err := tx.Save(&payment).Error; err != nil {
				return err
			}
			if payment.Status == models.PaymentStatusCompleted {
				return settleCompleted(tx, &payment)
			}
			return nil
		})
	})
}

// settleCompleted is the only place in the codebase that sets is_paid and
// accrues total_earned. The conditional WHERE makes a replayed completion a
// no-op instead of a double credit.
func settleCompleted(tx *gorm.DB, payment *models.Payment) error {
	if payment.SubmissionID == nil {
		return nil
	}
	res := tx.Model(&models.Submission{}).
		Where("id = ? AND is_paid = ?", *payment.SubmissionID, false).
		Update("is_paid", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	return tx.Model(&models.User{}).
		Where("id = ?", payment.RecipientID).
		Update("total_earned", gorm.Expr("total_earned + ?", payment.NetAmount)).Error
}

// ListByUser returns payments where the user is payer or recipient, newest
// first.
func (s *PaymentStore) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Payment, int64, error) {
	q := s.DB.WithContext(ctx).Model(&models.Payment{}).
		Where("payer_id = ? OR recipient_id = ?", userID, userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var payments []models.Payment
	if err := s.DB.WithContext(ctx).
		Where("payer_id = ? OR recipient_id = ?", userID, userID).
		Order("id DESC").Limit(limit).Offset(offset).
		Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}
