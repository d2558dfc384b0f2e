package store

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskmarket/models"
)

// Reputation deltas applied when a review lands. Approve rewards more than
// reject punishes so honest mistakes don't bury a new worker.
const (
	reputationOnApprove = 10
	reputationOnReject  = 5
)

// reviewTransitions is the full submission state machine from the reviewer's
// side. Anything not listed is rejected with INVALID_STATUS_TRANSITION.
var reviewTransitions = map[string][]string{
	models.SubmissionStatusPending:     {models.SubmissionStatusUnderReview, models.SubmissionStatusApproved, models.SubmissionStatusRejected},
	models.SubmissionStatusUnderReview: {models.SubmissionStatusApproved, models.SubmissionStatusRejected},
}

// ValidReviewTransition reports whether a submission may move from one status
// to another. Approved and rejected are terminal.
func ValidReviewTransition(from, to string) bool {
	for _, allowed := range reviewTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ReviewInput is one reviewer decision on one submission.
type ReviewInput struct {
	SubmissionID uint     `json:"submission_id"`
	Action       string   `json:"action"`
	QualityScore *float64 `json:"quality_score,omitempty"`
	Notes        *string  `json:"notes,omitempty"`
}

// BatchReviewResult reports the per-row outcome of a batch. Rows succeed and
// fail independently.
type BatchReviewResult struct {
	SubmissionID uint   `json:"submission_id"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
}

type ReviewStore struct {
	DB *gorm.DB
}

func NewReviewStore(db *gorm.DB) *ReviewStore {
	return &ReviewStore{DB: db}
}

func actionToStatus(action string) (string, error) {
	switch action {
	case models.ReviewActionStartReview:
		return models.SubmissionStatusUnderReview, nil
	case models.ReviewActionApprove:
		return models.SubmissionStatusApproved, nil
	case models.ReviewActionReject:
		return models.SubmissionStatusRejected, nil
	default:
		return "", Validation("action must be start_review, approve or reject")
	}
}

func validateReviewInput(in ReviewInput) error {
	if in.SubmissionID == 0 {
		return Validation("submission_id is required")
	}
	if _, err := actionToStatus(in.Action); err != nil {
		return err
	}
	if in.QualityScore != nil && (*in.QualityScore < 0 || *in.QualityScore > 5) {
		return Validation("quality_score must be between 0 and 5")
	}
	return nil
}

// applyReview stamps one validated decision onto a submission row. The
// reviewed_at timestamp is written on the first transition only; a claim
// followed by an approval keeps the claim's stamp, and a terminal submission
// rejects any further decision before a single field changes.
func applyReview(sub *models.Submission, reviewer *models.User, in ReviewInput, now time.Time) error {
	target, err := actionToStatus(in.Action)
	if err != nil {
		return err
	}
	if !ValidReviewTransition(sub.Status, target) {
		return ErrSubmissionNotPending
	}
	sub.Status = target
	sub.ReviewerID = &reviewer.ID
	if in.Notes != nil {
		sub.ReviewNotes = in.Notes
	}
	if in.QualityScore != nil {
		sub.QualityScore = in.QualityScore
	}
	if sub.ReviewedAt == nil {
		sub.ReviewedAt = &now
	}
	return nil
}

// ReviewSubmission applies one reviewer decision in a transaction: lock the
// submission, validate the transition, stamp the outcome, append the audit
// row, adjust the worker's reputation. start_review claims a pending
// submission without touching reputation; approve and reject are terminal.
func (s *ReviewStore) ReviewSubmission(ctx context.Context, reviewer *models.User, in ReviewInput) (*models.Submission, error) {
	if reviewer == nil || reviewer.ID == 0 {
		return nil, ErrAuthenticationRequired
	}
	if reviewer.Role != models.RoleReviewer {
		return nil, ErrReviewerRequired
	}
	if err := validateReviewInput(in); err != nil {
		return nil, err
	}

	var sub models.Submission
	err := withRetry(ctx, func() error {
		return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sub, in.SubmissionID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrSubmissionNotFound
				}
				return err
			}
			if err := applyReview(&sub, reviewer, in, time.Now()); err != nil {
				return err
			}
			if err := tx.Save(&sub).Error; err != nil {
				return err
			}

			audit := models.Review{
				SubmissionID: sub.ID,
				ReviewerID:   reviewer.ID,
				Action:       in.Action,
				QualityScore: in.QualityScore,
				Notes:        in.Notes,
			}
			if err := tx.Create(&audit).Error; err != nil {
				return err
			}

			if in.Action == models.ReviewActionApprove || in.Action == models.ReviewActionReject {
				return adjustReputation(tx, sub.UserID, in.Action)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// adjustReputation moves the worker's score for a review outcome, flooring
// at zero.
func adjustReputation(tx *gorm.DB, userID uint, action string) error {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&user, userID).Error; err != nil {
		return err
	}
	switch action {
	case models.ReviewActionApprove:
		user.ReputationScore += reputationOnApprove
	case models.ReviewActionReject:
		if user.ReputationScore > reputationOnReject {
			user.ReputationScore -= reputationOnReject
		} else {
			user.ReputationScore = 0
		}
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).
		Update("reputation_score", user.ReputationScore).Error
}

// ReviewBatch applies up to 50 decisions, each in its own transaction. One
// bad row does not roll back the others; the caller gets a per-row report.
func (s *ReviewStore) ReviewBatch(ctx context.Context, reviewer *models.User, inputs []ReviewInput) ([]BatchReviewResult, error) {
	if reviewer == nil || reviewer.ID == 0 {
		return nil, ErrAuthenticationRequired
	}
	if reviewer.Role != models.RoleReviewer {
		return nil, ErrReviewerRequired
	}
	if len(inputs) == 0 {
		return nil, Validation("reviews must contain at least one entry")
	}
	if len(inputs) > 50 {
		return nil, Validation("reviews cannot exceed 50 entries per batch")
	}

	results := make([]BatchReviewResult, 0, len(inputs))
	for _, in := range inputs {
		_, err := s.ReviewSubmission(ctx, reviewer, in)
		res := BatchReviewResult{SubmissionID: in.SubmissionID, Success: err == nil}
		if err != nil {
			res.Error = AsError(err).Code
			log.Printf("[review] batch row failed submission=%d reviewer=%d: %v", in.SubmissionID, reviewer.ID, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// PendingQueue lists reviewable submissions oldest first.
func (s *ReviewStore) PendingQueue(ctx context.Context, limit, offset int) ([]models.Submission, int64, error) {
	statuses := []string{models.SubmissionStatusPending, models.SubmissionStatusUnderReview}
	var total int64
	if err := s.DB.WithContext(ctx).Model(&models.Submission{}).
		Where("status IN ?", statuses).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var subs []models.Submission
	if err := s.DB.WithContext(ctx).
		Where("status IN ?", statuses).
		Order("created_at ASC").
		Limit(limit).Offset(offset).
		Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}
