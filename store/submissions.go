package store

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"taskmarket/models"
)

var actionIDRe = regexp.MustCompile(`^[a-z0-9_-]{3,50}$`)

// CreateSubmissionInput carries one submission attempt. NullifierHash is the
// value the client claims; it must equal the nullifier bound to the caller's
// session or the attempt is rejected as proof substitution.
type CreateSubmissionInput struct {
	TaskID           uint
	ActionID         string
	NullifierHash    string
	SubmissionData   json.RawMessage
	AttachmentsURLs  []string
	TimeSpentMinutes *int
}

// SubmissionRepository is the transactional core behind submission creation.
// The gorm implementation backs normal operation; the in-memory one backs
// demo mode and tests. Both enforce the same taxonomy.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, user *models.User, in CreateSubmissionInput) (*models.Submission, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Submission, int64, error)
}

type GormSubmissionRepository struct {
	DB *gorm.DB
}

func NewGormSubmissionRepository(db *gorm.DB) *GormSubmissionRepository {
	return &GormSubmissionRepository{DB: db}
}

// validateSubmissionInput runs the checks that need no persistence access.
// These reject before any query is issued.
func validateSubmissionInput(user *models.User, in CreateSubmissionInput) error {
	if user == nil || user.ID == 0 {
		return ErrAuthenticationRequired
	}
	if in.TaskID == 0 {
		return Validation("task_id is required")
	}
	if !actionIDRe.MatchString(in.ActionID) {
		return Validation("action_id must be 3-50 chars of [a-z0-9_-]")
	}
	// Session/nullifier binding: the claimed nullifier must match the one the
	// session was issued for. Deliberately opaque on failure.
	if in.NullifierHash == "" || in.NullifierHash != user.NullifierHash {
		return ErrVerificationFailed
	}
	if in.TimeSpentMinutes != nil && *in.TimeSpentMinutes < 0 {
		return Validation("time_spent_minutes cannot be negative")
	}
	return nil
}

// checkTaskEligibility re-validates the task while its row lock is held.
// Shared by the gorm and in-memory repositories and by the matching engine.
func checkTaskEligibility(task *models.Task, user *models.User, now time.Time) error {
	if task.Status != models.TaskStatusActive {
		return ErrTaskNotActive
	}
	if task.IsExpired(now) {
		return ErrTaskExpired
	}
	if task.CreatorID == user.ID {
		return ErrSelfSubmission
	}
	if task.RequiresVerification && !user.HasVerificationLevel(task.RequiredLevel) {
		return ErrVerificationLevel
	}
	return nil
}

// CreateSubmission runs the whole accept path as one transaction: lock the
// task row, re-validate under the lock, reject duplicates and capacity
// overruns, insert pending. Any failure rolls the whole thing back, so a
// rejected attempt consumes no capacity. Transient failures retry the entire
// transaction; duplicate-key violations never retry.
func (r *GormSubmissionRepository) CreateSubmission(ctx context.Context, user *models.User, in CreateSubmissionInput) (*models.Submission, error) {
	if err := validateSubmissionInput(user, in); err != nil {
		return nil, err
	}

	var sub models.Submission
	err := withRetry(ctx, func() error {
		sub = models.Submission{}
		return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			// Lock the task row. Concurrent submissions to the same task
			// serialize here; submissions to other tasks do not contend.
			var task models.Task
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&task, in.TaskID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrTaskNotFound
				}
				return err
			}

			if err := checkTaskEligibility(&task, user, time.Now()); err != nil {
				return err
			}
			if err := ValidateSubmissionData(task.TaskType, in.SubmissionData); err != nil {
				return err
			}

			var existing int64
			if err := tx.Model(&models.Submission{}).
				Where("task_id = ? AND (user_id = ? OR submitter_nullifier = ?)", task.ID, user.ID, in.NullifierHash).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return ErrDuplicateSubmission
			}

			var count int64
			if err := tx.Model(&models.Submission{}).Where("task_id = ?", task.ID).Count(&count).Error; err != nil {
				return err
			}
			if count >= int64(task.MaxSubmissions) {
				return ErrCapacityExceeded
			}

			attachments, err := json.Marshal(in.AttachmentsURLs)
			if err != nil {
				return err
			}
			sub = models.Submission{
				TaskID:             task.ID,
				UserID:             user.ID,
				SubmitterNullifier: in.NullifierHash,
				SubmissionData:     datatypes.JSON(in.SubmissionData),
				AttachmentsURLs:    datatypes.JSON(attachments),
				TimeSpentMinutes:   in.TimeSpentMinutes,
				Status:             models.SubmissionStatusPending,
			}
			if err := tx.Create(&sub).Error; err != nil {
				// The unique indexes are the last line of the sybil defense; a
				// violation here is a race we lost, not an infrastructure fault.
				if isDuplicateKey(err) {
					return ErrDuplicateSubmission
				}
				return err
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *GormSubmissionRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Submission, int64, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Submission{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var subs []models.Submission
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).
		Order("id DESC").Limit(limit).Offset(offset).Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}
