package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"taskmarket/models"
)

func testTask(id uint, creatorID uint, maxSubs int) models.Task {
	return models.Task{
		ID:             id,
		CreatorID:      creatorID,
		Title:          "label some pairs",
		TaskType:       models.TaskTypePairwiseRating,
		Status:         models.TaskStatusActive,
		RewardAmount:   decimal.NewFromInt(1),
		RewardCurrency: "WLD",
		MaxSubmissions: maxSubs,
		CreatedAt:      time.Now(),
	}
}

func testUser(id uint, nullifier string) *models.User {
	return &models.User{
		ID:                id,
		WorldID:           fmt.Sprintf("wid_%d", id),
		NullifierHash:     nullifier,
		VerificationLevel: models.VerificationDevice,
		Role:              models.RoleWorker,
		IsActive:          true,
	}
}

func pairwisePayload() json.RawMessage {
	return json.RawMessage(`{"prompt_id":"p1","chosen":"a","rejected":"b"}`)
}

func submitInput(taskID uint, nullifier string) CreateSubmissionInput {
	return CreateSubmissionInput{
		TaskID:         taskID,
		ActionID:       "submit-task",
		NullifierHash:  nullifier,
		SubmissionData: pairwisePayload(),
	}
}

func TestCreateSubmissionAccepted(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	repo.AddTask(testTask(1, 99, 5))
	user := testUser(2, "0xabc")

	sub, err := repo.CreateSubmission(context.Background(), user, submitInput(1, "0xabc"))
	if err != nil {
		t.Fatalf("CreateSubmission: %v", err)
	}
	if sub.Status != models.SubmissionStatusPending {
		t.Fatalf("status = %s, want pending", sub.Status)
	}
	if sub.SubmitterNullifier != "0xabc" {
		t.Fatalf("nullifier = %s", sub.SubmitterNullifier)
	}
}

func TestCreateSubmissionDuplicateUser(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	repo.AddTask(testTask(1, 99, 5))
	user := testUser(2, "0xabc")

	if _, err := repo.CreateSubmission(context.Background(), user, submitInput(1, "0xabc")); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	_, err := repo.CreateSubmission(context.Background(), user, submitInput(1, "0xabc"))
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("err = %v, want ErrDuplicateSubmission", err)
	}
}

func TestCreateSubmissionDuplicateNullifierAcrossAccounts(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	repo.AddTask(testTask(1, 99, 5))

	// Two accounts, same proof of personhood.
	first := testUser(2, "0xsame")
	second := testUser(3, "0xsame")

	if _, err := repo.CreateSubmission(context.Background(), first, submitInput(1, "0xsame")); err != nil {
		t.Fatalf("first submission: %v", err)
	}
	_, err := repo.CreateSubmission(context.Background(), second, submitInput(1, "0xsame"))
	if !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("err = %v, want ErrDuplicateSubmission", err)
	}
}

func TestCreateSubmissionSelfSubmission(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	repo.AddTask(testTask(1, 7, 5))
	creator := testUser(7, "0xcreator")

	_, err := repo.CreateSubmission(context.Background(), creator, submitInput(1, "0xcreator"))
	if !errors.Is(err, ErrSelfSubmission) {
		t.Fatalf("err = %v, want ErrSelfSubmission", err)
	}
}

func TestCreateSubmissionVerificationTier(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	task := testTask(1, 99, 5)
	task.RequiresVerification = true
	task.RequiredLevel = models.VerificationOrb
	repo.AddTask(task)

	deviceUser := testUser(2, "0xdev")
	_, err := repo.CreateSubmission(context.Background(), deviceUser, submitInput(1, "0xdev"))
	if !errors.Is(err, ErrVerificationLevel) {
		t.Fatalf("device user err = %v, want ErrVerificationLevel", err)
	}

	orbUser := testUser(3, "0xorb")
	orbUser.VerificationLevel = models.VerificationOrb
	if _, err := repo.CreateSubmission(context.Background(), orbUser, submitInput(1, "0xorb")); err != nil {
		t.Fatalf("orb user rejected: %v", err)
	}
}

func TestCreateSubmissionExpiredTask(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	task := testTask(1, 99, 5)
	past := time.Now().Add(-time.Hour)
	task.ExpiresAt = &past
	repo.AddTask(task)

	_, err := repo.CreateSubmission(context.Background(), testUser(2, "0xa"), submitInput(1, "0xa"))
	if !errors.Is(err, ErrTaskExpired) {
		t.Fatalf("err = %v, want ErrTaskExpired", err)
	}
}

func TestCreateSubmissionInactiveTask(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	task := testTask(1, 99, 5)
	task.Status = models.TaskStatusPaused
	repo.AddTask(task)

	_, err := repo.CreateSubmission(context.Background(), testUser(2, "0xa"), submitInput(1, "0xa"))
	if !errors.Is(err, ErrTaskNotActive) {
		t.Fatalf("err = %v, want ErrTaskNotActive", err)
	}
}

func TestCreateSubmissionUnknownTask(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	_, err := repo.CreateSubmission(context.Background(), testUser(2, "0xa"), submitInput(42, "0xa"))
	if !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

func TestCreateSubmissionNullifierMismatch(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	repo.AddTask(testTask(1, 99, 5))
	user := testUser(2, "0xsession")

	// Claimed nullifier differs from the session's.
	_, err := repo.CreateSubmission(context.Background(), user, submitInput(1, "0xother"))
	if !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("err = %v, want ErrVerificationFailed", err)
	}
}

func TestCreateSubmissionActionIDBounds(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	repo.AddTask(testTask(1, 99, 5))
	user := testUser(2, "0xa")

	bad := []string{"", "ab", "HAS-UPPER", "spaces here", "way_too_long_aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"}
	for _, actionID := range bad {
		in := submitInput(1, "0xa")
		in.ActionID = actionID
		if _, err := repo.CreateSubmission(context.Background(), user, in); err == nil {
			t.Fatalf("action_id %q accepted, want rejection", actionID)
		}
	}

	in := submitInput(1, "0xa")
	in.ActionID = "ok_action-1"
	if _, err := repo.CreateSubmission(context.Background(), user, in); err != nil {
		t.Fatalf("valid action_id rejected: %v", err)
	}
}

func TestCreateSubmissionInvalidPayload(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	repo.AddTask(testTask(1, 99, 5))
	user := testUser(2, "0xa")

	in := submitInput(1, "0xa")
	in.SubmissionData = json.RawMessage(`{"prompt_id":"p1","chosen":"a","rejected":"a"}`)
	_, err := repo.CreateSubmission(context.Background(), user, in)
	var se *Error
	if !errors.As(err, &se) || se.Code != ErrValidationFailed.Code {
		t.Fatalf("err = %v, want VALIDATION_FAILED", err)
	}
}

func TestCreateSubmissionCapacityUnderContention(t *testing.T) {
	const capacity = 10
	const attempts = 100

	repo := NewMemorySubmissionRepository()
	repo.AddTask(testTask(1, 999, capacity))

	var wg sync.WaitGroup
	accepted := make(chan uint, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			nullifier := fmt.Sprintf("0xn%03d", n)
			user := testUser(uint(n+2), nullifier)
			sub, err := repo.CreateSubmission(context.Background(), user, submitInput(1, nullifier))
			if err == nil {
				accepted <- sub.ID
			} else if !errors.Is(err, ErrCapacityExceeded) {
				t.Errorf("attempt %d: unexpected error %v", n, err)
			}
		}(i)
	}
	wg.Wait()
	close(accepted)

	ids := make(map[uint]bool)
	for id := range accepted {
		if ids[id] {
			t.Fatalf("duplicate submission id %d", id)
		}
		ids[id] = true
	}
	if len(ids) != capacity {
		t.Fatalf("accepted %d submissions, want exactly %d", len(ids), capacity)
	}
	if got := repo.CountForTask(1); got != capacity {
		t.Fatalf("stored %d submissions, want %d", got, capacity)
	}
}

func TestListByUserPagination(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	for i := uint(1); i <= 3; i++ {
		task := testTask(i, 999, 5)
		repo.AddTask(task)
	}
	user := testUser(2, "0xa")
	for i := uint(1); i <= 3; i++ {
		if _, err := repo.CreateSubmission(context.Background(), user, submitInput(i, "0xa")); err != nil {
			t.Fatalf("seed submission %d: %v", i, err)
		}
	}

	subs, total, err := repo.ListByUser(context.Background(), user.ID, 2, 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	if len(subs) != 2 {
		t.Fatalf("page size = %d, want 2", len(subs))
	}
	if subs[0].ID < subs[1].ID {
		t.Fatalf("expected newest first, got %d before %d", subs[0].ID, subs[1].ID)
	}
}
