package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"gorm.io/datatypes"

	"taskmarket/models"
)

// MemorySubmissionRepository mirrors the gorm repository without a database.
// It backs demo mode and the concurrency tests. A single mutex serializes
// writes, which gives the same observable guarantees as the row lock: checks
// and insert happen atomically per attempt.
type MemorySubmissionRepository struct {
	mu     sync.Mutex
	nextID uint
	tasks  map[uint]*models.Task
	users  map[uint]*models.User
	subs   []*models.Submission
}

func NewMemorySubmissionRepository() *MemorySubmissionRepository {
	return &MemorySubmissionRepository{
		nextID: 1,
		tasks:  make(map[uint]*models.Task),
		users:  make(map[uint]*models.User),
	}
}

// AddTask seeds a task. Demo mode and tests call this before serving traffic.
func (r *MemorySubmissionRepository) AddTask(t models.Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.ID] = &t
}

func (r *MemorySubmissionRepository) AddUser(u models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID] = &u
}

// AddSubmission seeds a submission row directly, bypassing the create checks.
func (r *MemorySubmissionRepository) AddSubmission(s models.Submission) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == 0 {
		s.ID = r.nextID
		r.nextID++
	} else if s.ID >= r.nextID {
		r.nextID = s.ID + 1
	}
	r.subs = append(r.subs, &s)
}

func (r *MemorySubmissionRepository) CreateSubmission(ctx context.Context, user *models.User, in CreateSubmissionInput) (*models.Submission, error) {
	if err := validateSubmissionInput(user, in); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[in.TaskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	if err := checkTaskEligibility(task, user, time.Now()); err != nil {
		return nil, err
	}
	if err := ValidateSubmissionData(task.TaskType, in.SubmissionData); err != nil {
		return nil, err
	}

	var count int64
	for _, s := range r.subs {
		if s.TaskID != task.ID {
			continue
		}
		if s.UserID == user.ID || s.SubmitterNullifier == in.NullifierHash {
			return nil, ErrDuplicateSubmission
		}
		count++
	}
	if count >= int64(task.MaxSubmissions) {
		return nil, ErrCapacityExceeded
	}

	attachments, err := json.Marshal(in.AttachmentsURLs)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	sub := &models.Submission{
		ID:                 r.nextID,
		TaskID:             task.ID,
		UserID:             user.ID,
		SubmitterNullifier: in.NullifierHash,
		SubmissionData:     datatypes.JSON(in.SubmissionData),
		AttachmentsURLs:    datatypes.JSON(attachments),
		TimeSpentMinutes:   in.TimeSpentMinutes,
		Status:             models.SubmissionStatusPending,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	r.nextID++
	r.subs = append(r.subs, sub)

	out := *sub
	return &out, nil
}

func (r *MemorySubmissionRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Submission, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	var mine []models.Submission
	for _, s := range r.subs {
		if s.UserID == userID {
			mine = append(mine, *s)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].ID > mine[j].ID })
	total := int64(len(mine))
	if offset >= len(mine) {
		return nil, total, nil
	}
	mine = mine[offset:]
	if limit > 0 && limit < len(mine) {
		mine = mine[:limit]
	}
	return mine, total, nil
}

// The repository doubles as a matchSource so the matcher runs against it in
// demo mode and in tests.

func (r *MemorySubmissionRepository) ActiveTasks(ctx context.Context) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var tasks []models.Task
	for _, t := range r.tasks {
		if t.Status == models.TaskStatusActive {
			tasks = append(tasks, *t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID > tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (r *MemorySubmissionRepository) SubmittedTaskIDs(ctx context.Context, user *models.User) ([]uint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []uint
	for _, s := range r.subs {
		if s.UserID == user.ID || s.SubmitterNullifier == user.NullifierHash {
			ids = append(ids, s.TaskID)
		}
	}
	return ids, nil
}

func (r *MemorySubmissionRepository) ApprovedCount(ctx context.Context, userID uint) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.subs {
		if s.UserID == userID && s.Status == models.SubmissionStatusApproved {
			n++
		}
	}
	return n, nil
}

func (r *MemorySubmissionRepository) SubmissionCounts(ctx context.Context) (map[uint]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[uint]int64)
	for _, s := range r.subs {
		counts[s.TaskID]++
	}
	return counts, nil
}

// CountForTask reports accepted submissions for one task. Used by tests to
// assert capacity was never overrun.
func (r *MemorySubmissionRepository) CountForTask(taskID uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.subs {
		if s.TaskID == taskID {
			n++
		}
	}
	return n
}
