package store

import (
	"context"
	"math"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"taskmarket/models"
)

const matchListLimit = 20

// MatchPolicy holds the tunable knobs of the matching engine. Values come
// from the environment at startup so ops can adjust without a deploy.
type MatchPolicy struct {
	// SkillThreshold is the reputation score at which difficulty gating stops
	// applying. Users at or above it see every difficulty level.
	SkillThreshold uint
}

func PolicyFromEnv() MatchPolicy {
	p := MatchPolicy{SkillThreshold: 50}
	if v := os.Getenv("MATCH_SKILL_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.SkillThreshold = uint(n)
		}
	}
	return p
}

// MatchFilters narrows one matching request. Zero values mean "no filter".
type MatchFilters struct {
	TaskType      string
	CategoryID    uint
	MaxDifficulty int
	MinReward     decimal.Decimal
}

func (f MatchFilters) allows(task *models.Task) bool {
	if f.TaskType != "" && task.TaskType != f.TaskType {
		return false
	}
	if f.CategoryID != 0 && task.CategoryID != f.CategoryID {
		return false
	}
	if f.MaxDifficulty > 0 && task.DifficultyLevel > f.MaxDifficulty {
		return false
	}
	if f.MinReward.IsPositive() && task.RewardAmount.LessThan(f.MinReward) {
		return false
	}
	return true
}

// skillLevel maps reputation onto the 1..5 difficulty scale. Every 50 points
// of reputation unlocks one level.
func skillLevel(rep uint) int {
	lvl := 1 + int(rep)/50
	if lvl > 5 {
		lvl = 5
	}
	return lvl
}

// scoreTask ranks an already-eligible task for a user. Higher is better.
// Priority dominates, reward contributes with a cap so a whale task cannot
// drown out everything else, and fresh tasks get a small boost.
func scoreTask(task *models.Task, user *models.User, now time.Time) float64 {
	score := float64(task.Priority) * 2

	reward, _ := task.RewardAmount.Float64()
	score += math.Min(reward/10, 5)

	skill := skillLevel(user.ReputationScore)
	switch {
	case task.DifficultyLevel == skill:
		score += 2
	case task.DifficultyLevel == skill+1:
		score += 1
	}

	if now.Sub(task.CreatedAt) < 24*time.Hour {
		score += 1
	}
	return score
}

type scoredTask struct {
	Task  models.Task
	Score float64
}

// MatchDiagnostics explains an empty result. Exposed so the client can show
// "no tasks right now" versus "you've done them all".
type MatchDiagnostics struct {
	TotalActive    int64 `json:"total_active_tasks"`
	UserCompleted  int64 `json:"user_completed_count"`
	EligibleBefore int   `json:"eligible_before_ranking"`
}

// matchSource feeds the matcher. The gorm implementation backs production,
// the in-memory repository backs demo mode and tests.
type matchSource interface {
	ActiveTasks(ctx context.Context) ([]models.Task, error)
	SubmittedTaskIDs(ctx context.Context, user *models.User) ([]uint, error)
	ApprovedCount(ctx context.Context, userID uint) (int64, error)
	SubmissionCounts(ctx context.Context) (map[uint]int64, error)
}

type gormMatchSource struct {
	DB *gorm.DB
}

func (s *gormMatchSource) ActiveTasks(ctx context.Context) ([]models.Task, error) {
	var tasks []models.Task
	err := s.DB.WithContext(ctx).
		Where("status = ?", models.TaskStatusActive).
		Order("created_at DESC").
		Find(&tasks).Error
	return tasks, err
}

// SubmittedTaskIDs matches by account or by nullifier, the same pair the
// submission transaction dedupes on. A second account sharing a nullifier
// must never be offered a task it cannot submit to.
func (s *gormMatchSource) SubmittedTaskIDs(ctx context.Context, user *models.User) ([]uint, error) {
	var ids []uint
	err := s.DB.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ? OR submitter_nullifier = ?", user.ID, user.NullifierHash).
		Pluck("task_id", &ids).Error
	return ids, err
}

func (s *gormMatchSource) ApprovedCount(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Submission{}).
		Where("user_id = ? AND status = ?", userID, models.SubmissionStatusApproved).
		Count(&n).Error
	return n, err
}

func (s *gormMatchSource) SubmissionCounts(ctx context.Context) (map[uint]int64, error) {
	type row struct {
		TaskID uint
		N      int64
	}
	var rows []row
	if err := s.DB.WithContext(ctx).Model(&models.Submission{}).
		Select("task_id, COUNT(*) as n").
		Group("task_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[uint]int64, len(rows))
	for _, r := range rows {
		counts[r.TaskID] = r.N
	}
	return counts, nil
}

type Matcher struct {
	source matchSource
	Policy MatchPolicy
}

func NewMatcher(db *gorm.DB, policy MatchPolicy) *Matcher {
	return &Matcher{source: &gormMatchSource{DB: db}, Policy: policy}
}

// eligible applies the submission-side checks plus the matching-only ones:
// request filters, difficulty gating below the skill threshold, and never
// resurfacing a task the user already submitted to.
func (m *Matcher) eligible(task *models.Task, user *models.User, submitted map[uint]bool, filters MatchFilters, now time.Time) bool {
	if err := checkTaskEligibility(task, user, now); err != nil {
		return false
	}
	if !filters.allows(task) {
		return false
	}
	if submitted[task.ID] {
		return false
	}
	if user.ReputationScore < m.Policy.SkillThreshold && task.DifficultyLevel > skillLevel(user.ReputationScore) {
		return false
	}
	return true
}

// rank fetches the active pool and returns it scored and sorted. The pool is
// small enough (active tasks only) that scoring in process beats pushing the
// formula into SQL.
func (m *Matcher) rank(ctx context.Context, user *models.User, filters MatchFilters) ([]scoredTask, *MatchDiagnostics, error) {
	now := time.Now()

	tasks, err := m.source.ActiveTasks(ctx)
	if err != nil {
		return nil, nil, err
	}

	subIDs, err := m.source.SubmittedTaskIDs(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	submitted := make(map[uint]bool, len(subIDs))
	for _, id := range subIDs {
		submitted[id] = true
	}

	completed, err := m.source.ApprovedCount(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	// Full tasks are skipped up front rather than failing at submit time.
	counts := map[uint]int64{}
	if len(tasks) > 0 {
		counts, err = m.source.SubmissionCounts(ctx)
		if err != nil {
			return nil, nil, err
		}
	}

	var ranked []scoredTask
	for i := range tasks {
		t := &tasks[i]
		if !m.eligible(t, user, submitted, filters, now) {
			continue
		}
		if counts[t.ID] >= int64(t.MaxSubmissions) {
			continue
		}
		ranked = append(ranked, scoredTask{Task: *t, Score: scoreTask(t, user, now)})
	}

	// Stable on the created_at DESC fetch order, so ties go to newer tasks.
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })

	diag := &MatchDiagnostics{
		TotalActive:    int64(len(tasks)),
		UserCompleted:  completed,
		EligibleBefore: len(ranked),
	}
	return ranked, diag, nil
}

// NextTask returns the single best task for the user, or nil plus diagnostics
// when nothing is eligible.
func (m *Matcher) NextTask(ctx context.Context, user *models.User, filters MatchFilters) (*models.Task, *MatchDiagnostics, error) {
	ranked, diag, err := m.rank(ctx, user, filters)
	if err != nil {
		return nil, nil, err
	}
	if len(ranked) == 0 {
		return nil, diag, nil
	}
	return &ranked[0].Task, diag, nil
}

// ListEligible returns up to 20 ranked tasks for browsing.
func (m *Matcher) ListEligible(ctx context.Context, user *models.User, filters MatchFilters) ([]models.Task, *MatchDiagnostics, error) {
	ranked, diag, err := m.rank(ctx, user, filters)
	if err != nil {
		return nil, nil, err
	}
	out := make([]models.Task, 0, matchListLimit)
	for i := 0; i < len(ranked) && i < matchListLimit; i++ {
		out = append(out, ranked[i].Task)
	}
	return out, diag, nil
}
