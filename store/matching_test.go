package store

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"taskmarket/models"
)

func TestSkillLevel(t *testing.T) {
	cases := []struct {
		rep  uint
		want int
	}{
		{0, 1}, {49, 1}, {50, 2}, {99, 2}, {100, 3}, {200, 5}, {1000, 5},
	}
	for _, c := range cases {
		if got := skillLevel(c.rep); got != c.want {
			t.Fatalf("skillLevel(%d) = %d, want %d", c.rep, got, c.want)
		}
	}
}

func matchTask(priority int, reward float64, difficulty int, age time.Duration) *models.Task {
	return &models.Task{
		Priority:        priority,
		RewardAmount:    decimal.NewFromFloat(reward),
		DifficultyLevel: difficulty,
		CreatedAt:       time.Now().Add(-age),
	}
}

func TestScoreTaskPriorityDominates(t *testing.T) {
	user := &models.User{ReputationScore: 0}
	now := time.Now()

	high := scoreTask(matchTask(5, 1, 3, 48*time.Hour), user, now)
	low := scoreTask(matchTask(1, 1, 3, 48*time.Hour), user, now)
	if high <= low {
		t.Fatalf("priority 5 scored %f, not above priority 1 at %f", high, low)
	}
}

func TestScoreTaskRewardCapped(t *testing.T) {
	user := &models.User{ReputationScore: 0}
	now := time.Now()

	fifty := scoreTask(matchTask(3, 50, 3, 48*time.Hour), user, now)
	thousand := scoreTask(matchTask(3, 1000, 3, 48*time.Hour), user, now)
	if fifty != thousand {
		t.Fatalf("reward contribution not capped: %f vs %f", fifty, thousand)
	}
}

func TestScoreTaskDifficultyBonus(t *testing.T) {
	// Reputation 50 puts the user at skill level 2.
	user := &models.User{ReputationScore: 50}
	now := time.Now()

	exact := scoreTask(matchTask(3, 1, 2, 48*time.Hour), user, now)
	oneAbove := scoreTask(matchTask(3, 1, 3, 48*time.Hour), user, now)
	far := scoreTask(matchTask(3, 1, 5, 48*time.Hour), user, now)

	if exact-far != 2 {
		t.Fatalf("exact match bonus = %f, want 2", exact-far)
	}
	if oneAbove-far != 1 {
		t.Fatalf("stretch bonus = %f, want 1", oneAbove-far)
	}
}

func TestScoreTaskRecencyBonus(t *testing.T) {
	user := &models.User{ReputationScore: 0}
	now := time.Now()

	fresh := scoreTask(matchTask(3, 1, 3, time.Hour), user, now)
	stale := scoreTask(matchTask(3, 1, 3, 48*time.Hour), user, now)
	if fresh-stale != 1 {
		t.Fatalf("recency bonus = %f, want 1", fresh-stale)
	}
}

func TestMatchFiltersAllows(t *testing.T) {
	task := &models.Task{
		TaskType:        models.TaskTypePairwiseRating,
		CategoryID:      4,
		DifficultyLevel: 3,
		RewardAmount:    decimal.NewFromInt(2),
	}
	cases := []struct {
		name    string
		filters MatchFilters
		want    bool
	}{
		{"empty passes everything", MatchFilters{}, true},
		{"matching type", MatchFilters{TaskType: models.TaskTypePairwiseRating}, true},
		{"other type", MatchFilters{TaskType: models.TaskTypeVoiceRecording}, false},
		{"matching category", MatchFilters{CategoryID: 4}, true},
		{"other category", MatchFilters{CategoryID: 9}, false},
		{"difficulty at cap", MatchFilters{MaxDifficulty: 3}, true},
		{"difficulty over cap", MatchFilters{MaxDifficulty: 2}, false},
		{"reward at floor", MatchFilters{MinReward: decimal.NewFromInt(2)}, true},
		{"reward below floor", MatchFilters{MinReward: decimal.NewFromInt(3)}, false},
	}
	for _, c := range cases {
		if got := c.filters.allows(task); got != c.want {
			t.Fatalf("%s: allows = %v, want %v", c.name, got, c.want)
		}
	}
}

func memoryMatcher(repo *MemorySubmissionRepository) *Matcher {
	return &Matcher{source: repo, Policy: MatchPolicy{SkillThreshold: 50}}
}

func TestMatcherExcludesSharedNullifier(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	repo.AddTask(testTask(1, 99, 5))

	// First account already submitted to the task.
	first := testUser(2, "0xsame")
	if _, err := repo.CreateSubmission(context.Background(), first, submitInput(1, "0xsame")); err != nil {
		t.Fatalf("seed submission: %v", err)
	}

	// Second account, same proof of personhood. Submitting would be rejected
	// as a duplicate, so matching must not offer the task either.
	second := testUser(3, "0xsame")
	m := memoryMatcher(repo)
	task, diag, err := m.NextTask(context.Background(), second, MatchFilters{})
	if err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	if task != nil {
		t.Fatalf("task %d offered to account sharing a nullifier", task.ID)
	}
	if diag.EligibleBefore != 0 {
		t.Fatalf("eligible = %d, want 0", diag.EligibleBefore)
	}

	// A genuinely distinct user still gets the task.
	other := testUser(4, "0xother")
	task, _, err = m.NextTask(context.Background(), other, MatchFilters{})
	if err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	if task == nil || task.ID != 1 {
		t.Fatalf("distinct user got %v, want task 1", task)
	}
}

func TestMatcherAppliesFilters(t *testing.T) {
	repo := NewMemorySubmissionRepository()

	rating := testTask(1, 99, 5)
	rating.DifficultyLevel = 1
	rating.RewardAmount = decimal.NewFromInt(1)
	repo.AddTask(rating)

	voice := testTask(2, 99, 5)
	voice.TaskType = models.TaskTypeVoiceRecording
	voice.DifficultyLevel = 1
	voice.RewardAmount = decimal.NewFromInt(5)
	repo.AddTask(voice)

	user := testUser(3, "0xa")
	m := memoryMatcher(repo)

	tasks, _, err := m.ListEligible(context.Background(), user, MatchFilters{})
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("unfiltered = %d tasks, want 2", len(tasks))
	}

	tasks, _, err = m.ListEligible(context.Background(), user, MatchFilters{TaskType: models.TaskTypeVoiceRecording})
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != 2 {
		t.Fatalf("type filter returned %v, want only task 2", tasks)
	}

	tasks, _, err = m.ListEligible(context.Background(), user, MatchFilters{MinReward: decimal.NewFromInt(3)})
	if err != nil {
		t.Fatalf("ListEligible: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != 2 {
		t.Fatalf("reward filter returned %v, want only task 2", tasks)
	}
}

func TestMatcherDiagnosticsCountApproved(t *testing.T) {
	repo := NewMemorySubmissionRepository()
	repo.AddTask(testTask(1, 99, 5))
	user := testUser(2, "0xa")

	repo.AddSubmission(models.Submission{TaskID: 10, UserID: user.ID, SubmitterNullifier: "0xa", Status: models.SubmissionStatusApproved})
	repo.AddSubmission(models.Submission{TaskID: 11, UserID: user.ID, SubmitterNullifier: "0xa", Status: models.SubmissionStatusApproved})
	repo.AddSubmission(models.Submission{TaskID: 12, UserID: user.ID, SubmitterNullifier: "0xa", Status: models.SubmissionStatusPending})
	repo.AddSubmission(models.Submission{TaskID: 13, UserID: user.ID, SubmitterNullifier: "0xa", Status: models.SubmissionStatusRejected})

	m := memoryMatcher(repo)
	_, diag, err := m.NextTask(context.Background(), user, MatchFilters{})
	if err != nil {
		t.Fatalf("NextTask: %v", err)
	}
	if diag.UserCompleted != 2 {
		t.Fatalf("completed = %d, want 2 approved only", diag.UserCompleted)
	}
	if diag.TotalActive != 1 {
		t.Fatalf("total active = %d, want 1", diag.TotalActive)
	}
}

func TestPolicyFromEnv(t *testing.T) {
	t.Setenv("MATCH_SKILL_THRESHOLD", "")
	if p := PolicyFromEnv(); p.SkillThreshold != 50 {
		t.Fatalf("default threshold = %d, want 50", p.SkillThreshold)
	}
	t.Setenv("MATCH_SKILL_THRESHOLD", "75")
	if p := PolicyFromEnv(); p.SkillThreshold != 75 {
		t.Fatalf("threshold = %d, want 75", p.SkillThreshold)
	}
	t.Setenv("MATCH_SKILL_THRESHOLD", "garbage")
	if p := PolicyFromEnv(); p.SkillThreshold != 50 {
		t.Fatalf("bad value threshold = %d, want default 50", p.SkillThreshold)
	}
}
