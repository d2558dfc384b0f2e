package users

import (
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMatchFilters(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.local/v3/tasks/next?task_type=voice_recording&category_id=4&max_difficulty=3&min_reward=1.5", nil)
	f := parseMatchFilters(r)
	if f.TaskType != "voice_recording" {
		t.Fatalf("task_type = %s", f.TaskType)
	}
	if f.CategoryID != 4 {
		t.Fatalf("category_id = %d", f.CategoryID)
	}
	if f.MaxDifficulty != 3 {
		t.Fatalf("max_difficulty = %d", f.MaxDifficulty)
	}
	if !f.MinReward.Equal(decimal.NewFromFloat(1.5)) {
		t.Fatalf("min_reward = %s", f.MinReward)
	}
}

func TestParseMatchFiltersIgnoresBadValues(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.local/v3/tasks/next?category_id=abc&max_difficulty=9&min_reward=-2", nil)
	f := parseMatchFilters(r)
	if f.CategoryID != 0 || f.MaxDifficulty != 0 || f.MinReward.IsPositive() {
		t.Fatalf("bad values not dropped: %+v", f)
	}
}

func TestParseMatchFiltersEmptyQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.local/v3/tasks/next", nil)
	f := parseMatchFilters(r)
	if f.TaskType != "" || f.CategoryID != 0 || f.MaxDifficulty != 0 || f.MinReward.IsPositive() {
		t.Fatalf("empty query produced filters: %+v", f)
	}
}
