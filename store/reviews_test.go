package store

import (
	"errors"
	"testing"
	"time"

	"taskmarket/models"
)

func TestValidReviewTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{models.SubmissionStatusPending, models.SubmissionStatusUnderReview, true},
		{models.SubmissionStatusPending, models.SubmissionStatusApproved, true},
		{models.SubmissionStatusPending, models.SubmissionStatusRejected, true},
		{models.SubmissionStatusUnderReview, models.SubmissionStatusApproved, true},
		{models.SubmissionStatusUnderReview, models.SubmissionStatusRejected, true},
		{models.SubmissionStatusUnderReview, models.SubmissionStatusPending, false},
		{models.SubmissionStatusApproved, models.SubmissionStatusRejected, false},
		{models.SubmissionStatusApproved, models.SubmissionStatusApproved, false},
		{models.SubmissionStatusRejected, models.SubmissionStatusApproved, false},
		{models.SubmissionStatusRejected, models.SubmissionStatusPending, false},
	}
	for _, c := range cases {
		if got := ValidReviewTransition(c.from, c.to); got != c.want {
			t.Fatalf("ValidReviewTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestValidateReviewInput(t *testing.T) {
	if err := validateReviewInput(ReviewInput{SubmissionID: 1, Action: "approve"}); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if err := validateReviewInput(ReviewInput{SubmissionID: 0, Action: "approve"}); err == nil {
		t.Fatal("missing submission_id accepted")
	}
	if err := validateReviewInput(ReviewInput{SubmissionID: 1, Action: "escalate"}); err == nil {
		t.Fatal("unknown action accepted")
	}
	bad := 7.5
	if err := validateReviewInput(ReviewInput{SubmissionID: 1, Action: "reject", QualityScore: &bad}); err == nil {
		t.Fatal("out-of-range quality score accepted")
	}
	good := 4.5
	if err := validateReviewInput(ReviewInput{SubmissionID: 1, Action: "approve", QualityScore: &good}); err != nil {
		t.Fatalf("in-range quality score rejected: %v", err)
	}
}

func TestActionToStatus(t *testing.T) {
	if s, err := actionToStatus(models.ReviewActionStartReview); err != nil || s != models.SubmissionStatusUnderReview {
		t.Fatalf("start_review -> %s, %v", s, err)
	}
	if s, err := actionToStatus(models.ReviewActionApprove); err != nil || s != models.SubmissionStatusApproved {
		t.Fatalf("approve -> %s, %v", s, err)
	}
	if s, err := actionToStatus(models.ReviewActionReject); err != nil || s != models.SubmissionStatusRejected {
		t.Fatalf("reject -> %s, %v", s, err)
	}
	if _, err := actionToStatus("maybe"); err == nil {
		t.Fatal("unknown action mapped to a status")
	}
}

func testReviewer(id uint) *models.User {
	return &models.User{ID: id, Role: models.RoleReviewer}
}

func TestApplyReviewStampsReviewedAtOnce(t *testing.T) {
	reviewer := testReviewer(8)
	sub := models.Submission{ID: 1, UserID: 2, Status: models.SubmissionStatusPending}

	t1 := time.Now().Add(-time.Hour)
	if err := applyReview(&sub, reviewer, ReviewInput{SubmissionID: 1, Action: models.ReviewActionStartReview}, t1); err != nil {
		t.Fatalf("start_review: %v", err)
	}
	if sub.Status != models.SubmissionStatusUnderReview {
		t.Fatalf("status = %s, want under_review", sub.Status)
	}
	if sub.ReviewedAt == nil || !sub.ReviewedAt.Equal(t1) {
		t.Fatalf("reviewed_at = %v, want %v", sub.ReviewedAt, t1)
	}

	t2 := time.Now()
	score := 4.0
	if err := applyReview(&sub, reviewer, ReviewInput{SubmissionID: 1, Action: models.ReviewActionApprove, QualityScore: &score}, t2); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if sub.Status != models.SubmissionStatusApproved {
		t.Fatalf("status = %s, want approved", sub.Status)
	}
	if !sub.ReviewedAt.Equal(t1) {
		t.Fatalf("reviewed_at moved to %v, want first stamp %v", sub.ReviewedAt, t1)
	}
	if sub.QualityScore == nil || *sub.QualityScore != 4.0 {
		t.Fatalf("quality score = %v, want 4.0", sub.QualityScore)
	}
}

func TestApplyReviewTerminalIsFinal(t *testing.T) {
	reviewer := testReviewer(8)
	stamped := time.Now().Add(-time.Hour)
	sub := models.Submission{ID: 1, UserID: 2, Status: models.SubmissionStatusApproved, ReviewedAt: &stamped}

	err := applyReview(&sub, reviewer, ReviewInput{SubmissionID: 1, Action: models.ReviewActionReject}, time.Now())
	if !errors.Is(err, ErrSubmissionNotPending) {
		t.Fatalf("err = %v, want ErrSubmissionNotPending", err)
	}
	if sub.Status != models.SubmissionStatusApproved {
		t.Fatalf("terminal status mutated to %s", sub.Status)
	}
	if !sub.ReviewedAt.Equal(stamped) {
		t.Fatalf("reviewed_at mutated to %v", sub.ReviewedAt)
	}
}

func TestApplyReviewKeepsClaimNotes(t *testing.T) {
	reviewer := testReviewer(8)
	sub := models.Submission{ID: 1, UserID: 2, Status: models.SubmissionStatusPending}

	notes := "needs a closer look"
	if err := applyReview(&sub, reviewer, ReviewInput{SubmissionID: 1, Action: models.ReviewActionStartReview, Notes: &notes}, time.Now()); err != nil {
		t.Fatalf("start_review: %v", err)
	}
	// Approving without notes keeps the claim's notes.
	if err := applyReview(&sub, reviewer, ReviewInput{SubmissionID: 1, Action: models.ReviewActionApprove}, time.Now()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if sub.ReviewNotes == nil || *sub.ReviewNotes != notes {
		t.Fatalf("notes = %v, want %q", sub.ReviewNotes, notes)
	}
}
