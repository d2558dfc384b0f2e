package reviewers

import (
	"errors"
	"net/http"
	"strconv"

	"taskmarket/database"
	"taskmarket/middleware"
	"taskmarket/models"
	"taskmarket/store"
	"taskmarket/utils"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

func currentReviewer(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	claims, ok := utils.GetUser(r)
	if !ok || claims.UserID == 0 {
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Unauthorized"})
		return nil, false
	}
	var user models.User
	if err := database.DB.First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "User not found"})
			return nil, false
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return nil, false
	}
	return &user, true
}

// QueueHandler lists reviewable submissions oldest first.
func QueueHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentReviewer(w, r); !ok {
		return
	}
	limit := 20
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	reviews := store.NewReviewStore(database.DB)
	subs, total, err := reviews.PendingQueue(r.Context(), limit, offset)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data:    map[string]interface{}{"submissions": subs, "total": total},
	})
}

type ReviewRequest struct {
	Action       string   `json:"action" validate:"required,oneof=start_review approve reject"`
	QualityScore *float64 `json:"quality_score,omitempty" validate:"omitempty,min=0,max=5"`
	Notes        *string  `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ReviewHandler applies one decision to the submission in the path.
func ReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := currentReviewer(w, r)
	if !ok {
		return
	}
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid submission id"})
		return
	}
	var req ReviewRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	reviews := store.NewReviewStore(database.DB)
	sub, err := reviews.ReviewSubmission(r.Context(), reviewer, store.ReviewInput{
		SubmissionID: uint(id),
		Action:       req.Action,
		QualityScore: req.QualityScore,
		Notes:        req.Notes,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Review recorded", Data: sub})
}

type BatchReviewRequest struct {
	Reviews []store.ReviewInput `json:"reviews" validate:"required,min=1,max=50"`
}

// BatchReviewHandler applies up to 50 decisions with per-row outcomes.
func BatchReviewHandler(w http.ResponseWriter, r *http.Request) {
	reviewer, ok := currentReviewer(w, r)
	if !ok {
		return
	}
	var req BatchReviewRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	reviews := store.NewReviewStore(database.DB)
	results, err := reviews.ReviewBatch(r.Context(), reviewer, req.Reviews)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "Batch processed",
		Data:    map[string]interface{}{"results": results},
	})
}
