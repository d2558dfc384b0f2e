package users

import (
	"errors"
	"net/http"

	"taskmarket/database"
	"taskmarket/middleware"
	"taskmarket/models"
	"taskmarket/store"
	"taskmarket/utils"

	"gorm.io/gorm"
)

type CreateDisputeRequest struct {
	Reason string `json:"reason" validate:"required,min=10,max=2000"`
}

// CreateDisputeHandler lets the submitter contest a rejected submission. One
// open dispute per submission.
func CreateDisputeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	submissionID := pathID(r, "id")
	if submissionID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid submission id"})
		return
	}
	var req CreateDisputeRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	var sub models.Submission
	if err := database.DB.First(&sub, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, store.ErrSubmissionNotFound)
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if sub.UserID != user.ID {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Only the submitter can dispute a review"})
		return
	}
	if sub.Status != models.SubmissionStatusRejected {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Only rejected submissions can be disputed"})
		return
	}

	var open int64
	database.DB.Model(&models.Dispute{}).
		Where("submission_id = ? AND status = ?", sub.ID, models.DisputeStatusOpen).
		Count(&open)
	if open > 0 {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "A dispute is already open for this submission"})
		return
	}

	dispute := models.Dispute{
		SubmissionID: sub.ID,
		RaisedBy:     user.ID,
		Reason:       req.Reason,
		Status:       models.DisputeStatusOpen,
	}
	if err := database.DB.Create(&dispute).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Dispute opened", Data: dispute})
}

// GetDisputeHandler returns one dispute. Only the raiser can read it.
func GetDisputeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	disputeID := pathID(r, "id")
	if disputeID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid dispute id"})
		return
	}
	var dispute models.Dispute
	if err := database.DB.First(&dispute, disputeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Dispute not found"})
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if dispute.RaisedBy != user.ID {
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{Success: false, Message: "Dispute not found"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "OK", Data: dispute})
}

// ListMyDisputesHandler lists disputes raised by the caller.
func ListMyDisputesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := paginate(r)
	var disputes []models.Dispute
	if err := database.DB.Where("raised_by = ?", user.ID).
		Order("id DESC").Limit(limit).Offset(offset).
		Find(&disputes).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "OK", Data: disputes})
}
