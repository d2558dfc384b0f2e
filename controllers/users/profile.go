package users

import (
	"net/http"

	"taskmarket/database"
	"taskmarket/middleware"
	"taskmarket/models"
	"taskmarket/utils"
)

// MeHandler returns the profile plus submission and earning stats.
func MeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	db := database.DB

	var submitted, approved int64
	db.Model(&models.Submission{}).Where("user_id = ?", user.ID).Count(&submitted)
	db.Model(&models.Submission{}).Where("user_id = ? AND status = ?", user.ID, models.SubmissionStatusApproved).Count(&approved)

	var created int64
	db.Model(&models.Task{}).Where("creator_id = ?", user.ID).Count(&created)

	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data: map[string]interface{}{
			"user": user,
			"stats": map[string]interface{}{
				"submissions_total":    submitted,
				"submissions_approved": approved,
				"tasks_created":        created,
				"total_earned":         user.TotalEarned,
				"reputation_score":     user.ReputationScore,
			},
		},
	})
}

type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
}

// UpdateMeHandler changes the mutable profile fields. Identity fields
// (world_id, nullifier_hash, verification_level) are not writable here.
func UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	if req.Username == nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Nothing to update"})
		return
	}
	if err := database.DB.Model(user).Update("username", req.Username).Error; err != nil {
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{Success: false, Message: "Username already taken"})
		return
	}
	user.Username = req.Username
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Profile updated", Data: user})
}
