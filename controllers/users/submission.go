package users

import (
	"encoding/json"
	"net/http"

	"taskmarket/store"
	"taskmarket/utils"
)

type CreateSubmissionRequest struct {
	ActionID         string          `json:"action_id" validate:"required"`
	NullifierHash    string          `json:"nullifier_hash" validate:"required"`
	SubmissionData   json.RawMessage `json:"submission_data" validate:"required"`
	AttachmentsURLs  []string        `json:"attachments_urls,omitempty" validate:"omitempty,max=10,dive,url"`
	TimeSpentMinutes *int            `json:"time_spent_minutes,omitempty"`
}

// CreateSubmissionHandler accepts a submission for the task in the path. All
// the real rules live in the repository transaction; this handler only shapes
// the request and the response.
func CreateSubmissionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID := pathID(r, "id")
	if taskID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}
	var req CreateSubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}

	sub, err := Submissions.CreateSubmission(r.Context(), user, store.CreateSubmissionInput{
		TaskID:           taskID,
		ActionID:         req.ActionID,
		NullifierHash:    req.NullifierHash,
		SubmissionData:   req.SubmissionData,
		AttachmentsURLs:  req.AttachmentsURLs,
		TimeSpentMinutes: req.TimeSpentMinutes,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Submission accepted", Data: sub})
}

// ListMySubmissionsHandler lists the caller's submissions newest first.
func ListMySubmissionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := paginate(r)
	subs, total, err := Submissions.ListByUser(r.Context(), user.ID, limit, offset)
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
