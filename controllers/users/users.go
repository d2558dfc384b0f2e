package users

import (
	"errors"
	"net/http"
	"strconv"

	"taskmarket/database"
	"taskmarket/models"
	"taskmarket/store"
	"taskmarket/utils"

	"gorm.io/gorm"
)

// Submissions is the repository behind submission creation, selected at
// startup: the gorm implementation normally, the in-memory one in demo mode.
var Submissions store.SubmissionRepository

// Policy holds the matching knobs loaded from the environment at startup.
var Policy store.MatchPolicy

// Setup wires the package before routes are registered.
func Setup(repo store.SubmissionRepository, policy store.MatchPolicy) {
	Submissions = repo
	Policy = policy
}

// currentUser loads the full user row for the authenticated session. Writes
// the error response itself so handlers can bail with a bare return.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
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
	if !user.IsActive {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Account is deactivated, contact support"})
		return nil, false
	}
	return &user, true
}

// paginate pulls limit/offset query params with sane bounds.
func paginate(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
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
	return limit, offset
}
