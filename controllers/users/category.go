package users

import (
	"net/http"

	"taskmarket/database"
	"taskmarket/models"
	"taskmarket/utils"
)

// ListCategoriesHandler returns the active task categories. Creators pick
// from this list when posting a task.
func ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	var categories []models.TaskCategory
	if err := database.DB.Where("is_active = ?", true).Order("name ASC").Find(&categories).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "OK", Data: categories})
}
