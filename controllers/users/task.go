package users

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"taskmarket/database"
	"taskmarket/middleware"
	"taskmarket/models"
	"taskmarket/store"
	"taskmarket/utils"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CreateTaskRequest struct {
	CategoryID           uint    `json:"category_id" validate:"required"`
	Title                string  `json:"title" validate:"required,min=3,max=200"`
	Description          *string `json:"description,omitempty"`
	TaskType             string  `json:"task_type" validate:"required,oneof=pairwise_rating voice_recording annotation custom"`
	DifficultyLevel      int     `json:"difficulty_level" validate:"required,min=1,max=5"`
	RewardAmount         string  `json:"reward_amount" validate:"required"`
	RewardCurrency       string  `json:"reward_currency" validate:"required,oneof=WLD ETH USDC"`
	MaxSubmissions       int     `json:"max_submissions" validate:"required,min=1,max=10000"`
	RequiresVerification bool    `json:"requires_verification"`
	RequiredLevel        string  `json:"required_level,omitempty" validate:"omitempty,oneof=orb device"`
	Priority             int     `json:"priority,omitempty" validate:"omitempty,min=1,max=5"`
	ExpiresAt            *string `json:"expires_at,omitempty"`
}

// CreateTaskHandler creates a task in draft. Activation is a separate call so
// a creator can stage tasks before funding them.
func CreateTaskHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	reward, err := decimal.NewFromString(req.RewardAmount)
	if err != nil || reward.IsNegative() || reward.IsZero() {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "reward_amount must be a positive decimal"})
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil || !t.After(time.Now()) {
			utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "expires_at must be an RFC3339 time in the future"})
			return
		}
		expiresAt = &t
	}

	var category models.TaskCategory
	if err := database.DB.Where("id = ? AND is_active = ?", req.CategoryID, true).First(&category).Error; err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unknown task category"})
		return
	}

	requiredLevel := req.RequiredLevel
	if requiredLevel == "" {
		requiredLevel = models.VerificationDevice
	}
	priority := req.Priority
	if priority == 0 {
		priority = 3
	}

	task := models.Task{
		CreatorID:            user.ID,
		CategoryID:           req.CategoryID,
		Title:                req.Title,
		Description:          req.Description,
		TaskType:             req.TaskType,
		DifficultyLevel:      req.DifficultyLevel,
		RewardAmount:         reward,
		RewardCurrency:       req.RewardCurrency,
		MaxSubmissions:       req.MaxSubmissions,
		RequiresVerification: req.RequiresVerification,
		RequiredLevel:        requiredLevel,
		Status:               models.TaskStatusDraft,
		Priority:             priority,
		ExpiresAt:            expiresAt,
	}
	if err := database.DB.Create(&task).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{Success: true, Message: "Task created", Data: task})
}

// taskStatusTransitions is the creator-side lifecycle. Completed and
// cancelled are terminal.
var taskStatusTransitions = map[string][]string{
	models.TaskStatusDraft:  {models.TaskStatusActive, models.TaskStatusCancelled},
	models.TaskStatusActive: {models.TaskStatusPaused, models.TaskStatusCompleted, models.TaskStatusCancelled},
	models.TaskStatusPaused: {models.TaskStatusActive, models.TaskStatusCompleted, models.TaskStatusCancelled},
}

type UpdateTaskStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active paused completed cancelled"`
}

// UpdateTaskStatusHandler moves a task through its lifecycle. Only the
// creator may do this.
func UpdateTaskStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	taskID := pathID(r, "id")
	if taskID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}
	var req UpdateTaskStatusRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}

	var task models.Task
	if err := database.DB.First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, store.ErrTaskNotFound)
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if task.CreatorID != user.ID {
		utils.WriteJSON(w, http.StatusForbidden, utils.APIResponse{Success: false, Message: "Only the creator can change this task"})
		return
	}

	allowed := false
	for _, s := range taskStatusTransitions[task.Status] {
		if s == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		utils.WriteError(w, store.ErrInvalidTransition)
		return
	}

	if err := database.DB.Model(&task).Update("status", req.Status).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	task.Status = req.Status
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Task updated", Data: task})
}

// GetTaskHandler returns one task with its category and a live submission
// count.
func GetTaskHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUser(w, r); !ok {
		return
	}
	taskID := pathID(r, "id")
	if taskID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid task id"})
		return
	}
	var task models.Task
	if err := database.DB.Preload("Category").First(&task, taskID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.WriteError(w, store.ErrTaskNotFound)
			return
		}
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	var count int64
	database.DB.Model(&models.Submission{}).Where("task_id = ?", task.ID).Count(&count)
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data: map[string]interface{}{
			"task":             task,
			"submission_count": count,
		},
	})
}

// ListMyTasksHandler lists tasks created by the caller.
func ListMyTasksHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := paginate(r)
	q := database.DB.Model(&models.Task{}).Where("creator_id = ?", user.ID)
	if s := r.URL.Query().Get("status"); s != "" {
		q = q.Where("status = ?", s)
	}
	var total int64
	q.Count(&total)
	var tasks []models.Task
	if err := q.Order("id DESC").Limit(limit).Offset(offset).Find(&tasks).Error; err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data:    map[string]interface{}{"tasks": tasks, "total": total},
	})
}

// parseMatchFilters reads the optional narrowing params off the query
// string. Bad values fall back to "no filter" rather than erroring.
func parseMatchFilters(r *http.Request) store.MatchFilters {
	q := r.URL.Query()
	f := store.MatchFilters{TaskType: q.Get("task_type")}
	if v := q.Get("category_id"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			f.CategoryID = uint(n)
		}
	}
	if v := q.Get("max_difficulty"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 5 {
			f.MaxDifficulty = n
		}
	}
	if v := q.Get("min_reward"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			f.MinReward = d
		}
	}
	return f
}

// NextTaskHandler returns the single best task for the caller.
func NextTaskHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	matcher := store.NewMatcher(database.DB, Policy)
	task, diag, err := matcher.NextTask(r.Context(), user, parseMatchFilters(r))
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	if task == nil {
		utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
			Success: true,
			Message: "No eligible tasks right now",
			Data:    map[string]interface{}{"task": nil, "diagnostics": diag},
		})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data:    map[string]interface{}{"task": task, "diagnostics": diag},
	})
}

// MatchTasksHandler returns up to 20 ranked eligible tasks.
func MatchTasksHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	matcher := store.NewMatcher(database.DB, Policy)
	tasks, diag, err := matcher.ListEligible(r.Context(), user, parseMatchFilters(r))
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data:    map[string]interface{}{"tasks": tasks, "diagnostics": diag},
	})
}

// pathID parses a numeric mux path variable, returning 0 when invalid.
func pathID(r *http.Request, key string) uint {
	raw := mux.Vars(r)[key]
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(n)
}
