package routes

import (
	"net/http"

	"taskmarket/controllers/reviewers"
	"taskmarket/middleware"
	"taskmarket/models"

	"github.com/gorilla/mux"
)

// ReviewersRoutes registers the review endpoints. Role enforcement happens
// twice: the route gate here and the store check inside each operation.
func ReviewersRoutes(api *mux.Router) {
	userLimiter := middleware.NewUserRateLimiter(300, 120, 60)
	requireReviewer := middleware.RequireRole(models.RoleReviewer)

	api.Handle("/review/queue", userLimiter.Middleware(middleware.AuthMiddleware(requireReviewer(http.HandlerFunc(reviewers.QueueHandler))))).Methods(http.MethodGet)
	api.Handle("/review/submissions/{id:[0-9]+}", userLimiter.Middleware(middleware.AuthMiddleware(requireReviewer(http.HandlerFunc(reviewers.ReviewHandler))))).Methods(http.MethodPost)
	api.Handle("/review/batch", userLimiter.Middleware(middleware.AuthMiddleware(requireReviewer(http.HandlerFunc(reviewers.BatchReviewHandler))))).Methods(http.MethodPost)
}
