package routes

import (
	"net/http"
	"time"

	"taskmarket/controllers/auth"
	"taskmarket/controllers/users"
	"taskmarket/middleware"

	"github.com/gorilla/mux"
)

// UsersRoutes registers the auth, task, submission, payment, upload and
// dispute endpoints on the given subrouter.
func UsersRoutes(api *mux.Router) {
	// Auth endpoints: 60 per IP per 5 minutes
	authLimiter := middleware.NewIPRateLimiter(60, 5*time.Minute)
	// Session endpoints: 120 read, 60 write per user per minute
	userLimiter := middleware.NewUserRateLimiter(120, 60, 60)

	// World ID verification is the only entry point; there is no register/login
	api.Handle("/auth/verify", authLimiter.Middleware(http.HandlerFunc(auth.VerifyHandler))).Methods(http.MethodPost)
	api.Handle("/auth/refresh", authLimiter.Middleware(http.HandlerFunc(auth.RefreshHandler))).Methods(http.MethodPost)
	api.Handle("/auth/logout", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(auth.LogoutHandler)))).Methods(http.MethodPost)

	// Profile
	api.Handle("/users/me", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.MeHandler)))).Methods(http.MethodGet)
	api.Handle("/users/me", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.UpdateMeHandler)))).Methods(http.MethodPut)

	// Reference data
	api.Handle("/categories", authLimiter.Middleware(http.HandlerFunc(users.ListCategoriesHandler))).Methods(http.MethodGet)

	// Matching comes before the {id} routes so "next" and "match" never parse as ids
	api.Handle("/tasks/next", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.NextTaskHandler)))).Methods(http.MethodGet)
	api.Handle("/tasks/match", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.MatchTasksHandler)))).Methods(http.MethodGet)

	// Task lifecycle
	api.Handle("/tasks", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.CreateTaskHandler)))).Methods(http.MethodPost)
	api.Handle("/tasks", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.ListMyTasksHandler)))).Methods(http.MethodGet)
	api.Handle("/tasks/{id:[0-9]+}", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.GetTaskHandler)))).Methods(http.MethodGet)
	api.Handle("/tasks/{id:[0-9]+}/status", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.UpdateTaskStatusHandler)))).Methods(http.MethodPatch)

	// Submissions
	api.Handle("/tasks/{id:[0-9]+}/submissions", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.CreateSubmissionHandler)))).Methods(http.MethodPost)
	api.Handle("/submissions", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.ListMySubmissionsHandler)))).Methods(http.MethodGet)

	// Attachments
	api.Handle("/uploads", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.UploadHandler)))).Methods(http.MethodPost)

	// Payments
	api.Handle("/payments", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.CreatePaymentHandler)))).Methods(http.MethodPost)
	api.Handle("/payments", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.ListPaymentsHandler)))).Methods(http.MethodGet)
	api.Handle("/payments/{id:[0-9]+}", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.GetPaymentHandler)))).Methods(http.MethodGet)
	api.Handle("/payments/{id:[0-9]+}/status", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.UpdatePaymentStatusHandler)))).Methods(http.MethodPatch)

	// Disputes
	api.Handle("/submissions/{id:[0-9]+}/disputes", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.CreateDisputeHandler)))).Methods(http.MethodPost)
	api.Handle("/disputes", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.ListMyDisputesHandler)))).Methods(http.MethodGet)
	api.Handle("/disputes/{id:[0-9]+}", userLimiter.Middleware(middleware.AuthMiddleware(http.HandlerFunc(users.GetDisputeHandler)))).Methods(http.MethodGet)
}
