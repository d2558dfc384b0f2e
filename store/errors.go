package store

import "net/http"

// Error is a stable, machine-checkable business error. Handlers branch on
// Code, clients branch on Code, humans read Message. Codes never change once
// released.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

var (
	ErrAuthenticationRequired = &Error{Code: "AUTHENTICATION_REQUIRED", Message: "Authentication required", Status: http.StatusUnauthorized}
	ErrTaskNotFound           = &Error{Code: "TASK_NOT_FOUND", Message: "Task not found", Status: http.StatusNotFound}
	ErrTaskNotActive          = &Error{Code: "TASK_NOT_ACTIVE", Message: "Task is not accepting submissions", Status: http.StatusConflict}
	ErrTaskExpired            = &Error{Code: "TASK_EXPIRED", Message: "Task has expired", Status: http.StatusConflict}
	ErrSelfSubmission         = &Error{Code: "SELF_SUBMISSION_FORBIDDEN", Message: "Task creators cannot submit to their own tasks", Status: http.StatusConflict}
	ErrVerificationLevel      = &Error{Code: "VERIFICATION_LEVEL_INSUFFICIENT", Message: "Task requires a higher verification level", Status: http.StatusConflict}
	ErrDuplicateSubmission    = &Error{Code: "DUPLICATE_SUBMISSION", Message: "A submission for this task already exists", Status: http.StatusConflict}
	ErrCapacityExceeded       = &Error{Code: "CAPACITY_EXCEEDED", Message: "Task has reached its submission limit", Status: http.StatusConflict}
	ErrValidationFailed       = &Error{Code: "VALIDATION_FAILED", Message: "Request validation failed", Status: http.StatusBadRequest}

	// Security failures deliberately share one opaque code so a caller cannot
	// probe which check tripped.
	ErrVerificationFailed = &Error{Code: "VERIFICATION_FAILED", Message: "Verification failed", Status: http.StatusUnauthorized}

	ErrSubmissionNotFound    = &Error{Code: "SUBMISSION_NOT_FOUND", Message: "Submission not found", Status: http.StatusNotFound}
	ErrSubmissionNotPending  = &Error{Code: "SUBMISSION_NOT_REVIEWABLE", Message: "Submission is not in a reviewable state", Status: http.StatusConflict}
	ErrReviewerRequired      = &Error{Code: "REVIEWER_REQUIRED", Message: "Reviewer role required", Status: http.StatusForbidden}
	ErrPaymentNotFound       = &Error{Code: "PAYMENT_NOT_FOUND", Message: "Payment not found", Status: http.StatusNotFound}
	ErrPaymentNotAuthorized  = &Error{Code: "PAYMENT_NOT_AUTHORIZED", Message: "Only the task creator can pay out a task reward", Status: http.StatusForbidden}
	ErrPaymentAmountMismatch = &Error{Code: "PAYMENT_AMOUNT_MISMATCH", Message: "Payment amount does not match the task reward", Status: http.StatusConflict}
	ErrPaymentBelowMinimum   = &Error{Code: "PAYMENT_BELOW_MINIMUM", Message: "Payment amount is below the minimum transfer", Status: http.StatusBadRequest}
	ErrPaymentThrottled      = &Error{Code: "PAYMENT_RATE_LIMITED", Message: "Payment rate limit reached, try again later", Status: http.StatusConflict}
	ErrPaymentDuplicate      = &Error{Code: "PAYMENT_ALREADY_EXISTS", Message: "A payment already references this submission", Status: http.StatusConflict}
	ErrSubmissionNotApproved = &Error{Code: "SUBMISSION_NOT_APPROVED", Message: "Submission must be approved before payout", Status: http.StatusConflict}
	ErrInvalidTransition     = &Error{Code: "INVALID_STATUS_TRANSITION", Message: "Status transition not allowed", Status: http.StatusConflict}

	ErrInternal = &Error{Code: "INTERNAL_ERROR", Message: "Internal server error", Status: http.StatusInternalServerError}
)

// Validation returns a VALIDATION_FAILED error with a specific message.
func Validation(msg string) *Error {
	return &Error{Code: ErrValidationFailed.Code, Message: msg, Status: http.StatusBadRequest}
}

// AsError unwraps err into a *Error, or wraps unexpected failures as an
// opaque internal error so nothing leaks to the caller.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	if se, ok := err.(*Error); ok {
		return se
	}
	return ErrInternal
}
