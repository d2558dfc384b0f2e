package users

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"taskmarket/database"
	"taskmarket/middleware"
	"taskmarket/store"
	"taskmarket/utils"

	"github.com/shopspring/decimal"
)

type CreatePaymentRequest struct {
	TaskID       uint   `json:"task_id" validate:"required"`
	SubmissionID *uint  `json:"submission_id,omitempty"`
	Amount       string `json:"amount" validate:"required"`
	Currency     string `json:"currency" validate:"required,oneof=WLD ETH USDC"`
	PaymentType  string `json:"payment_type" validate:"required,oneof=task_reward escrow_deposit escrow_release refund"`
}

// CreatePaymentHandler opens a settlement for an approved submission.
func CreatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req CreatePaymentRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "amount must be a decimal string"})
		return
	}

	payments := store.NewPaymentStore(database.DB)
	payment, err := payments.CreatePayment(r.Context(), user, store.CreatePaymentInput{
		TaskID:       req.TaskID,
		SubmissionID: req.SubmissionID,
		Amount:       amount,
		Currency:     req.Currency,
		PaymentType:  req.PaymentType,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.APIResponse{
		Success: true,
		Message: "Payment created",
		Data: map[string]interface{}{
			"payment":   payment,
			"reference": utils.GeneratePaymentReference(user.ID),
		},
	})
}

// GetPaymentHandler returns one payment visible to the caller.
func GetPaymentHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	paymentID := pathID(r, "id")
	if paymentID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid payment id"})
		return
	}
	payments := store.NewPaymentStore(database.DB)
	payment, err := payments.GetPayment(r.Context(), user, paymentID)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "OK", Data: payment})
}

type UpdatePaymentStatusRequest struct {
	Status          string  `json:"status" validate:"required,oneof=processing completed failed cancelled"`
	TransactionHash *string `json:"transaction_hash,omitempty" validate:"omitempty,max=128"`
	FailureReason   *string `json:"failure_reason,omitempty"`
}

// UpdatePaymentStatusHandler lets the payer move a payment, mainly to cancel
// one that was opened by mistake.
func UpdatePaymentStatusHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	paymentID := pathID(r, "id")
	if paymentID == 0 {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid payment id"})
		return
	}
	var req UpdatePaymentStatusRequest
	if err := middleware.ValidateJSON(w, r, &req); err != nil {
		return
	}
	payments := store.NewPaymentStore(database.DB)
	payment, err := payments.UpdatePaymentStatus(r.Context(), user, paymentID, req.Status, req.TransactionHash, req.FailureReason)
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "Payment updated", Data: payment})
}

// ListPaymentsHandler lists payments where the caller is payer or recipient.
func ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset := paginate(r)
	payments := store.NewPaymentStore(database.DB)
	list, total, err := payments.ListByUser(r.Context(), user.ID, limit, offset)
	if err != nil {
		utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{Success: false, Message: "Server error"})
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{
		Success: true,
		Message: "OK",
		Data:    map[string]interface{}{"payments": list, "total": total},
	})
}

type paymentWebhookBody struct {
	PaymentID         string  `json:"payment_id"`
	ExternalPaymentID string  `json:"external_payment_id"`
	Status            string  `json:"status"`
	TransactionHash   *string `json:"transaction_hash,omitempty"`
	FailureReason     *string `json:"failure_reason,omitempty"`
}

// externalID returns the idempotency key for the callback. Gateways send
// external_payment_id; older ones put the same value in payment_id.
func (b paymentWebhookBody) externalID() string {
	if b.ExternalPaymentID != "" {
		return b.ExternalPaymentID
	}
	return b.PaymentID
}

// PaymentWebhookHandler receives gateway status callbacks. The signature is
// checked over the raw body before any parsing; after that the store applies
// the event idempotently. Unknown payments answer 404 so the gateway stops
// retrying a callback that can never land.
func PaymentWebhookHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Unable to read body"})
		return
	}
	if err := utils.VerifyWebhookSignature(body, r.Header.Get("X-Payment-Signature")); err != nil {
		log.Printf("[webhook] rejected callback: %v", err)
		utils.WriteJSON(w, http.StatusUnauthorized, utils.APIResponse{Success: false, Message: "Invalid signature"})
		return
	}

	var wb paymentWebhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.APIResponse{Success: false, Message: "Invalid JSON body"})
		return
	}

	payments := store.NewPaymentStore(database.DB)
	err = payments.ProcessWebhook(r.Context(), store.WebhookEvent{
		ExternalPaymentID: wb.externalID(),
		Status:            wb.Status,
		TransactionHash:   wb.TransactionHash,
		FailureReason:     wb.FailureReason,
	})
	if err != nil {
		utils.WriteError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.APIResponse{Success: true, Message: "OK"})
}
