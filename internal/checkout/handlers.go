package checkout

import (
	"errors"
	"net/http"

	"github.com/murliorganic/backend-store/internal/common"
	"github.com/murliorganic/backend-store/internal/payment"
)

// Handler exposes the checkout endpoints, including the two gateway-facing
// routes whose wire shapes match what the storefront client expects.
type Handler struct {
	Svc      *Service
	Payments *payment.Service
}

type createOrderRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

type createOrderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type verifyPaymentRequest struct {
	RazorpayOrderID   string `json:"razorpay_order_id" validate:"required"`
	RazorpayPaymentID string `json:"razorpay_payment_id" validate:"required"`
	RazorpaySignature string `json:"razorpay_signature" validate:"required"`
	Amount            int64  `json:"amount"`
}

type verifyPaymentResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// CreateOrder handles POST /create-order. The response body is the bare
// gateway order, not the usual data envelope: the storefront client reads it
// directly into the payment widget.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var req createOrderRequest
	if err := common.BindJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	po, err := h.Payments.InitiateOrder(r.Context(), userID, req.Amount)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, createOrderResponse{
		ID:       po.OrderID,
		Amount:   po.Amount,
		Currency: po.Currency,
	})
}

// VerifyPayment handles POST /verify-payment. Mismatches come back as 400
// with success=false; anything unexpected collapses to a generic 500 so
// internals never leak to the client.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var req verifyPaymentRequest
	if err := common.BindJSON(r, &req); err != nil {
		h.writeVerifyError(w, err)
		return
	}
	_, err := h.Payments.VerifyPayment(r.Context(), userID, payment.VerifyInput{
		OrderID:   req.RazorpayOrderID,
		PaymentID: req.RazorpayPaymentID,
		Signature: req.RazorpaySignature,
		Amount:    req.Amount,
	})
	if err != nil {
		h.writeVerifyError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, verifyPaymentResponse{
		Success: true,
		Message: "payment verified successfully",
	})
}

// Quote handles POST /checkout/quote.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	quote, err := h.Svc.BuildQuote(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quote})
}

type finalizeRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

// Finalize handles POST /checkout.
func (h *Handler) Finalize(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	var req finalizeRequest
	if err := common.BindJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	receipt, err := h.Svc.Finalize(r.Context(), userID, req.OrderID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": receipt})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

// writeVerifyError keeps the flat success/message shape the payment widget
// callback expects instead of the error envelope.
func (h *Handler) writeVerifyError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		common.JSON(w, status, verifyPaymentResponse{Success: false, Message: appErr.Message})
		return
	}
	common.JSON(w, http.StatusInternalServerError, verifyPaymentResponse{Success: false, Message: "internal error"})
}
