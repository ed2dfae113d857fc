package http

import (
	"fmt"
	"net/http"

	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
	"saju-backend/internal/service"
)

type PaymentHandler struct {
	paymentSvc service.PaymentService
}

func NewPaymentHandler(paymentSvc service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

type prepareRequest struct {
	PackageID int32 `json:"package_id"`
}

// paymentRequest accepts both our field name and PortOne's imp_uid, which is
// what the checkout redirect and the webhook carry.
type paymentRequest struct {
	MerchantUID string `json:"merchant_uid"`
	PaymentID   string `json:"payment_id"`
	ImpUID      string `json:"imp_uid"`
	Status      string `json:"status,omitempty"`
}

func (req paymentRequest) paymentID() string {
	if req.PaymentID != "" {
		return req.PaymentID
	}
	return req.ImpUID
}

func (req paymentRequest) validate() error {
	if req.MerchantUID == "" || req.paymentID() == "" {
		return fmt.Errorf("%w: merchant_uid and payment_id are required", domain.ErrInvalidInput)
	}
	return nil
}

func (h *PaymentHandler) Prepare(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	var req prepareRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	order, err := h.paymentSvc.Prepare(r.Context(), p.UserID, req.PackageID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *PaymentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.paymentSvc.Complete(r.Context(), p.UserID, req.MerchantUID, req.paymentID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Payment webhook received", "merchantUID", req.MerchantUID, "status", req.Status)

	res, err := h.paymentSvc.HandleWebhook(r.Context(), req.MerchantUID, req.paymentID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
