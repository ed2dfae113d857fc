package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"saju-backend/internal/domain"
	"saju-backend/internal/service"
	"saju-backend/internal/utils"
)

type AdminHandler struct {
	adminSvc        service.AdminService
	defaultPageSize int32
}

func NewAdminHandler(adminSvc service.AdminService, defaultPageSize int32) *AdminHandler {
	return &AdminHandler{adminSvc: adminSvc, defaultPageSize: defaultPageSize}
}

type refundRequest struct {
	Reason string `json:"reason"`
}

type grantRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

type transactionResponse struct {
	Transaction      *domain.CoinTransaction `json:"transaction"`
	AlreadyProcessed bool                    `json:"already_processed"`
}

func (h *AdminHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	var filter domain.TransactionFilter
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: user_id", domain.ErrInvalidInput))
			return
		}
		uid := int32(id)
		filter.UserID = &uid
	}
	filter.Type = domain.TransactionType(r.URL.Query().Get("type"))
	page, pageSize := utils.NormalizePage(queryInt32(r, "page"), queryInt32(r, "page_size"), h.defaultPageSize)

	txs, total, err := h.adminSvc.ListTransactions(r.Context(), filter, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.CoinTransaction{}
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, pageResponse: newPage(total, page, pageSize)})
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminSvc.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AdminHandler) Refund(w http.ResponseWriter, r *http.Request) {
	admin, _ := PrincipalFromContext(r.Context())
	txID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req refundRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.adminSvc.Refund(r.Context(), admin.UserID, txID, req.Reason)
	if errors.Is(err, domain.ErrDuplicateTransaction) && tx != nil {
		writeJSON(w, http.StatusOK, transactionResponse{Transaction: tx, AlreadyProcessed: true})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Transaction: tx})
}

func (h *AdminHandler) GrantCoins(w http.ResponseWriter, r *http.Request) {
	admin, _ := PrincipalFromContext(r.Context())
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req grantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	tx, err := h.adminSvc.GrantCoins(r.Context(), admin.UserID, userID, req.Amount, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, transactionResponse{Transaction: tx})
}
