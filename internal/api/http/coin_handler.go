package http

import (
	"net/http"

	"saju-backend/internal/domain"
	"saju-backend/internal/service"
	"saju-backend/internal/utils"
)

type CoinHandler struct {
	ledgerSvc       service.LedgerService
	paymentSvc      service.PaymentService
	defaultPageSize int32
}

func NewCoinHandler(ledgerSvc service.LedgerService, paymentSvc service.PaymentService, defaultPageSize int32) *CoinHandler {
	return &CoinHandler{ledgerSvc: ledgerSvc, paymentSvc: paymentSvc, defaultPageSize: defaultPageSize}
}

func (h *CoinHandler) Balance(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	balance, err := h.ledgerSvc.GetBalance(r.Context(), p.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

type transactionsResponse struct {
	Transactions []domain.CoinTransaction `json:"transactions"`
	pageResponse
}

func (h *CoinHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	page, pageSize := utils.NormalizePage(queryInt32(r, "page"), queryInt32(r, "page_size"), h.defaultPageSize)

	txs, total, err := h.ledgerSvc.ListTransactions(r.Context(), p.UserID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []domain.CoinTransaction{}
	}
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs, pageResponse: newPage(total, page, pageSize)})
}

func (h *CoinHandler) Packages(w http.ResponseWriter, r *http.Request) {
	pkgs, err := h.paymentSvc.ListPackages(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if pkgs == nil {
		pkgs = []domain.CoinPackage{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.CoinPackage{"packages": pkgs})
}
