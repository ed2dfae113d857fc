package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"saju-backend/internal/domain"
	"saju-backend/internal/service"
	"saju-backend/internal/utils"
)

const idempotencyKeyHeader = "Idempotency-Key"

type AnalysisHandler struct {
	analysisSvc     service.AnalysisService
	defaultPageSize int32
}

func NewAnalysisHandler(analysisSvc service.AnalysisService, defaultPageSize int32) *AnalysisHandler {
	return &AnalysisHandler{analysisSvc: analysisSvc, defaultPageSize: defaultPageSize}
}

type chartRequest struct {
	Chart domain.SajuChart `json:"chart"`
}

type createAnalysisRequest struct {
	AnalysisType string           `json:"analysis_type"`
	Chart        domain.SajuChart `json:"chart"`
	RequestKey   string           `json:"request_key"`
}

type analysisResponse struct {
	Analysis         *domain.Analysis `json:"analysis"`
	AlreadyProcessed bool             `json:"already_processed"`
}

type analysesResponse struct {
	Analyses []domain.Analysis `json:"analyses"`
	pageResponse
}

func (h *AnalysisHandler) Types(w http.ResponseWriter, r *http.Request) {
	types, err := h.analysisSvc.ListTypes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if types == nil {
		types = []domain.AnalysisType{}
	}
	writeJSON(w, http.StatusOK, map[string][]domain.AnalysisType{"analysis_types": types})
}

func (h *AnalysisHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req chartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.analysisSvc.Preview(r.Context(), req.Chart)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *AnalysisHandler) Create(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	var req createAnalysisRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.AnalysisType == "" {
		writeError(w, r, fmt.Errorf("%w: analysis_type is required", domain.ErrInvalidInput))
		return
	}
	key := strings.TrimSpace(req.RequestKey)
	if key == "" {
		key = strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	}

	analysis, err := h.analysisSvc.Create(r.Context(), p.UserID, req.AnalysisType, req.Chart, key)
	if errors.Is(err, domain.ErrDuplicateTransaction) && analysis != nil {
		writeJSON(w, http.StatusOK, analysisResponse{Analysis: analysis, AlreadyProcessed: true})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, analysisResponse{Analysis: analysis})
}

func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	analysis, err := h.analysisSvc.Get(r.Context(), p.UserID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	p, _ := PrincipalFromContext(r.Context())
	page, pageSize := utils.NormalizePage(queryInt32(r, "page"), queryInt32(r, "page_size"), h.defaultPageSize)

	list, total, err := h.analysisSvc.List(r.Context(), p.UserID, page, pageSize)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.Analysis{}
	}
	writeJSON(w, http.StatusOK, analysesResponse{Analyses: list, pageResponse: newPage(total, page, pageSize)})
}
