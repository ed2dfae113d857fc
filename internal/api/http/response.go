package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"saju-backend/internal/domain"
	"saju-backend/internal/logger"
	"saju-backend/internal/utils"
)

const maxBodyBytes = 1 << 20

const (
	msgInsufficientBalance = "코인이 부족합니다. 충전 후 이용해 주세요."
	msgInternal            = "잠시 후 다시 시도해 주세요."
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

type pageResponse struct {
	TotalCount int32 `json:"total_count"`
	Page       int32 `json:"page"`
	PageSize   int32 `json:"page_size"`
	TotalPages int32 `json:"total_pages"`
}

func newPage(total, page, pageSize int32) pageResponse {
	page, pageSize = utils.NormalizePage(page, pageSize, 0)
	return pageResponse{
		TotalCount: total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: utils.TotalPages(total, pageSize),
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// writeError maps domain errors to a status code and a message that is safe
// to show to end users. Unmapped errors are logged and reported as 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := classify(err)
	if status == http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, resp)
}

func classify(err error) (int, errorResponse) {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusPaymentRequired, errorResponse{Code: "insufficient_balance", Message: msgInsufficientBalance}
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, errorResponse{Code: "user_not_found", Message: "사용자를 찾을 수 없습니다."}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Code: "not_found", Message: "요청한 항목을 찾을 수 없습니다."}
	case errors.Is(err, domain.ErrInvalidChartInput):
		return http.StatusBadRequest, errorResponse{Code: "invalid_chart", Message: "사주 정보가 올바르지 않습니다.", Detail: err.Error()}
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest, errorResponse{Code: "invalid_amount", Message: "금액이 올바르지 않습니다.", Detail: err.Error()}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorResponse{Code: "invalid_input", Message: "입력값이 올바르지 않습니다.", Detail: err.Error()}
	case errors.Is(err, domain.ErrPaymentNotVerified):
		return http.StatusBadRequest, errorResponse{Code: "payment_not_verified", Message: "결제를 확인할 수 없습니다.", Detail: err.Error()}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Code: "invalid_credentials", Message: "이메일 또는 비밀번호가 올바르지 않습니다."}
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, errorResponse{Code: "unauthorized", Message: "로그인이 필요합니다."}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, errorResponse{Code: "forbidden", Message: "권한이 없습니다."}
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict, errorResponse{Code: "email_taken", Message: "이미 가입된 이메일입니다."}
	case errors.Is(err, domain.ErrDuplicateTransaction):
		return http.StatusConflict, errorResponse{Code: "duplicate", Message: "이미 처리 중인 요청입니다."}
	case errors.Is(err, domain.ErrIdempotencyConflict):
		return http.StatusConflict, errorResponse{Code: "idempotency_conflict", Message: "이미 사용된 요청 키입니다."}
	default:
		return http.StatusInternalServerError, errorResponse{Code: "internal", Message: msgInternal}
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidInput, name)
	}
	return int32(id), nil
}

// queryInt32 returns 0 when the parameter is absent or unparsable so paging
// falls back to defaults.
func queryInt32(r *http.Request, name string) int32 {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 32)
	if err != nil {
		return 0
	}
	return int32(v)
}
