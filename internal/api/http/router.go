package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"saju-backend/internal/logger"
	"saju-backend/internal/metrics"
	"saju-backend/internal/service"
)

type Services struct {
	Auth     service.AuthService
	Ledger   service.LedgerService
	Analysis service.AnalysisService
	Payment  service.PaymentService
	Admin    service.AdminService
}

type RouterOptions struct {
	Metrics         *metrics.Metrics
	RateLimiter     *RateLimiter
	DefaultPageSize int32
	// HealthCheck is probed by /healthz, typically a database ping.
	HealthCheck func(ctx context.Context) error
}

// NewRouter builds the JSON API. The returned handler already includes
// request logging.
func NewRouter(svcs Services, opts RouterOptions) http.Handler {
	r := mux.NewRouter()
	r.Use(Metrics(opts.Metrics))
	r.Use(NewAuthMiddleware(svcs.Auth).Middleware)
	if opts.RateLimiter != nil {
		r.Use(opts.RateLimiter.Middleware)
	}

	r.HandleFunc("/healthz", healthHandler(opts.HealthCheck)).Methods(http.MethodGet)
	if opts.Metrics != nil {
		r.Handle("/metrics", opts.Metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	auth := NewAuthHandler(svcs.Auth)
	api.HandleFunc("/auth/register", auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/auth/refresh", auth.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", auth.Logout).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", auth.Me).Methods(http.MethodGet)

	coins := NewCoinHandler(svcs.Ledger, svcs.Payment, opts.DefaultPageSize)
	api.HandleFunc("/coins/balance", coins.Balance).Methods(http.MethodGet)
	api.HandleFunc("/coins/transactions", coins.Transactions).Methods(http.MethodGet)
	api.HandleFunc("/coins/packages", coins.Packages).Methods(http.MethodGet)

	payments := NewPaymentHandler(svcs.Payment)
	api.HandleFunc("/payments/prepare", payments.Prepare).Methods(http.MethodPost)
	api.HandleFunc("/payments/complete", payments.Complete).Methods(http.MethodPost)
	api.HandleFunc("/payments/webhook", payments.Webhook).Methods(http.MethodPost)

	analyses := NewAnalysisHandler(svcs.Analysis, opts.DefaultPageSize)
	api.HandleFunc("/analysis-types", analyses.Types).Methods(http.MethodGet)
	api.HandleFunc("/elements/preview", analyses.Preview).Methods(http.MethodPost)
	api.HandleFunc("/analyses", analyses.Create).Methods(http.MethodPost)
	api.HandleFunc("/analyses", analyses.List).Methods(http.MethodGet)
	api.HandleFunc("/analyses/{id}", analyses.Get).Methods(http.MethodGet)

	admin := NewAdminHandler(svcs.Admin, opts.DefaultPageSize)
	api.HandleFunc("/admin/transactions", admin.Transactions).Methods(http.MethodGet)
	api.HandleFunc("/admin/stats", admin.Stats).Methods(http.MethodGet)
	api.HandleFunc("/admin/transactions/{id}/refund", admin.Refund).Methods(http.MethodPost)
	api.HandleFunc("/admin/users/{id}/coins", admin.GrantCoins).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Code: "not_found", Message: "요청한 항목을 찾을 수 없습니다."})
	})

	return RequestLogging(r)
}

func healthHandler(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				logger.WarnContext(r.Context(), "Health check failed", "error", err)
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
