package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	grpcapi "saju-backend/internal/api/grpc"
	httpapi "saju-backend/internal/api/http"
	"saju-backend/internal/cache"
	"saju-backend/internal/config"
	"saju-backend/internal/fortune"
	"saju-backend/internal/logger"
	"saju-backend/internal/metrics"
	"saju-backend/internal/notify"
	"saju-backend/internal/payment"
	"saju-backend/internal/repository"
	"saju-backend/internal/repository/memory"
	"saju-backend/internal/repository/postgres"
	"saju-backend/internal/security"
	"saju-backend/internal/service"
)

// repositories is the subset of a store the server wires into services.
type repositories struct {
	users    repository.UserRepository
	ledger   repository.LedgerRepository
	analyses repository.AnalysisRepository
	payments repository.PaymentRepository
	ping     func(ctx context.Context) error
	close    func()
}

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting Saju Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "address", cfg.GetServerAddress(), "grpc_address", cfg.GetGRPCAddress())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer repos.close()

	m := metrics.New()

	// Stats cache is optional
	var statsCache cache.StatsCache
	if cfg.Redis.URL != "" {
		client, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			logger.Warn("Redis unavailable, admin stats will not be cached", "error", err)
		} else {
			defer client.Close()
			statsCache = cache.NewRedisStatsCache(client, time.Duration(cfg.Redis.StatsTTLSec)*time.Second)
			logger.Info("Redis stats cache enabled")
		}
	}

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.AccessTokenTTL(), cfg.RefreshTokenTTL())
	var verifier security.IdentityVerifier
	if cfg.Auth.Provider == "firebase" {
		fv, err := security.NewFirebaseVerifier(ctx, cfg.Auth.FirebaseProjectID, cfg.Auth.FirebaseCredentialFile)
		if err != nil {
			logger.Error("Failed to initialize Firebase auth", "error", err)
			log.Fatalf("Failed to initialize Firebase auth: %v", err)
		}
		verifier = fv
		logger.Info("Using Firebase ID tokens", "project_id", cfg.Auth.FirebaseProjectID)
	}

	// Fortune generator
	var generator fortune.Generator = fortune.TemplateGenerator{}
	if cfg.Gemini.APIKey != "" {
		g, err := fortune.NewGeminiGenerator(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, time.Duration(cfg.Gemini.TimeoutSec)*time.Second)
		if err != nil {
			logger.Error("Failed to initialize Gemini client", "error", err)
			log.Fatalf("Failed to initialize Gemini client: %v", err)
		}
		generator = g
		logger.Info("Using Gemini for fortune text", "model", cfg.Gemini.Model)
	} else {
		logger.Warn("GEMINI_API_KEY not set, using template fortune text")
	}

	// Receipt mailer
	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SendGrid.APIKey != "" {
		mailer = notify.NewSendGridMailer(cfg.SendGrid.APIKey, cfg.SendGrid.FromEmail, cfg.SendGrid.FromName)
	}

	paymentVerifier := payment.NewPortOneClient(payment.PortOneConfig{
		BaseURL:   cfg.PortOne.BaseURL,
		APIKey:    cfg.PortOne.APIKey,
		APISecret: cfg.PortOne.APISecret,
		Timeout:   time.Duration(cfg.PortOne.TimeoutSec) * time.Second,
	})

	// Initialize Services
	ledgerSvc := service.NewLedgerService(repos.ledger, statsCache, m)
	svcs := httpapi.Services{
		Auth:     service.NewAuthService(repos.users, repos.ledger, tokenManager, verifier, cfg.AccessTokenTTL(), cfg.Auth.AdminEmails),
		Ledger:   ledgerSvc,
		Analysis: service.NewAnalysisService(repos.analyses, ledgerSvc, generator, m),
		Payment:  service.NewPaymentService(repos.payments, repos.users, ledgerSvc, paymentVerifier, mailer, m),
		Admin:    service.NewAdminService(repos.users, repos.ledger, repos.analyses, repos.payments, ledgerSvc, statsCache),
	}

	router := httpapi.NewRouter(svcs, httpapi.RouterOptions{
		Metrics:         m,
		RateLimiter:     httpapi.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst),
		DefaultPageSize: cfg.Server.DefaultPageSize,
		HealthCheck:     repos.ping,
	})

	srv := &http.Server{
		Addr:         cfg.GetServerAddress(),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
			stop()
		}
	}()

	// gRPC health endpoint
	var health *grpcapi.HealthServer
	if cfg.GRPC.Port > 0 {
		lis, err := net.Listen("tcp", cfg.GetGRPCAddress())
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", cfg.GetGRPCAddress())
			log.Fatalf("Failed to listen: %v", err)
		}
		health = grpcapi.NewHealthServer()
		go health.Watch(ctx, 10*time.Second, repos.ping)
		go func() {
			if err := health.Serve(lis); err != nil {
				logger.Error("gRPC server error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if health != nil {
		health.Shutdown(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "error", err)
	}
	logger.Info("Server stopped. Goodbye!")
}

func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	if cfg.Database.Driver == "memory" {
		logger.Warn("Using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return &repositories{
			users:    store.UserRepository,
			ledger:   store.LedgerRepository,
			analyses: store.AnalysisRepository,
			payments: store.PaymentRepository,
			ping:     func(context.Context) error { return nil },
			close:    func() {},
		}, nil
	}

	logger.Info("Database configuration", "driver", cfg.Database.Driver, "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	db, err := postgres.Open(ctx, cfg.Database.Driver, cfg.GetDatabaseConnectionString(), cfg.Database.MaxOpenConns, cfg.Database.ConnRetries)
	if err != nil {
		return nil, err
	}
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, err
		}
		logger.Info("Database schema applied")
	}

	store := postgres.NewStore(db)
	return &repositories{
		users:    store.UserRepository,
		ledger:   store.LedgerRepository,
		analyses: store.AnalysisRepository,
		payments: store.PaymentRepository,
		ping:     db.PingContext,
		close:    func() { db.Close() },
	}, nil
}
