package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/novafund/novafund-api/internal/config"
	"github.com/novafund/novafund-api/internal/domain/deposit"
	"github.com/novafund/novafund-api/internal/domain/investment"
	"github.com/novafund/novafund-api/internal/domain/ledger"
	"github.com/novafund/novafund-api/internal/domain/recurring"
	"github.com/novafund/novafund-api/internal/domain/referral"
	"github.com/novafund/novafund-api/internal/domain/user"
	"github.com/novafund/novafund-api/internal/domain/withdrawal"
	"github.com/novafund/novafund-api/internal/middleware"
	"github.com/novafund/novafund-api/internal/pkg/database"
	"github.com/novafund/novafund-api/internal/pkg/jwt"
	"github.com/novafund/novafund-api/internal/pkg/logger"
	"github.com/novafund/novafund-api/internal/pkg/marketdata"
	"github.com/novafund/novafund-api/internal/pkg/notify"
	pkgresponse "github.com/novafund/novafund-api/internal/pkg/response"
	"github.com/novafund/novafund-api/internal/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Env, cfg.LogLevel)

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("Starting NovaFund API")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	jwtService := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL)

	proofStorage, err := storage.NewR2Storage(storage.R2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		AccessKeySecret: cfg.R2AccessKeySecret,
		BucketName:      cfg.R2BucketName,
		PublicURL:       cfg.R2PublicURL,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create R2 storage")
	}

	marketFeed := marketdata.NewClient(marketdata.Config{
		BaseURL: cfg.MarketFeedBaseURL,
		APIKey:  cfg.MarketFeedAPIKey,
		Timeout: time.Duration(cfg.MarketFeedTimeoutSeconds) * time.Second,
	})

	notifier := notify.NewAsync(notify.NewLogDispatcher())

	// ---------- Repositories ----------
	userRepo := user.NewRepository(db)
	ledgerRepo := ledger.NewRepository(db)
	depositRepo := deposit.NewRepository(db)
	withdrawalRepo := withdrawal.NewRepository(db)
	investmentRepo := investment.NewRepository(db)
	recurringRepo := recurring.NewRepository(db)
	referralRepo := referral.NewRepository(db)

	// ---------- Services ----------
	ledgerService := ledger.NewService(ledgerRepo, redis)
	referralService := referral.NewService(referralRepo, ledgerService, userRepo)
	depositService := deposit.NewService(depositRepo, ledgerService, proofStorage, notifier)
	withdrawalService := withdrawal.NewService(withdrawalRepo, ledgerService, userRepo, notifier)
	investmentService := investment.NewService(investmentRepo, ledgerService, userRepo, marketFeed, referralService, notifier)
	recurringService := recurring.NewService(recurringRepo, ledgerService, referralService, notifier, cfg.InstallmentGraceDays)

	// ---------- Handlers ----------
	ledgerHandler := ledger.NewHandler(ledgerService)
	depositHandler := deposit.NewHandler(depositService)
	withdrawalHandler := withdrawal.NewHandler(withdrawalService)
	investmentHandler := investment.NewHandler(investmentService)
	recurringHandler := recurring.NewHandler(recurringService)
	referralHandler := referral.NewHandler(referralService)

	authMiddleware := middleware.Auth(jwtService)

	// ---------- Router ----------
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(cfg.AllowedOrigins))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.Mount("/wallet", ledgerHandler.Routes(authMiddleware))
		r.Mount("/deposits", depositHandler.Routes(authMiddleware))
		r.Mount("/withdrawals", withdrawalHandler.Routes(authMiddleware))
		r.Mount("/investments", investmentHandler.Routes(authMiddleware))
		r.Mount("/recurring", recurringHandler.Routes(authMiddleware))
		r.Mount("/referrals", referralHandler.Routes(authMiddleware))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(middleware.RequireAdmin())

		r.Mount("/deposits", depositHandler.AdminRoutes())
		r.Mount("/withdrawals", withdrawalHandler.AdminRoutes())
		r.Mount("/investments", investmentHandler.AdminRoutes())
		r.Mount("/adjustments", ledgerHandler.AdminRoutes())
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited properly")
}
