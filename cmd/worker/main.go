package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/novafund/novafund-api/internal/config"
	"github.com/novafund/novafund-api/internal/domain/investment"
	"github.com/novafund/novafund-api/internal/domain/ledger"
	"github.com/novafund/novafund-api/internal/domain/recurring"
	"github.com/novafund/novafund-api/internal/domain/referral"
	"github.com/novafund/novafund-api/internal/domain/user"
	"github.com/novafund/novafund-api/internal/jobs"
	"github.com/novafund/novafund-api/internal/pkg/database"
	"github.com/novafund/novafund-api/internal/pkg/logger"
	"github.com/novafund/novafund-api/internal/pkg/marketdata"
	"github.com/novafund/novafund-api/internal/pkg/notify"
	"github.com/novafund/novafund-api/internal/scheduler"
)

func main() {
	once := flag.Bool("once", false, "run all jobs immediately and exit")
	flag.Parse()

	cfg := config.Load()
	logger.Setup(cfg.Env, cfg.LogLevel)

	log.Info().Str("env", cfg.Env).Msg("Starting NovaFund worker")

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

	marketFeed := marketdata.NewClient(marketdata.Config{
		BaseURL: cfg.MarketFeedBaseURL,
		APIKey:  cfg.MarketFeedAPIKey,
		Timeout: time.Duration(cfg.MarketFeedTimeoutSeconds) * time.Second,
	})
	notifier := notify.NewAsync(notify.NewLogDispatcher())

	userRepo := user.NewRepository(db)
	ledgerService := ledger.NewService(ledger.NewRepository(db), redis)
	referralService := referral.NewService(referral.NewRepository(db), ledgerService, userRepo)
	investmentService := investment.NewService(investment.NewRepository(db), ledgerService, userRepo, marketFeed, referralService, notifier)
	recurringService := recurring.NewService(recurring.NewRepository(db), ledgerService, referralService, notifier, cfg.InstallmentGraceDays)

	runner := jobs.NewRunner(investmentService, recurringService)

	if *once {
		runner.RunAll()
		return
	}

	sched, err := scheduler.New(runner, cfg.AccrualSchedule, cfg.SweepSchedule)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to register jobs")
	}
	sched.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker...")
	sched.Stop()
	log.Info().Msg("Worker exited properly")
}
