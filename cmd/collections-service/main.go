package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dairychain/milkops/internal/auth"
	"github.com/dairychain/milkops/internal/config"
	"github.com/dairychain/milkops/internal/db"
	"github.com/dairychain/milkops/internal/excel"
	httphandler "github.com/dairychain/milkops/internal/http"
	"github.com/dairychain/milkops/internal/http/middleware"
	"github.com/dairychain/milkops/internal/logger"
	"github.com/dairychain/milkops/internal/notify"
	"github.com/dairychain/milkops/internal/pdf"
	"github.com/dairychain/milkops/internal/repository"
	"github.com/dairychain/milkops/internal/scheduler"
	"github.com/dairychain/milkops/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	collectionRepo := repository.NewCollectionRepository(database)
	approvalRepo := repository.NewApprovalRepository(database)
	paymentRepo := repository.NewPaymentRepository(database)
	configRepo := repository.NewConfigRepository(database)
	staffRepo := repository.NewStaffRepository(database)

	penalty := buildPenaltyStrategy(cfg, configRepo)

	var notifier service.Notifier
	if cfg.Alerts.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(
			cfg.Alerts.WebhookURL,
			time.Duration(cfg.Alerts.TimeoutSeconds)*time.Second,
			log,
		)
	} else {
		notifier = notify.LogNotifier{Log: log}
	}

	rate := service.StaticRateProvider{Rate: cfg.Payroll.RatePerLiter}

	approvalService := service.NewApprovalService(
		collectionRepo,
		approvalRepo,
		configRepo,
		penalty,
		rate,
		notifier,
		log,
	)
	earningsService := service.NewEarningsService(
		paymentRepo,
		rate,
		service.NoopCreditLedger{},
		service.RateFeeSchedule{Rate: cfg.Payroll.CollectorFeeRate},
		staffRepo,
		log,
	)

	payrollCron := scheduler.New(cfg, earningsService, log)
	if err := payrollCron.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start payroll cron")
	}
	defer payrollCron.Stop()

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(approvalService, earningsService, excel.NewGenerator(), pdf.NewGenerator(), log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting collections service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

// buildPenaltyStrategy picks the penalty pricing from config. The tiered
// provider reads the active bands on every batch, so admin edits to the
// penalty schedule apply without a restart.
func buildPenaltyStrategy(cfg *config.Config, configRepo *repository.ConfigRepository) service.PenaltyStrategyProvider {
	switch cfg.Penalty.Strategy {
	case "flat":
		return service.StaticPenaltyProvider{Penalty: service.FlatPenalty{Amount: cfg.Penalty.FlatAmount}}
	case "proportional":
		return service.StaticPenaltyProvider{Penalty: service.ProportionalPenalty{}}
	default:
		return service.TieredPenaltyProvider{Bands: configRepo}
	}
}
