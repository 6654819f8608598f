package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/dairychain/milkops/internal/config"
	"github.com/dairychain/milkops/internal/model"
	"github.com/dairychain/milkops/internal/service"
)

// Scheduler runs the periodic payroll sweep: regenerating pending payment
// records so every approved collection is covered after rate changes or
// late approvals.
type Scheduler struct {
	cron     *cron.Cron
	earnings *service.EarningsService
	cfg      *config.Config
	log      zerolog.Logger
}

func New(cfg *config.Config, earnings *service.EarningsService, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		earnings: earnings,
		cfg:      cfg,
		log:      log,
	}
}

func (s *Scheduler) Start() error {
	if !s.cfg.Payroll.CronEnabled {
		s.log.Info().Msg("payroll cron disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.Payroll.CronSpec, s.runPayrollSweep)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Info().Str("spec", s.cfg.Payroll.CronSpec).Msg("payroll cron started")
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runPayrollSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	// the sweep runs with system privileges
	system := model.Principal{Role: model.RoleAdmin}

	count, err := s.earnings.RegenerateAll(ctx, system)
	if err != nil {
		s.log.Error().Err(err).Msg("payroll sweep failed")
		return
	}
	s.log.Info().Int("payments", count).Msg("payroll sweep completed")
}
