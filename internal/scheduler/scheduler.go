package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/costquote/internal/config"
	"github.com/mamadbah2/costquote/internal/service/reporting"
)

const jobTimeout = 2 * time.Minute

// Reporter is the reporting work the scheduler triggers.
type Reporter interface {
	SendExpiringDigest(ctx context.Context, days int) error
	ExportAndNotify(ctx context.Context) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	reporter Reporter
	cfg      config.ReportingConfig
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler running in the configured timezone.
func NewScheduler(cfg config.ReportingConfig, reporter Reporter, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	// Standard 5-field cron expressions (min, hour, dom, month, dow).
	c := cron.New(cron.WithLocation(loc))

	return &Scheduler{
		cron:     c,
		reporter: reporter,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("expiring_schedule", s.cfg.ExpiringCronSchedule),
		zap.String("report_schedule", s.cfg.ReportCronSchedule),
	)

	if _, err := s.cron.AddFunc(s.cfg.ExpiringCronSchedule, s.sendExpiringDigest); err != nil {
		return fmt.Errorf("schedule expiring digest: %w", err)
	}
	if _, err := s.cron.AddFunc(s.cfg.ReportCronSchedule, s.exportProfitReport); err != nil {
		return fmt.Errorf("schedule profit report: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) sendExpiringDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.reporter.SendExpiringDigest(ctx, s.cfg.ExpiringWindowDays); err != nil {
		s.logger.Error("failed to send expiring digest", zap.Error(err))
	}
}

func (s *Scheduler) exportProfitReport() {
	s.logger.Info("exporting profit report")
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	err := s.reporter.ExportAndNotify(ctx)
	switch {
	case errors.Is(err, reporting.ErrExportDisabled):
		s.logger.Debug("profit report export skipped, no spreadsheet configured")
	case err != nil:
		s.logger.Error("failed to export profit report", zap.Error(err))
	default:
		s.logger.Info("profit report exported successfully")
	}
}
