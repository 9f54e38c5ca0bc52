package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockroom/internal/config"
	"github.com/mamadbah2/stockroom/internal/domain/models"
	"github.com/mamadbah2/stockroom/internal/service/reporting"
)

const jobTimeout = 2 * time.Minute

// Reporter is the reporting surface the daily job needs.
type Reporter interface {
	Generate(ctx context.Context) (models.InventoryReport, error)
	Save(ctx context.Context, report models.InventoryReport) error
	Export(ctx context.Context) error
}

// Notifier sends a text message.
type Notifier interface {
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	spec     string
	reporter Reporter
	notifier Notifier
	cfg      config.Config
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. notifier may be nil.
func NewScheduler(cfg config.Config, reporter Reporter, notifier Notifier, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Reporting.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Reporting.Timezone, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     cfg.Reporting.CronSchedule,
		reporter: reporter,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
	}, nil
}

// Start registers the daily inventory report and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runDailyReport); err != nil {
		return fmt.Errorf("schedule inventory report %q: %w", s.spec, err)
	}

	s.logger.Info("starting scheduler", zap.String("schedule", s.spec), zap.String("timezone", s.cfg.Reporting.Timezone))
	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.RunReport(ctx); err != nil {
		s.logger.Error("inventory report job failed", zap.Error(err))
	}
}

// RunReport generates and saves a report, exports it when Sheets is configured, and sends the
// low-stock alert when a recipient is configured.
func (s *Scheduler) RunReport(ctx context.Context) error {
	s.logger.Info("generating inventory report")

	report, err := s.reporter.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}
	if err := s.reporter.Save(ctx, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}

	if err := s.reporter.Export(ctx); err != nil {
		if !errors.Is(err, reporting.ErrSheetsDisabled) {
			s.logger.Error("failed to export inventory to sheets", zap.Error(err))
		}
	}

	alert := reporting.LowStockAlert(report)
	if alert == "" || s.notifier == nil || s.cfg.WhatsApp.AlertRecipient == "" {
		return nil
	}

	req := models.OutboundMessageRequest{
		To:      s.cfg.WhatsApp.AlertRecipient,
		Message: alert,
	}
	if err := s.notifier.SendOutbound(ctx, req); err != nil {
		return fmt.Errorf("send low stock alert: %w", err)
	}

	s.logger.Info("low stock alert sent", zap.Int("items", len(report.LowStock)))
	return nil
}
