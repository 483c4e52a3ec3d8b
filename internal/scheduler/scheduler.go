package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/parkjm/restock/internal/config"
	"github.com/parkjm/restock/internal/domain/models"
	"github.com/parkjm/restock/internal/repository/inventory"
	"github.com/parkjm/restock/internal/repository/sheets"
	"github.com/parkjm/restock/internal/service/forecast"
	"github.com/parkjm/restock/internal/service/narration"
)

// Scheduler runs the periodic alert sweep: aggregate alerts over all items,
// export the snapshot to the report sheet when configured, and trigger
// narration for critical items.
type Scheduler struct {
	cron         *cron.Cron
	cfg          config.SweepConfig
	forecastSvc  *forecast.Service
	narrationSvc *narration.Service
	repo         inventory.Repository
	exporter     sheets.Exporter
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. exporter may be nil when
// sheet export is not configured.
func NewScheduler(cfg config.SweepConfig, forecastSvc *forecast.Service, narrationSvc *narration.Service, repo inventory.Repository, exporter sheets.Exporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", zap.String("timezone", cfg.Timezone), zap.Error(err))
		location = time.Local
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(location)),
		cfg:          cfg,
		forecastSvc:  forecastSvc,
		narrationSvc: narrationSvc,
		repo:         repo,
		exporter:     exporter,
		logger:       logger,
	}
}

// Start registers the sweep job and starts the cron loop.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler", zap.String("schedule", s.cfg.CronSchedule))

	if _, err := s.cron.AddFunc(s.cfg.CronSchedule, s.runSweep); err != nil {
		s.logger.Error("failed to schedule alert sweep", zap.Error(err))
		return
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	alerts, err := s.forecastSvc.Alerts(ctx, nil)
	if err != nil {
		s.logger.Error("alert sweep failed", zap.Error(err))
		return
	}

	s.logger.Info("alert sweep completed", zap.Int("alert_count", len(alerts)))

	if s.exporter != nil {
		if err := s.exporter.AppendAlerts(ctx, time.Now(), alerts); err != nil {
			s.logger.Error("failed to export alert snapshot", zap.Error(err))
		}
	}

	// Narration is fire-and-forget: failures are logged inside the
	// narration service and never retried here.
	for _, alert := range alerts {
		if alert.Status != models.StatusCritical {
			continue
		}
		item, err := s.repo.GetItem(ctx, alert.Qcode)
		if err != nil {
			s.logger.Warn("skip narration for unavailable item", zap.String("qcode", alert.Qcode), zap.Error(err))
			continue
		}
		s.narrationSvc.NotifyAsync(*item)
	}
}
