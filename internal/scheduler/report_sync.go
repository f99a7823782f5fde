package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/vfg2006/dv360-sheets-sync/internal/config"
	"github.com/vfg2006/dv360-sheets-sync/internal/usecases/syncing"
)

// ReportSyncService runs the full report sync on a cron schedule. A run
// already in progress is never overlapped; the tick is skipped instead.
type ReportSyncService struct {
	scheduler *gocron.Scheduler
	cfg       config.ReportSync
	sync      *syncing.Service

	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
}

func NewReportSyncService(syncService *syncing.Service, cfg *config.Config) *ReportSyncService {
	logrus.WithFields(logrus.Fields{
		"cron_schedule": cfg.ReportSync.CronSchedule,
		"sync_enabled":  cfg.ReportSync.Enabled,
	}).Info("scheduler: report sync configuration loaded")

	return &ReportSyncService{
		scheduler: gocron.NewScheduler(time.Local),
		cfg:       cfg.ReportSync,
		sync:      syncService,
	}
}

// Start schedules the sync and stops the scheduler when the context is
// cancelled. Disabled configuration is a no-op.
func (s *ReportSyncService) Start(ctx context.Context) error {
	if !s.cfg.Enabled {
		logrus.Info("scheduler: report sync disabled by configuration")
		return nil
	}

	logrus.WithField("cron", s.cfg.CronSchedule).Info("scheduler: starting report sync scheduler")

	_, err := s.scheduler.Cron(s.cfg.CronSchedule).Do(func() {
		s.runSync(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule report sync: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("scheduler: stopping report sync scheduler")
		s.scheduler.Stop()
	}()

	return nil
}

func (s *ReportSyncService) runSync(ctx context.Context) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Info("scheduler: report sync already in progress, skipping")
		return
	}
	s.syncRunning = true
	s.lastSyncStartedAt = time.Now()
	s.syncMutex.Unlock()

	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.syncMutex.Unlock()
	}()

	if err := s.sync.Run(ctx); err != nil {
		logrus.WithError(err).Error("scheduler: scheduled report sync failed")
		return
	}

	s.syncMutex.Lock()
	s.lastSyncCompletedAt = time.Now()
	s.syncMutex.Unlock()
}

// Status returns the current scheduler state for logging and inspection.
func (s *ReportSyncService) Status() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	return map[string]any{
		"sync_enabled":           s.cfg.Enabled,
		"sync_cron":              s.cfg.CronSchedule,
		"sync_running":           s.syncRunning,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
	}
}
