package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"user-management-svc/internal/models"
	"user-management-svc/internal/repository"
	"user-management-svc/pkg/logger"
)

// PurgeSchedulerCode identifies the purge job in scheduler_logs
const PurgeSchedulerCode = "TRASHED_USER_PURGE"

// TrashPurger permanently deletes users trashed before a cutoff
type TrashPurger interface {
	PurgeTrashedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeScheduler purges long-trashed users on a cron schedule
type PurgeScheduler struct {
	purger           TrashPurger
	schedulerLogRepo repository.SchedulerLogRepository
	logger           *logger.Logger
	cron             *cron.Cron
	cronExpression   string
	retention        time.Duration
	now              func() time.Time
}

// NewPurgeScheduler creates a new purge scheduler.
// The expression uses the six-field format "seconds minutes hours day-of-month month day-of-week".
func NewPurgeScheduler(purger TrashPurger, schedulerLogRepo repository.SchedulerLogRepository, logger *logger.Logger, cronExpression string, retentionDays int) *PurgeScheduler {
	return &PurgeScheduler{
		purger:           purger,
		schedulerLogRepo: schedulerLogRepo,
		logger:           logger,
		cron:             cron.New(cron.WithSeconds()),
		cronExpression:   cronExpression,
		retention:        time.Duration(retentionDays) * 24 * time.Hour,
		now:              time.Now,
	}
}

// Start schedules the purge job and starts the cron runner
func (s *PurgeScheduler) Start() error {
	s.logger.WithField("cron_expression", s.cronExpression).Info("Scheduling trash purge job")
	_, err := s.cron.AddFunc(s.cronExpression, func() {
		s.Run(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to schedule trash purge job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("Purge scheduler started successfully")

	return nil
}

// Stop waits for a running job and stops the scheduler
func (s *PurgeScheduler) Stop() {
	s.logger.Info("Stopping purge scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Purge scheduler stopped successfully")
}

// Run purges once and returns the run's document id
func (s *PurgeScheduler) Run(ctx context.Context) string {
	docID := uuid.New().String()
	cutoff := s.now().Add(-s.retention)

	s.logScheduler(ctx, docID, "Starting scheduled trash purge", models.SchedulerStatusStart)
	s.logScheduler(ctx, docID, fmt.Sprintf("Purging users trashed before %s", cutoff.Format(time.RFC3339)), models.SchedulerStatusRunning)

	purged, err := s.purger.PurgeTrashedBefore(ctx, cutoff)
	if err != nil {
		s.logScheduler(ctx, docID, fmt.Sprintf("Failed to purge trashed users: %v", err), models.SchedulerStatusFailed)
		s.logger.WithError(err).Error("Failed to purge trashed users")
		return docID
	}

	s.logScheduler(ctx, docID, fmt.Sprintf("Purged %d trashed users", purged), models.SchedulerStatusSuccess)
	s.logger.WithFields(map[string]interface{}{
		"purged": purged,
		"cutoff": cutoff,
	}).Info("Scheduled trash purge completed")

	return docID
}

// logScheduler records one state change of a run
func (s *PurgeScheduler) logScheduler(ctx context.Context, documentID, message, status string) {
	entry := &models.SchedulerLog{
		DocumentID:    documentID,
		SchedulerCode: PurgeSchedulerCode,
		Message:       message,
		Status:        status,
	}

	if err := s.schedulerLogRepo.Create(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("status", status).Error("Failed to create scheduler log entry")
		return
	}
	s.logger.WithField("status", status).WithField("document_id", documentID).Debug("Scheduler log entry created")
}
