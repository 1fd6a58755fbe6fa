package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"lumenai/internal/database"
	"lumenai/internal/logger"
	"lumenai/internal/metrics"
)

const (
	jobTimeout    = time.Minute
	statsSchedule = "@every 30s"
)

// TokenPurger deletes password reset tokens that can no longer be used.
type TokenPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Scheduler runs periodic maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	purger   TokenPurger
	db       *gorm.DB
	log      *zap.Logger
}

// New creates a scheduler that purges reset tokens on schedule and samples
// connection pool gauges from db. db may be nil.
func New(schedule string, purger TokenPurger, db *gorm.DB) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		schedule: schedule,
		purger:   purger,
		db:       db,
		log:      logger.Named("scheduler"),
	}
}

// Start registers the jobs, runs one purge immediately and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.PurgeTokens); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", s.schedule, err)
	}
	if s.db != nil {
		if _, err := s.cron.AddFunc(statsSchedule, s.RecordPoolStats); err != nil {
			return err
		}
	}

	s.PurgeTokens()
	s.cron.Start()
	s.log.Info("Scheduler started", zap.Int("jobs", len(s.cron.Entries())), zap.String("cleanup", s.schedule))
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

// PurgeTokens deletes expired and used reset tokens once.
func (s *Scheduler) PurgeTokens() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.log.Error("Token purge failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.log.Info("Token purge successful", zap.Int64("deleted", n))
	}
}

// RecordPoolStats publishes the current connection pool usage.
func (s *Scheduler) RecordPoolStats() {
	stats, err := database.GetStats(s.db)
	if err != nil {
		s.log.Warn("Failed to read pool stats", zap.Error(err))
		return
	}
	metrics.UpdateDBConnections(stats.InUse, stats.Idle)
}
