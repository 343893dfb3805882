// Package jobs runs the periodic maintenance work: archival of stale
// emergencies, daily statistics rollups, and cache/distance upkeep.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"

	"github.com/alertachile/monitor/internal/config"
	"github.com/alertachile/monitor/internal/geo"
	"github.com/alertachile/monitor/internal/observability"
	"github.com/alertachile/monitor/internal/repository"
)

type Scheduler struct {
	cfg     *config.Config
	store   repository.Store
	metrics *observability.Metrics
	logger  *slog.Logger
	clock   clockwork.Clock
	cron    *cron.Cron
}

func NewScheduler(cfg *config.Config, store repository.Store, metrics *observability.Metrics, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		store:   store,
		metrics: metrics,
		logger:  logger,
		clock:   clockwork.NewRealClock(),
		cron:    cron.New(),
	}
}

func (s *Scheduler) SetClock(c clockwork.Clock) { s.clock = c }

// Start registers the three cron entries and begins scheduling.
// Entries are independent: one failing run does not affect the others.
func (s *Scheduler) Start() error {
	jobs := []struct {
		name     string
		schedule string
		run      func(context.Context) error
	}{
		{"retention", s.cfg.Jobs.RetentionSchedule, s.RunRetention},
		{"stats", s.cfg.Jobs.StatsSchedule, s.RunStats},
		{"maintenance", s.cfg.Jobs.MaintenanceSchedule, s.RunMaintenance},
	}

	for _, job := range jobs {
		job := job
		_, err := s.cron.AddFunc(job.schedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer cancel()

			if err := job.run(ctx); err != nil {
				s.metrics.JobRuns.WithLabelValues(job.name, "error").Inc()
				s.logger.Error("job failed", "job", job.name, "error", err)
				return
			}
			s.metrics.JobRuns.WithLabelValues(job.name, "success").Inc()
		})
		if err != nil {
			return fmt.Errorf("scheduling %s job (%q): %w", job.name, job.schedule, err)
		}
	}

	s.cron.Start()
	s.logger.Info("job scheduler started",
		"retention", s.cfg.Jobs.RetentionSchedule,
		"stats", s.cfg.Jobs.StatsSchedule,
		"maintenance", s.cfg.Jobs.MaintenanceSchedule)
	return nil
}

// Stop halts scheduling and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("job scheduler stopped")
}

// RunRetention moves emergencies not updated within the archive age
// from the active table to the archive. Safe to re-run; already
// archived ids are skipped.
func (s *Scheduler) RunRetention(ctx context.Context) error {
	moved, err := s.store.ArchiveOlderThan(ctx, s.cfg.Jobs.ArchiveAge)
	if err != nil {
		return fmt.Errorf("archiving stale emergencies: %w", err)
	}
	s.metrics.ArchivedRecords.Add(float64(moved))
	s.logger.Info("retention run complete", "archived", moved)
	return nil
}

// RunStats aggregates today's emergencies into the daily rollup row,
// replacing any earlier run for the same date.
func (s *Scheduler) RunStats(ctx context.Context) error {
	today := s.clock.Now()
	stats, err := s.store.AggregateStatsForDate(ctx, today)
	if err != nil {
		return fmt.Errorf("aggregating daily stats: %w", err)
	}
	if err := s.store.UpsertDailyStats(ctx, stats); err != nil {
		return fmt.Errorf("storing daily stats: %w", err)
	}
	s.logger.Info("stats run complete",
		"fecha", stats.Fecha.Format("2006-01-02"),
		"total", stats.TotalEmergencias)
	return nil
}

// RunMaintenance clears expired weather-cache rows and refreshes each
// shelter's distance to the nearest active emergency. With no active
// emergencies all distances are nulled.
func (s *Scheduler) RunMaintenance(ctx context.Context) error {
	purged, err := s.store.DeleteExpired(ctx)
	if err != nil {
		return fmt.Errorf("purging weather cache: %w", err)
	}

	if err := s.refreshRefugioDistances(ctx); err != nil {
		return fmt.Errorf("refreshing shelter distances: %w", err)
	}

	s.logger.Info("maintenance run complete", "cache_purged", purged)
	return nil
}

func (s *Scheduler) refreshRefugioDistances(ctx context.Context) error {
	active, err := s.store.ListActive(ctx)
	if err != nil {
		return err
	}

	if len(active) == 0 {
		return s.store.ClearRefugioDistances(ctx)
	}

	refugios, err := s.store.ListActiveRefugios(ctx)
	if err != nil {
		return err
	}

	for _, r := range refugios {
		min := math.Inf(1)
		for _, e := range active {
			if d := geo.HaversineKm(r.Lat, r.Lng, e.Lat, e.Lng); d < min {
				min = d
			}
		}
		if err := s.store.SetRefugioDistance(ctx, r.ID, min); err != nil {
			return err
		}
	}
	return nil
}
