// Package ingestion orchestrates the source pollers: each registered
// source runs on its own goroutine and interval, fetched records are
// filtered and handed to the worker pool for idempotent upserts.
package ingestion

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alertachile/monitor/internal/config"
	"github.com/alertachile/monitor/internal/models"
	"github.com/alertachile/monitor/internal/observability"
	"github.com/alertachile/monitor/internal/repository"
	"github.com/alertachile/monitor/internal/sources"
	"github.com/alertachile/monitor/internal/worker"
)

type Manager struct {
	cfg      *config.Config
	repo     repository.EmergencyRepository
	refugios repository.RefugioRepository
	metrics  *observability.Metrics
	logger   *slog.Logger

	sources   []registeredSource
	albergues *sources.AlberguesSource

	pool *worker.Pool
	wg   sync.WaitGroup
}

type registeredSource struct {
	source   sources.Source
	interval time.Duration
}

func NewManager(cfg *config.Config, store repository.Store, metrics *observability.Metrics, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		repo:     store,
		refugios: store,
		metrics:  metrics,
		logger:   logger,
	}
}

// Register adds a source polled at the given interval; zero means the
// configured default.
func (m *Manager) Register(src sources.Source, interval time.Duration) {
	if interval <= 0 {
		interval = m.cfg.Sources.PollInterval
	}
	m.sources = append(m.sources, registeredSource{source: src, interval: interval})
}

// SetAlbergues attaches the shelter-listing scraper, synced on the
// default poll interval alongside the emergency sources.
func (m *Manager) SetAlbergues(src *sources.AlberguesSource) {
	m.albergues = src
}

func (m *Manager) Start(ctx context.Context) {
	upsert := func(ctx context.Context, e *models.Emergency) error {
		if err := m.repo.Upsert(ctx, e); err != nil {
			return err
		}
		m.logger.Info("upserted emergency",
			"id", e.ID, "tipo", e.Tipo, "severidad", e.Severidad, "fuente", e.Fuente)
		return nil
	}

	m.pool = worker.NewPool(m.cfg.Worker.Count, m.cfg.Worker.BufferSize, upsert, m.logger)
	m.pool.Start(ctx)

	for _, reg := range m.sources {
		m.wg.Add(1)
		go m.runPoller(ctx, reg)
	}

	if m.albergues != nil {
		m.wg.Add(1)
		go m.runShelterSync(ctx)
	}
}

func (m *Manager) runPoller(ctx context.Context, reg registeredSource) {
	defer m.wg.Done()
	m.logger.Info("starting poller", "source", reg.source.Name(), "interval", reg.interval)
	m.metrics.PollersRunning.Inc()
	defer m.metrics.PollersRunning.Dec()

	ticker := time.NewTicker(reg.interval)
	defer ticker.Stop()

	// Initial poll without waiting a full interval.
	m.poll(ctx, reg.source)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("poller shutting down", "source", reg.source.Name())
			return
		case <-ticker.C:
			m.poll(ctx, reg.source)
		}
	}
}

func (m *Manager) poll(ctx context.Context, src sources.Source) {
	name := src.Name()
	start := time.Now()

	emergencies, err := src.Fetch(ctx)
	if err != nil {
		m.metrics.FetchErrors.WithLabelValues(name).Inc()
		m.logger.Error("poll failed", "source", name, "error", err)
		return
	}

	submitted := 0
	for i := range emergencies {
		e := &emergencies[i]
		if m.filtered(e) {
			m.metrics.RecordsSkipped.WithLabelValues(name, "filtered").Inc()
			continue
		}
		if !m.pool.Submit(ctx, e) {
			// Shutting down; the rest of the batch goes with it.
			break
		}
		submitted++
	}

	m.metrics.RecordsIngested.WithLabelValues(name).Add(float64(submitted))
	m.metrics.PollDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	m.logger.Debug("poll complete", "source", name, "fetched", len(emergencies), "submitted", submitted)
}

// filtered drops records below the ingestion thresholds: micro-seisms
// under the configured minimum magnitude.
func (m *Manager) filtered(e *models.Emergency) bool {
	if e.Tipo != models.TipoSismo {
		return false
	}
	magnitud, ok := e.Metadata["magnitud"].(float64)
	if !ok {
		return false
	}
	return magnitud < m.cfg.Sources.MinMagnitude
}

func (m *Manager) runShelterSync(ctx context.Context) {
	defer m.wg.Done()
	m.logger.Info("starting shelter sync", "interval", m.cfg.Sources.PollInterval)

	ticker := time.NewTicker(m.cfg.Sources.PollInterval)
	defer ticker.Stop()

	m.syncShelters(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.syncShelters(ctx)
		}
	}
}

func (m *Manager) syncShelters(ctx context.Context) {
	refugios, err := m.albergues.Fetch(ctx)
	if err != nil {
		m.metrics.FetchErrors.WithLabelValues(m.albergues.Name()).Inc()
		m.logger.Error("shelter sync failed", "error", err)
		return
	}

	saved := 0
	for i := range refugios {
		if _, err := m.refugios.UpsertRefugio(ctx, &refugios[i]); err != nil {
			m.logger.Error("shelter upsert failed", "nombre", refugios[i].Nombre, "error", err)
			continue
		}
		saved++
	}
	m.metrics.RecordsIngested.WithLabelValues(m.albergues.Name()).Add(float64(saved))
	m.logger.Debug("shelter sync complete", "saved", saved)
}

// Stop waits for the pollers to exit, then drains the worker pool.
// Call after cancelling the context passed to Start.
func (m *Manager) Stop() {
	m.wg.Wait()
	m.pool.Stop()
	m.logger.Info("ingestion manager stopped")
}
