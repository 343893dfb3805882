package repository

import (
	"context"
	"time"

	"github.com/alertachile/monitor/internal/models"
)

// EmergencyWithDistance is a radius-query row plus its computed
// distance from the query origin.
type EmergencyWithDistance struct {
	models.Emergency
	DistanceKm float64 `json:"distance_km"`
}

// EmergencyRepository is the canonical storage contract for emergency
// records. All writes from the ingestion pipeline and jobs go through
// it; the API layer uses the read methods.
type EmergencyRepository interface {
	// Upsert inserts a record or, on id conflict, updates only the
	// mutable fields (severidad, estado, fecha_actualizacion, metadata).
	Upsert(ctx context.Context, e *models.Emergency) error
	GetByID(ctx context.Context, id string) (*models.Emergency, error)

	// ListByRadius returns records updated within the last 7 days and
	// within radiusKm of the origin, ordered by ascending distance.
	ListByRadius(ctx context.Context, lat, lng, radiusKm float64) ([]EmergencyWithDistance, error)

	// ListByTipo and ListActive exclude extinguished records and
	// records older than 7 days, newest first.
	ListByTipo(ctx context.Context, tipo models.Tipo) ([]models.Emergency, error)
	ListActive(ctx context.Context) ([]models.Emergency, error)

	// ArchiveOlderThan moves records whose fecha_actualizacion is older
	// than the given age into the archive (copy then delete; ids
	// already archived are skipped). Returns the number moved.
	ArchiveOlderThan(ctx context.Context, age time.Duration) (int64, error)
	ListArchive(ctx context.Context, days int) ([]models.Emergency, error)

	// AggregateStatsForDate computes per-type and per-severity counts
	// and magnitude/area extremes over one calendar day.
	AggregateStatsForDate(ctx context.Context, date time.Time) (*models.DailyStats, error)
}

type StatsRepository interface {
	UpsertDailyStats(ctx context.Context, s *models.DailyStats) error
	ListDailyStats(ctx context.Context, days int) ([]models.DailyStats, error)
}

// WeatherCacheRepository caches upstream weather payloads keyed by
// (lat, lng, kind); kind is one of "current", "uv", "air_quality".
type WeatherCacheRepository interface {
	GetCached(ctx context.Context, lat, lng float64, kind string) ([]byte, bool, error)
	SetCached(ctx context.Context, lat, lng float64, kind string, payload []byte, ttl time.Duration) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type RefugioRepository interface {
	// UpsertRefugio inserts or refreshes a shelter keyed by
	// (fuente, nombre, comuna) and returns its row id.
	UpsertRefugio(ctx context.Context, r *models.Refugio) (int64, error)
	ListActiveRefugios(ctx context.Context) ([]models.Refugio, error)
	SetRefugioDistance(ctx context.Context, id int64, km float64) error
	// ClearRefugioDistances nulls every shelter's distance field; used
	// when there are no active emergencies.
	ClearRefugioDistances(ctx context.Context) error
}

type HospitalRepository interface {
	UpsertHospital(ctx context.Context, h *models.Hospital) error
	ListHospitalsByRadius(ctx context.Context, lat, lng, radiusKm float64) ([]models.Hospital, error)
}

// Store bundles every repository contract the process needs.
type Store interface {
	EmergencyRepository
	StatsRepository
	WeatherCacheRepository
	RefugioRepository
	HospitalRepository
}
