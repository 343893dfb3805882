package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/alertachile/monitor/internal/config"
	"github.com/alertachile/monitor/internal/models"
	"github.com/alertachile/monitor/internal/observability"
	"github.com/alertachile/monitor/internal/repository"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func setupScheduler(t *testing.T) (*Scheduler, *repository.SQLiteDB, *clockwork.FakeClock) {
	t.Helper()

	db, err := repository.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	clock := clockwork.NewFakeClockAt(time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))
	db.SetClock(clock)

	cfg := &config.Config{
		Jobs: config.JobsConfig{
			RetentionSchedule:   "@hourly",
			StatsSchedule:       "0 0 * * *",
			MaintenanceSchedule: "@every 6h",
			ArchiveAge:          24 * time.Hour,
		},
	}

	s := NewScheduler(cfg, db, observability.NewMetricsForTesting(), slog.New(slog.DiscardHandler))
	s.SetClock(clock)
	return s, db, clock
}

func seedEmergency(t *testing.T, db *repository.SQLiteDB, id string, tipo models.Tipo, lat, lng float64, at time.Time) {
	t.Helper()
	err := db.Upsert(context.Background(), &models.Emergency{
		ID:                 id,
		Tipo:               tipo,
		Titulo:             "Evento " + id,
		Lat:                lat,
		Lng:                lng,
		Severidad:          models.SeveridadMedia,
		Estado:             models.EstadoActivo,
		FechaInicio:        at,
		FechaActualizacion: at,
		Fuente:             "test",
	})
	require.NoError(t, err)
}

func TestRunRetention_ArchivesStale(t *testing.T) {
	s, db, clock := setupScheduler(t)
	ctx := context.Background()

	seedEmergency(t, db, "old-1", models.TipoSismo, -33.45, -70.66, clock.Now().Add(-48*time.Hour))
	seedEmergency(t, db, "fresh-1", models.TipoSismo, -33.45, -70.66, clock.Now().Add(-1*time.Hour))

	require.NoError(t, s.RunRetention(ctx))

	_, err := db.GetByID(ctx, "old-1")
	assert.Error(t, err, "stale record should have been archived")
	_, err = db.GetByID(ctx, "fresh-1")
	assert.NoError(t, err)

	archived, err := db.ListArchive(ctx, 7)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "old-1", archived[0].ID)
}

func TestRunStats_WritesDailyRollup(t *testing.T) {
	s, db, clock := setupScheduler(t)
	ctx := context.Background()

	seedEmergency(t, db, "s1", models.TipoSismo, -33.45, -70.66, clock.Now().Add(-2*time.Hour))
	seedEmergency(t, db, "s2", models.TipoSismo, -36.82, -73.05, clock.Now().Add(-1*time.Hour))

	require.NoError(t, s.RunStats(ctx))

	rows, err := db.ListDailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, rows[0].TotalEmergencias)
	assert.Equal(t, clock.Now().Format("2006-01-02"), rows[0].Fecha.Format("2006-01-02"))

	// Re-running the same day replaces the row instead of adding one.
	seedEmergency(t, db, "s3", models.TipoIncendio, -38.74, -72.59, clock.Now())
	require.NoError(t, s.RunStats(ctx))

	rows, err = db.ListDailyStats(ctx, 7)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 3, rows[0].TotalEmergencias)
}

func TestRunMaintenance_SetsShelterDistances(t *testing.T) {
	s, db, clock := setupScheduler(t)
	ctx := context.Background()

	// Emergency in central Santiago; shelter roughly 10 km north.
	seedEmergency(t, db, "e1", models.TipoIncendio, -33.45, -70.66, clock.Now())
	_, err := db.UpsertRefugio(ctx, &models.Refugio{
		Nombre: "Gimnasio Municipal",
		Tipo:   "oficial",
		Lat:    -33.36,
		Lng:    -70.66,
		Comuna: "Huechuraba",
		Activo: true,
		Fuente: "SENAPRED",
	})
	require.NoError(t, err)

	require.NoError(t, s.RunMaintenance(ctx))

	refugios, err := db.ListActiveRefugios(ctx)
	require.NoError(t, err)
	require.Len(t, refugios, 1)
	require.NotNil(t, refugios[0].DistanciaEmergencia)
	assert.InDelta(t, 10.0, *refugios[0].DistanciaEmergencia, 1.0)
}

func TestRunMaintenance_ClearsDistancesWithoutActiveEmergencies(t *testing.T) {
	s, db, _ := setupScheduler(t)
	ctx := context.Background()

	id, err := db.UpsertRefugio(ctx, &models.Refugio{
		Nombre: "Escuela Básica",
		Tipo:   "oficial",
		Lat:    -36.82,
		Lng:    -73.05,
		Comuna: "Concepción",
		Activo: true,
		Fuente: "SENAPRED",
	})
	require.NoError(t, err)
	require.NoError(t, db.SetRefugioDistance(ctx, id, 4.2))

	require.NoError(t, s.RunMaintenance(ctx))

	refugios, err := db.ListActiveRefugios(ctx)
	require.NoError(t, err)
	require.Len(t, refugios, 1)
	assert.Nil(t, refugios[0].DistanciaEmergencia)
}

func TestRunMaintenance_PurgesExpiredWeatherCache(t *testing.T) {
	s, db, clock := setupScheduler(t)
	ctx := context.Background()

	require.NoError(t, db.SetCached(ctx, -33.45, -70.66, "current", []byte(`{"temp":21}`), 30*time.Minute))
	clock.Advance(31 * time.Minute)

	require.NoError(t, s.RunMaintenance(ctx))

	_, ok, err := db.GetCached(ctx, -33.45, -70.66, "current")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScheduler_StartRejectsBadSchedule(t *testing.T) {
	s, _, _ := setupScheduler(t)
	s.cfg.Jobs.StatsSchedule = "not a schedule"

	err := s.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stats")
}

func TestScheduler_StartStop(t *testing.T) {
	s, _, _ := setupScheduler(t)
	require.NoError(t, s.Start())
	s.Stop()
}
