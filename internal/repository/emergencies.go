package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alertachile/monitor/internal/geo"
	"github.com/alertachile/monitor/internal/models"
)

// activeWindow bounds the active set: records not updated within this
// window are excluded from active views even before archival.
const activeWindow = 7 * 24 * time.Hour

const emergencyCols = `id, tipo, titulo, descripcion, lat, lng, severidad, estado,
	fecha_inicio, fecha_actualizacion, fuente, metadata`

func (s *SQLiteDB) Upsert(ctx context.Context, e *models.Emergency) error {
	meta, err := marshalMetadata(e.Metadata)
	if err != nil {
		return fmt.Errorf("error encoding metadata for %s: %w", e.ID, err)
	}

	query := `
		INSERT INTO emergencies (` + emergencyCols + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			severidad = excluded.severidad,
			estado = excluded.estado,
			fecha_actualizacion = excluded.fecha_actualizacion,
			metadata = excluded.metadata
	`
	_, err = s.db.ExecContext(ctx, query,
		e.ID, string(e.Tipo), e.Titulo, e.Descripcion, e.Lat, e.Lng,
		string(e.Severidad), string(e.Estado),
		e.FechaInicio, e.FechaActualizacion, e.Fuente, meta,
	)
	if err != nil {
		return fmt.Errorf("error upserting emergency %s: %w", e.ID, err)
	}
	return nil
}

func (s *SQLiteDB) GetByID(ctx context.Context, id string) (*models.Emergency, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+emergencyCols+` FROM emergencies WHERE id = ?`, id)

	e, err := scanEmergency(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("emergency %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting emergency %s: %w", id, err)
	}
	return e, nil
}

func (s *SQLiteDB) ListByRadius(ctx context.Context, lat, lng, radiusKm float64) ([]EmergencyWithDistance, error) {
	cutoff := s.clock.Now().Add(-activeWindow)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+emergencyCols+` FROM emergencies WHERE fecha_actualizacion >= ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("error querying emergencies by radius: %w", err)
	}
	defer rows.Close()

	// Distance is computed here rather than pushed into SQL: SQLite
	// lacks trig functions and the active set is small after the time
	// filter.
	var result []EmergencyWithDistance
	for rows.Next() {
		e, err := scanEmergency(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning emergency row: %w", err)
		}
		d := geo.HaversineKm(lat, lng, e.Lat, e.Lng)
		if d <= radiusKm {
			result = append(result, EmergencyWithDistance{Emergency: *e, DistanceKm: d})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emergency rows: %w", err)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})
	return result, nil
}

func (s *SQLiteDB) ListByTipo(ctx context.Context, tipo models.Tipo) ([]models.Emergency, error) {
	cutoff := s.clock.Now().Add(-activeWindow)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+emergencyCols+` FROM emergencies
		WHERE tipo = ? AND estado != ? AND fecha_actualizacion >= ?
		ORDER BY fecha_actualizacion DESC`,
		string(tipo), string(models.EstadoExtinguido), cutoff)
	if err != nil {
		return nil, fmt.Errorf("error querying emergencies by tipo %s: %w", tipo, err)
	}
	defer rows.Close()

	return collectEmergencies(rows)
}

func (s *SQLiteDB) ListActive(ctx context.Context) ([]models.Emergency, error) {
	cutoff := s.clock.Now().Add(-activeWindow)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+emergencyCols+` FROM emergencies
		WHERE estado != ? AND fecha_actualizacion >= ?
		ORDER BY fecha_actualizacion DESC`,
		string(models.EstadoExtinguido), cutoff)
	if err != nil {
		return nil, fmt.Errorf("error querying active emergencies: %w", err)
	}
	defer rows.Close()

	return collectEmergencies(rows)
}

func (s *SQLiteDB) ArchiveOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := s.clock.Now().Add(-age)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("error starting archive transaction: %w", err)
	}
	defer tx.Rollback()

	// INSERT OR IGNORE makes re-runs safe: ids already archived are
	// skipped instead of erroring or duplicating.
	res, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO emergencies_archive
			(`+emergencyCols+`, archived_at)
		SELECT `+emergencyCols+`, ? FROM emergencies
		WHERE fecha_actualizacion < ?`,
		s.clock.Now(), cutoff)
	if err != nil {
		return 0, fmt.Errorf("error copying emergencies to archive: %w", err)
	}
	moved, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading archive row count: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM emergencies WHERE fecha_actualizacion < ?`, cutoff); err != nil {
		return 0, fmt.Errorf("error deleting archived emergencies: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("error committing archive transaction: %w", err)
	}
	return moved, nil
}

func (s *SQLiteDB) ListArchive(ctx context.Context, days int) ([]models.Emergency, error) {
	cutoff := s.clock.Now().AddDate(0, 0, -days)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+emergencyCols+` FROM emergencies_archive
		WHERE fecha_inicio >= ?
		ORDER BY fecha_inicio DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("error querying archive: %w", err)
	}
	defer rows.Close()

	return collectEmergencies(rows)
}

// AggregateStatsForDate scans the day's rows and aggregates in Go;
// magnitude and burned area live inside the metadata JSON, which is
// simpler to read back here than through SQL JSON functions.
func (s *SQLiteDB) AggregateStatsForDate(ctx context.Context, date time.Time) (*models.DailyStats, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24*time.Hour - time.Nanosecond)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+emergencyCols+` FROM emergencies
		WHERE fecha_actualizacion >= ? AND fecha_actualizacion <= ?`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("error querying emergencies for stats: %w", err)
	}
	defer rows.Close()

	stats := &models.DailyStats{Fecha: start}
	var magSum float64
	for rows.Next() {
		e, err := scanEmergency(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning emergency row for stats: %w", err)
		}

		stats.TotalEmergencias++
		switch e.Tipo {
		case models.TipoSismo:
			stats.SismosCount++
			if mag, ok := metadataFloat(e.Metadata, "magnitud"); ok {
				magSum += mag
				if mag > stats.SismosMagnitudMax {
					stats.SismosMagnitudMax = mag
				}
			}
		case models.TipoIncendio:
			stats.IncendiosCount++
			if ha, ok := metadataFloat(e.Metadata, "superficie_afectada"); ok {
				stats.SuperficieTotal += ha
			}
		case models.TipoAlertaMeteor:
			stats.AlertasCount++
		case models.TipoTsunami:
			stats.TsunamisCount++
		}

		switch e.Severidad {
		case models.SeveridadCritica:
			stats.SeveridadCritica++
		case models.SeveridadAlta:
			stats.SeveridadAlta++
		case models.SeveridadMedia:
			stats.SeveridadMedia++
		case models.SeveridadBaja:
			stats.SeveridadBaja++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emergency rows for stats: %w", err)
	}

	if stats.SismosCount > 0 {
		stats.SismosMagnitudAvg = magSum / float64(stats.SismosCount)
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmergency(r rowScanner) (*models.Emergency, error) {
	var (
		e           models.Emergency
		tipo        string
		severidad   string
		estado      string
		descripcion sql.NullString
		meta        sql.NullString
	)
	err := r.Scan(&e.ID, &tipo, &e.Titulo, &descripcion, &e.Lat, &e.Lng,
		&severidad, &estado, &e.FechaInicio, &e.FechaActualizacion, &e.Fuente, &meta)
	if err != nil {
		return nil, err
	}

	e.Tipo = models.Tipo(tipo)
	e.Severidad = models.Severidad(severidad)
	e.Estado = models.Estado(estado)
	e.Descripcion = descripcion.String
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &e.Metadata); err != nil {
			return nil, fmt.Errorf("error decoding metadata for %s: %w", e.ID, err)
		}
	}
	return &e, nil
}

func collectEmergencies(rows *sql.Rows) ([]models.Emergency, error) {
	var result []models.Emergency
	for rows.Next() {
		e, err := scanEmergency(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning emergency row: %w", err)
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating emergency rows: %w", err)
	}
	return result, nil
}

func marshalMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// metadataFloat reads a numeric metadata value; JSON round-trips turn
// numbers into float64 but adapters may hand us ints directly.
func metadataFloat(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
