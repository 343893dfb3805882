package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alertachile/monitor/internal/models"
)

func (s *SQLiteDB) UpsertRefugio(ctx context.Context, r *models.Refugio) (int64, error) {
	now := s.clock.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refugios (nombre, tipo, lat, lng, direccion, capacidad,
			region, comuna, activo, fuente, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fuente, nombre, comuna) DO UPDATE SET
			tipo = excluded.tipo,
			lat = excluded.lat,
			lng = excluded.lng,
			direccion = excluded.direccion,
			capacidad = excluded.capacidad,
			region = excluded.region,
			activo = excluded.activo,
			updated_at = excluded.updated_at`,
		r.Nombre, r.Tipo, r.Lat, r.Lng, r.Direccion, r.Capacidad,
		r.Region, r.Comuna, boolToInt(r.Activo), r.Fuente, now, now)
	if err != nil {
		return 0, fmt.Errorf("error upserting refugio %q: %w", r.Nombre, err)
	}

	var id int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM refugios WHERE fuente = ? AND nombre = ? AND comuna = ?`,
		r.Fuente, r.Nombre, r.Comuna).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error reading refugio id for %q: %w", r.Nombre, err)
	}
	return id, nil
}

func (s *SQLiteDB) ListActiveRefugios(ctx context.Context) ([]models.Refugio, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nombre, tipo, lat, lng, direccion, capacidad, region, comuna,
			activo, distancia_emergencia_mas_cercana, fuente, created_at, updated_at
		FROM refugios WHERE activo = 1`)
	if err != nil {
		return nil, fmt.Errorf("error querying refugios: %w", err)
	}
	defer rows.Close()

	var result []models.Refugio
	for rows.Next() {
		var (
			r         models.Refugio
			direccion sql.NullString
			capacidad sql.NullInt64
			region    sql.NullString
			comuna    sql.NullString
			activo    int
			dist      sql.NullFloat64
		)
		err := rows.Scan(&r.ID, &r.Nombre, &r.Tipo, &r.Lat, &r.Lng,
			&direccion, &capacidad, &region, &comuna, &activo, &dist,
			&r.Fuente, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning refugio row: %w", err)
		}
		r.Direccion = direccion.String
		r.Capacidad = int(capacidad.Int64)
		r.Region = region.String
		r.Comuna = comuna.String
		r.Activo = activo == 1
		if dist.Valid {
			d := dist.Float64
			r.DistanciaEmergencia = &d
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating refugio rows: %w", err)
	}
	return result, nil
}

func (s *SQLiteDB) SetRefugioDistance(ctx context.Context, id int64, km float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE refugios SET distancia_emergencia_mas_cercana = ?, updated_at = ?
		WHERE id = ?`, km, s.clock.Now(), id)
	if err != nil {
		return fmt.Errorf("error updating refugio %d distance: %w", id, err)
	}
	return nil
}

func (s *SQLiteDB) ClearRefugioDistances(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refugios SET distancia_emergencia_mas_cercana = NULL`)
	if err != nil {
		return fmt.Errorf("error clearing refugio distances: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
