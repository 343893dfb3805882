package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/alertachile/monitor/internal/geo"
	"github.com/alertachile/monitor/internal/models"
)

func (s *SQLiteDB) UpsertHospital(ctx context.Context, h *models.Hospital) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO hospitals (osm_id, nombre, tipo, lat, lng, direccion,
			telefono, comuna, capacidad_camas, urgencia, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(osm_id) DO UPDATE SET
			nombre = excluded.nombre,
			tipo = excluded.tipo,
			lat = excluded.lat,
			lng = excluded.lng,
			direccion = excluded.direccion,
			telefono = excluded.telefono,
			comuna = excluded.comuna,
			capacidad_camas = excluded.capacidad_camas,
			urgencia = excluded.urgencia,
			updated_at = excluded.updated_at`,
		h.OSMID, h.Nombre, h.Tipo, h.Lat, h.Lng, h.Direccion,
		h.Telefono, h.Comuna, h.CapacidadCamas, boolToInt(h.Urgencia),
		s.clock.Now())
	if err != nil {
		return fmt.Errorf("error upserting hospital %s: %w", h.OSMID, err)
	}
	return nil
}

func (s *SQLiteDB) ListHospitalsByRadius(ctx context.Context, lat, lng, radiusKm float64) ([]models.Hospital, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, osm_id, nombre, tipo, lat, lng, direccion, telefono,
			comuna, capacidad_camas, urgencia, updated_at
		FROM hospitals`)
	if err != nil {
		return nil, fmt.Errorf("error querying hospitals: %w", err)
	}
	defer rows.Close()

	type hospitalDist struct {
		h models.Hospital
		d float64
	}
	var within []hospitalDist
	for rows.Next() {
		var (
			h         models.Hospital
			tipo      sql.NullString
			direccion sql.NullString
			telefono  sql.NullString
			comuna    sql.NullString
			camas     sql.NullInt64
			urgencia  int
		)
		err := rows.Scan(&h.ID, &h.OSMID, &h.Nombre, &tipo, &h.Lat, &h.Lng,
			&direccion, &telefono, &comuna, &camas, &urgencia, &h.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning hospital row: %w", err)
		}
		h.Tipo = tipo.String
		h.Direccion = direccion.String
		h.Telefono = telefono.String
		h.Comuna = comuna.String
		h.CapacidadCamas = int(camas.Int64)
		h.Urgencia = urgencia == 1

		d := geo.HaversineKm(lat, lng, h.Lat, h.Lng)
		if d <= radiusKm {
			within = append(within, hospitalDist{h, d})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hospital rows: %w", err)
	}

	sort.Slice(within, func(i, j int) bool { return within[i].d < within[j].d })
	result := make([]models.Hospital, 0, len(within))
	for _, hd := range within {
		result = append(result, hd.h)
	}
	return result, nil
}
