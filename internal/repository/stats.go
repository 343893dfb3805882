package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alertachile/monitor/internal/models"
)

// Daily stats are keyed by the calendar date in ISO form; upsert
// replaces the whole row so a re-run for the same day converges.

const statsDateLayout = "2006-01-02"

func (s *SQLiteDB) UpsertDailyStats(ctx context.Context, st *models.DailyStats) error {
	query := `
		INSERT INTO emergency_stats_daily (
			fecha, total_emergencias, sismos_count, incendios_count,
			alertas_count, tsunamis_count,
			severidad_critica, severidad_alta, severidad_media, severidad_baja,
			sismos_magnitud_max, sismos_magnitud_avg, incendios_superficie_total,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fecha) DO UPDATE SET
			total_emergencias = excluded.total_emergencias,
			sismos_count = excluded.sismos_count,
			incendios_count = excluded.incendios_count,
			alertas_count = excluded.alertas_count,
			tsunamis_count = excluded.tsunamis_count,
			severidad_critica = excluded.severidad_critica,
			severidad_alta = excluded.severidad_alta,
			severidad_media = excluded.severidad_media,
			severidad_baja = excluded.severidad_baja,
			sismos_magnitud_max = excluded.sismos_magnitud_max,
			sismos_magnitud_avg = excluded.sismos_magnitud_avg,
			incendios_superficie_total = excluded.incendios_superficie_total
	`
	_, err := s.db.ExecContext(ctx, query,
		st.Fecha.Format(statsDateLayout),
		st.TotalEmergencias, st.SismosCount, st.IncendiosCount,
		st.AlertasCount, st.TsunamisCount,
		st.SeveridadCritica, st.SeveridadAlta, st.SeveridadMedia, st.SeveridadBaja,
		st.SismosMagnitudMax, st.SismosMagnitudAvg, st.SuperficieTotal,
		s.clock.Now(),
	)
	if err != nil {
		return fmt.Errorf("error upserting daily stats for %s: %w",
			st.Fecha.Format(statsDateLayout), err)
	}
	return nil
}

func (s *SQLiteDB) ListDailyStats(ctx context.Context, days int) ([]models.DailyStats, error) {
	cutoff := s.clock.Now().AddDate(0, 0, -days).Format(statsDateLayout)

	rows, err := s.db.QueryContext(ctx, `
		SELECT fecha, total_emergencias, sismos_count, incendios_count,
			alertas_count, tsunamis_count,
			severidad_critica, severidad_alta, severidad_media, severidad_baja,
			sismos_magnitud_max, sismos_magnitud_avg, incendios_superficie_total
		FROM emergency_stats_daily
		WHERE fecha >= ?
		ORDER BY fecha DESC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("error querying daily stats: %w", err)
	}
	defer rows.Close()

	var result []models.DailyStats
	for rows.Next() {
		var (
			st      models.DailyStats
			fecha   string
			magMax  sql.NullFloat64
			magAvg  sql.NullFloat64
			supTot  sql.NullFloat64
		)
		err := rows.Scan(&fecha, &st.TotalEmergencias, &st.SismosCount,
			&st.IncendiosCount, &st.AlertasCount, &st.TsunamisCount,
			&st.SeveridadCritica, &st.SeveridadAlta, &st.SeveridadMedia,
			&st.SeveridadBaja, &magMax, &magAvg, &supTot)
		if err != nil {
			return nil, fmt.Errorf("error scanning daily stats row: %w", err)
		}
		st.Fecha, err = time.Parse(statsDateLayout, fecha)
		if err != nil {
			return nil, fmt.Errorf("error parsing stats date %q: %w", fecha, err)
		}
		st.SismosMagnitudMax = magMax.Float64
		st.SismosMagnitudAvg = magAvg.Float64
		st.SuperficieTotal = supTot.Float64
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily stats rows: %w", err)
	}
	return result, nil
}
