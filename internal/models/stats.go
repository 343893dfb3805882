package models

import "time"

// DailyStats is one per-date rollup row, append-or-replace keyed by
// Fecha (truncated to the calendar day).
type DailyStats struct {
	Fecha             time.Time `json:"fecha"`
	TotalEmergencias  int       `json:"total_emergencias"`
	SismosCount       int       `json:"sismos_count"`
	IncendiosCount    int       `json:"incendios_count"`
	AlertasCount      int       `json:"alertas_count"`
	TsunamisCount     int       `json:"tsunamis_count"`
	SeveridadCritica  int       `json:"severidad_critica"`
	SeveridadAlta     int       `json:"severidad_alta"`
	SeveridadMedia    int       `json:"severidad_media"`
	SeveridadBaja     int       `json:"severidad_baja"`
	SismosMagnitudMax float64   `json:"sismos_magnitud_max"`
	SismosMagnitudAvg float64   `json:"sismos_magnitud_avg"`
	SuperficieTotal   float64   `json:"incendios_superficie_total"`
}
