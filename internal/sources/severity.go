package sources

import "github.com/alertachile/monitor/internal/models"

// SeverityThresholds carries the per-source classification cutoffs.
// Defaults mirror the upstream agencies' scales; deployments can
// recalibrate them through configuration.
type SeverityThresholds struct {
	SeismicCritica float64
	SeismicAlta    float64
	SeismicMedia   float64

	FRPCritica float64
	FRPAlta    float64
	FRPMedia   float64

	HectaresCritica float64
	HectaresAlta    float64
	HectaresMedia   float64
}

func DefaultSeverityThresholds() SeverityThresholds {
	return SeverityThresholds{
		SeismicCritica:  7.0,
		SeismicAlta:     5.5,
		SeismicMedia:    4.0,
		FRPCritica:      50,
		FRPAlta:         20,
		FRPMedia:        5,
		HectaresCritica: 10000,
		HectaresAlta:    5000,
		HectaresMedia:   1000,
	}
}

// Seismic maps Richter magnitude to severity.
func (t SeverityThresholds) Seismic(magnitud float64) models.Severidad {
	switch {
	case magnitud >= t.SeismicCritica:
		return models.SeveridadCritica
	case magnitud >= t.SeismicAlta:
		return models.SeveridadAlta
	case magnitud >= t.SeismicMedia:
		return models.SeveridadMedia
	default:
		return models.SeveridadBaja
	}
}

// Hotspot classifies a satellite cluster by summed fire radiative
// power in MW; a high-confidence detection alone is enough for the
// top tier.
func (t SeverityThresholds) Hotspot(totalFRP float64, confidence string) models.Severidad {
	switch {
	case totalFRP > t.FRPCritica || confidence == "h":
		return models.SeveridadCritica
	case totalFRP > t.FRPAlta:
		return models.SeveridadAlta
	case totalFRP > t.FRPMedia:
		return models.SeveridadMedia
	default:
		return models.SeveridadBaja
	}
}

// Wildfire classifies a managed fire by burned hectares.
func (t SeverityThresholds) Wildfire(hectareas float64) models.Severidad {
	switch {
	case hectareas > t.HectaresCritica:
		return models.SeveridadCritica
	case hectareas > t.HectaresAlta:
		return models.SeveridadAlta
	case hectareas > t.HectaresMedia:
		return models.SeveridadMedia
	default:
		return models.SeveridadBaja
	}
}

// SeismicSeverity, HotspotSeverity and WildfireSeverity classify with
// the default cutoffs.
func SeismicSeverity(magnitud float64) models.Severidad {
	return DefaultSeverityThresholds().Seismic(magnitud)
}

func HotspotSeverity(totalFRP float64, confidence string) models.Severidad {
	return DefaultSeverityThresholds().Hotspot(totalFRP, confidence)
}

func WildfireSeverity(hectareas float64) models.Severidad {
	return DefaultSeverityThresholds().Wildfire(hectareas)
}
