package models

// Typed metadata variants per tipo. Adapters build these so severity
// classification and stats aggregation stay type-safe; the repository
// erases them to a plain map at the storage boundary via ToMap.

type SeismicMetadata struct {
	Magnitud    float64
	Profundidad float64
	Referencia  string
}

func (m SeismicMetadata) ToMap() map[string]any {
	return map[string]any{
		"magnitud":    m.Magnitud,
		"profundidad": m.Profundidad,
		"referencia":  m.Referencia,
	}
}

type WildfireMetadata struct {
	Region             string
	SuperficieHectares float64
	PorcentajeControl  float64
}

func (m WildfireMetadata) ToMap() map[string]any {
	return map[string]any{
		"region":              m.Region,
		"superficie_afectada": m.SuperficieHectares,
		"porcentaje_control":  m.PorcentajeControl,
	}
}

// HotspotClusterMetadata describes one clustered group of satellite
// thermal detections.
type HotspotClusterMetadata struct {
	HotspotsCount int
	TotalFRP      float64
	MaxFRP        float64
	Confidence    string
	Satellite     string
	Region        string
}

func (m HotspotClusterMetadata) ToMap() map[string]any {
	return map[string]any{
		"hotspots_count": m.HotspotsCount,
		"total_frp":      m.TotalFRP,
		"max_frp":        m.MaxFRP,
		"confidence":     m.Confidence,
		"satellite":      m.Satellite,
		"region":         m.Region,
	}
}

type AlertMetadata struct {
	Comuna          string
	Region          string
	Sector          string
	MensajeOriginal string
}

func (m AlertMetadata) ToMap() map[string]any {
	out := map[string]any{
		"comuna":           m.Comuna,
		"region":           m.Region,
		"mensaje_original": m.MensajeOriginal,
	}
	if m.Sector != "" {
		out["sector"] = m.Sector
	}
	return out
}
