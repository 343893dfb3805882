package api

import "github.com/alertachile/monitor/internal/models"

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func toGeoJSON(emergencias []models.Emergency) FeatureCollection {
	features := make([]Feature, 0, len(emergencias))

	for _, e := range emergencias {
		f := Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{e.Lng, e.Lat},
			},
			Properties: map[string]any{
				"id":                  e.ID,
				"tipo":                e.Tipo,
				"titulo":              e.Titulo,
				"descripcion":         e.Descripcion,
				"severidad":           e.Severidad,
				"estado":              e.Estado,
				"fuente":              e.Fuente,
				"fecha_inicio":        e.FechaInicio,
				"fecha_actualizacion": e.FechaActualizacion,
			},
		}
		features = append(features, f)
	}

	return FeatureCollection{
		Type:     "FeatureCollection",
		Features: features,
	}
}
