package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alertachile/monitor/internal/models"
)

// DefaultConafURL serves the forestry agency's active-fire registry.
const DefaultConafURL = "https://www.conaf.cl/api/rest/auxiliar/obtener_data_incendios"

type conafFire struct {
	ID                json.Number `json:"id"`
	Region            string      `json:"region"`
	Lat               string      `json:"lat"`
	Lng               string      `json:"lng"`
	Hectareas         float64     `json:"hectareas"`
	PorcentajeControl float64     `json:"porcentaje_control"`
	Estado            string      `json:"estado"`
	FechaInicio       string      `json:"fecha_inicio"`
}

type conafResponse struct {
	Incendios []conafFire `json:"incendios"`
}

// ConafSource ingests managed wildfire incidents. Unlike the satellite
// feed these carry burned area and containment, which the daily stats
// rollup needs.
type ConafSource struct {
	client     *Client
	logger     *slog.Logger
	clock      clockwork.Clock
	url        string
	thresholds SeverityThresholds
}

func NewConafSource(client *Client, logger *slog.Logger) *ConafSource {
	return &ConafSource{
		client:     client,
		logger:     logger,
		clock:      clockwork.NewRealClock(),
		url:        DefaultConafURL,
		thresholds: DefaultSeverityThresholds(),
	}
}

func (s *ConafSource) SetURL(url string)          { s.url = url }
func (s *ConafSource) SetClock(c clockwork.Clock) { s.clock = c }

func (s *ConafSource) SetThresholds(t SeverityThresholds) { s.thresholds = t }

func (s *ConafSource) Name() string { return "conaf" }

func (s *ConafSource) Fetch(ctx context.Context) ([]models.Emergency, error) {
	body, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetching conaf fires: %w", err)
	}

	var resp conafResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding conaf response: %w", err)
	}

	emergencies := make([]models.Emergency, 0, len(resp.Incendios))
	for _, fire := range resp.Incendios {
		lat, errLat := strconv.ParseFloat(fire.Lat, 64)
		lng, errLng := strconv.ParseFloat(fire.Lng, 64)
		if errLat != nil || errLng != nil {
			s.logger.Warn("skipping conaf fire with invalid coordinates",
				"id", fire.ID.String(), "lat", fire.Lat, "lng", fire.Lng)
			continue
		}

		estado := conafEstado(fire.Estado)
		inicio := parseConafTime(fire.FechaInicio)
		if inicio.IsZero() {
			inicio = s.clock.Now()
		}

		meta := models.WildfireMetadata{
			Region:             fire.Region,
			SuperficieHectares: fire.Hectareas,
			PorcentajeControl:  fire.PorcentajeControl,
		}

		emergencies = append(emergencies, models.Emergency{
			ID:                 "conaf-" + fire.ID.String(),
			Tipo:               models.TipoIncendio,
			Titulo:             fmt.Sprintf("Incendio en %s", fire.Region),
			Descripcion:        fmt.Sprintf("Superficie: %.0f ha", fire.Hectareas),
			Lat:                lat,
			Lng:                lng,
			Severidad:          s.thresholds.Wildfire(fire.Hectareas),
			Estado:             estado,
			FechaInicio:        inicio,
			FechaActualizacion: s.clock.Now(),
			Fuente:             "CONAF",
			Metadata:           meta.ToMap(),
		})
	}

	return emergencies, nil
}

func conafEstado(s string) models.Estado {
	switch models.Estado(s) {
	case models.EstadoMonitoreo, models.EstadoControlado, models.EstadoExtinguido:
		return models.Estado(s)
	default:
		return models.EstadoActivo
	}
}

func parseConafTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
