package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/alertachile/monitor/internal/geo"
	"github.com/alertachile/monitor/internal/models"
)

// DefaultSismosURL serves the last ~15 events reported by the Centro
// Sismológico Nacional, relayed as JSON.
const DefaultSismosURL = "https://api.gael.cloud/general/public/sismos"

// sismoRecord is the upstream shape. All numeric fields arrive as strings.
type sismoRecord struct {
	Fecha         string `json:"Fecha"`
	Profundidad   string `json:"Profundidad"`
	Magnitud      string `json:"Magnitud"`
	RefGeografica string `json:"RefGeografica"`
	FechaUpdate   string `json:"FechaUpdate"`
}

type SismosSource struct {
	client     *Client
	logger     *slog.Logger
	gazetteer  *geo.Gazetteer
	url        string
	thresholds SeverityThresholds
}

func NewSismosSource(client *Client, gazetteer *geo.Gazetteer, logger *slog.Logger) *SismosSource {
	return &SismosSource{
		client:     client,
		logger:     logger,
		gazetteer:  gazetteer,
		url:        DefaultSismosURL,
		thresholds: DefaultSeverityThresholds(),
	}
}

func (s *SismosSource) SetURL(url string) { s.url = url }

func (s *SismosSource) SetThresholds(t SeverityThresholds) { s.thresholds = t }

func (s *SismosSource) Name() string { return "sismos" }

// idStrip removes the separators from the upstream timestamp so the
// event ID is stable across re-fetches of the same event.
var idStrip = regexp.MustCompile(`[:\s-]`)

func (s *SismosSource) Fetch(ctx context.Context) ([]models.Emergency, error) {
	body, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetching sismos: %w", err)
	}

	var records []sismoRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decoding sismos response: %w", err)
	}

	emergencies := make([]models.Emergency, 0, len(records))
	for _, rec := range records {
		magnitud, err := strconv.ParseFloat(rec.Magnitud, 64)
		if err != nil {
			s.logger.Warn("skipping sismo with invalid magnitude",
				"magnitud", rec.Magnitud, "fecha", rec.Fecha)
			continue
		}
		profundidad, _ := strconv.ParseFloat(rec.Profundidad, 64)

		coords := s.locate(rec.RefGeografica)
		inicio := parseSismoTime(rec.Fecha)
		actualizacion := parseSismoTime(rec.FechaUpdate)
		if actualizacion.IsZero() {
			actualizacion = inicio
		}

		meta := models.SeismicMetadata{
			Magnitud:    magnitud,
			Profundidad: profundidad,
			Referencia:  rec.RefGeografica,
		}

		emergencies = append(emergencies, models.Emergency{
			ID:                 "sismo-" + idStrip.ReplaceAllString(rec.Fecha, ""),
			Tipo:               models.TipoSismo,
			Titulo:             fmt.Sprintf("Sismo %s° - %s", rec.Magnitud, rec.RefGeografica),
			Descripcion:        fmt.Sprintf("Magnitud: %s° | Profundidad: %s km | %s", rec.Magnitud, rec.Profundidad, rec.RefGeografica),
			Lat:                coords.Lat,
			Lng:                coords.Lng,
			Severidad:          s.thresholds.Seismic(magnitud),
			Estado:             models.EstadoActivo,
			FechaInicio:        inicio,
			FechaActualizacion: actualizacion,
			Fuente:             "CSN",
			Metadata:           meta.ToMap(),
		})
	}

	return emergencies, nil
}

// locate geocodes the geographic reference text against the comuna
// gazetteer, falling back to central Chile when nothing matches.
func (s *SismosSource) locate(ref string) models.Coordinates {
	if place, ok := s.gazetteer.Find(ref); ok {
		return models.Coordinates{Lat: place.Lat, Lng: place.Lng}
	}
	return models.Coordinates{Lat: geo.SantiagoCentro.Lat, Lng: geo.SantiagoCentro.Lng}
}

// parseSismoTime handles the upstream "2006-01-02 15:04:05" local
// timestamps, tolerating the ISO variant some mirrors emit.
func parseSismoTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
