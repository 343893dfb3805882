package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alertachile/monitor/internal/geo"
	"github.com/alertachile/monitor/internal/models"
)

const firmsBaseURL = "https://firms.modaps.eosdis.nasa.gov/api/area/csv"

// firmsAreas covers continental Chile plus the Antarctic claim, and a
// second box for Rapa Nui. Format: west,south,east,north/days.
var firmsAreas = []string{
	"-81,-56.5,-66,-17.5/2",
	"-110,-28,-108,-26/3",
}

// FIRMSSource ingests NASA VIIRS satellite hotspot detections and
// emits one wildfire event per ~5 km cluster.
type FIRMSSource struct {
	client     *Client
	logger     *slog.Logger
	clock      clockwork.Clock
	apiKey     string
	base       string
	thresholds SeverityThresholds
}

func NewFIRMSSource(client *Client, apiKey string, logger *slog.Logger) *FIRMSSource {
	return &FIRMSSource{
		client:     client,
		logger:     logger,
		clock:      clockwork.NewRealClock(),
		apiKey:     apiKey,
		base:       firmsBaseURL,
		thresholds: DefaultSeverityThresholds(),
	}
}

func (s *FIRMSSource) SetBaseURL(url string)      { s.base = url }
func (s *FIRMSSource) SetClock(c clockwork.Clock) { s.clock = c }

func (s *FIRMSSource) SetThresholds(t SeverityThresholds) { s.thresholds = t }

func (s *FIRMSSource) Name() string { return "firms" }

func (s *FIRMSSource) Fetch(ctx context.Context) ([]models.Emergency, error) {
	if s.apiKey == "" {
		s.logger.Warn("FIRMS API key not configured, skipping hotspot ingestion")
		return nil, nil
	}

	var hotspots []Hotspot
	for _, area := range firmsAreas {
		url := fmt.Sprintf("%s/%s/VIIRS_SNPP_NRT/%s", s.base, s.apiKey, area)
		body, err := s.client.Get(ctx, url)
		if err != nil {
			// One region failing should not drop the other's detections.
			s.logger.Warn("FIRMS area fetch failed", "area", area, "error", err)
			continue
		}
		hotspots = append(hotspots, parseFIRMSCSV(string(body))...)
	}

	emergencies := make([]models.Emergency, 0)
	for _, cluster := range ClusterHotspots(hotspots) {
		lat, lng := cluster.Centroid()
		region := geo.RegionAt(lat, lng)
		if region == "" {
			continue
		}

		main := cluster.Main()
		totalFRP := cluster.TotalFRP()
		meta := models.HotspotClusterMetadata{
			HotspotsCount: len(cluster.Hotspots),
			TotalFRP:      totalFRP,
			MaxFRP:        main.FRP,
			Confidence:    main.Confidence,
			Satellite:     main.Satellite,
			Region:        region,
		}

		inicio, err := time.Parse("2006-01-02", main.AcqDate)
		if err != nil {
			inicio = s.clock.Now()
		}

		emergencies = append(emergencies, models.Emergency{
			ID:                 "firms-" + strings.ReplaceAll(cluster.Key, ",", "-") + "-" + main.AcqDate,
			Tipo:               models.TipoIncendio,
			Titulo:             fmt.Sprintf("Foco de calor en %s", region),
			Descripcion:        fmt.Sprintf("%d detecciones satelitales | FRP total: %.1f MW | Región: %s", len(cluster.Hotspots), totalFRP, region),
			Lat:                lat,
			Lng:                lng,
			Severidad:          s.thresholds.Hotspot(totalFRP, main.Confidence),
			Estado:             models.EstadoActivo,
			FechaInicio:        inicio,
			FechaActualizacion: s.clock.Now(),
			Fuente:             "NASA FIRMS",
			Metadata:           meta.ToMap(),
		})
	}

	return emergencies, nil
}

// parseFIRMSCSV reads the area CSV. Column layout for VIIRS_SNPP_NRT:
// latitude,longitude,bright_ti4,scan,track,acq_date,acq_time,
// satellite,instrument,confidence,version,bright_ti5,frp,daynight.
func parseFIRMSCSV(text string) []Hotspot {
	reader := csv.NewReader(strings.NewReader(strings.TrimSpace(text)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		return nil
	}

	hotspots := make([]Hotspot, 0, len(records)-1)
	for _, fields := range records[1:] {
		if len(fields) < 13 {
			continue
		}

		lat, errLat := strconv.ParseFloat(fields[0], 64)
		lng, errLng := strconv.ParseFloat(fields[1], 64)
		if errLat != nil || errLng != nil {
			continue
		}
		if !geo.InChile(lat, lng) {
			continue
		}
		frp, _ := strconv.ParseFloat(fields[12], 64)

		hotspots = append(hotspots, Hotspot{
			Lat:        lat,
			Lng:        lng,
			AcqDate:    fields[5],
			AcqTime:    fields[6],
			Satellite:  fields[7],
			Confidence: fields[9],
			FRP:        frp,
		})
	}
	return hotspots
}
