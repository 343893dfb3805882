package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultOverpassURL is the public Overpass API endpoint for
// OpenStreetMap queries.
const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// chileBBox is south,west,north,east for Overpass area filters. Wide
// enough to include Rapa Nui.
const chileBBox = "-56.0,-110.0,-17.0,-66.0"

// OSMFacility is one healthcare POI as returned by Overpass.
type OSMFacility struct {
	OSMID     string
	Nombre    string
	Tipo      string
	Lat       float64
	Lng       float64
	Direccion string
	Telefono  string
	Comuna    string
	Camas     int
	Urgencia  bool
}

type overpassElement struct {
	Type   string  `json:"type"`
	ID     int64   `json:"id"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Center *struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"center"`
	Tags map[string]string `json:"tags"`
}

type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

// OverpassClient syncs healthcare facilities from OpenStreetMap. This
// is a one-shot bootstrap, not part of the polling loop, so it posts
// directly instead of going through the breaker-wrapped GET client.
type OverpassClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	url        string
}

func NewOverpassClient(logger *slog.Logger) *OverpassClient {
	return &OverpassClient{
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		logger:     logger,
		url:        DefaultOverpassURL,
	}
}

func (c *OverpassClient) SetURL(url string) { c.url = url }

// FetchHospitals queries hospitals, clinics and emergency healthcare
// sites inside the Chile bounding box. Unnamed facilities are dropped.
func (c *OverpassClient) FetchHospitals(ctx context.Context) ([]OSMFacility, error) {
	query := hospitalQuery()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("creating overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying overpass: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("overpass returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading overpass response: %w", err)
	}

	var parsed overpassResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding overpass response: %w", err)
	}

	facilities := make([]OSMFacility, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		f, ok := facilityFromElement(el)
		if !ok {
			continue
		}
		facilities = append(facilities, f)
	}

	c.logger.Info("fetched healthcare facilities from OSM", "count", len(facilities))
	return facilities, nil
}

func hospitalQuery() string {
	var b strings.Builder
	b.WriteString("[out:json][timeout:90];\n(\n")
	for _, selector := range []string{
		`node["amenity"="hospital"]`,
		`way["amenity"="hospital"]`,
		`relation["amenity"="hospital"]`,
		`node["amenity"="clinic"]`,
		`way["amenity"="clinic"]`,
		`node["healthcare"="hospital"]`,
		`way["healthcare"="hospital"]`,
	} {
		fmt.Fprintf(&b, "  %s(%s);\n", selector, chileBBox)
	}
	b.WriteString(");\nout center;")
	return b.String()
}

func facilityFromElement(el overpassElement) (OSMFacility, bool) {
	nombre := el.Tags["name:es"]
	if nombre == "" {
		nombre = el.Tags["name"]
	}
	if nombre == "" {
		return OSMFacility{}, false
	}

	lat, lng := el.Lat, el.Lon
	if lat == 0 && lng == 0 && el.Center != nil {
		lat, lng = el.Center.Lat, el.Center.Lon
	}
	if lat == 0 && lng == 0 {
		return OSMFacility{}, false
	}

	tipo := el.Tags["amenity"]
	if tipo == "" {
		tipo = el.Tags["healthcare"]
	}
	if tipo == "" {
		tipo = "hospital"
	}

	direccion := el.Tags["addr:full"]
	if direccion == "" && el.Tags["addr:street"] != "" {
		direccion = el.Tags["addr:street"]
		if city := el.Tags["addr:city"]; city != "" {
			direccion += ", " + city
		}
	}

	camas := 0
	if beds := el.Tags["beds"]; beds != "" {
		camas, _ = strconv.Atoi(beds)
	}

	return OSMFacility{
		OSMID:     fmt.Sprintf("%s/%d", el.Type, el.ID),
		Nombre:    nombre,
		Tipo:      tipo,
		Lat:       lat,
		Lng:       lng,
		Direccion: direccion,
		Telefono:  el.Tags["phone"],
		Comuna:    el.Tags["addr:city"],
		Camas:     camas,
		Urgencia:  el.Tags["emergency"] == "yes",
	}, true
}
