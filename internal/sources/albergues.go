package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/alertachile/monitor/internal/geo"
	"github.com/alertachile/monitor/internal/models"
)

// DefaultAlberguesURL lists official emergency shelters as a static
// HTML table.
const DefaultAlberguesURL = "https://senapred.cl/albergues-emergencia/"

// AlberguesSource scrapes the official shelter registry. Rows carry no
// coordinates, so each shelter is pinned to its comuna centroid.
type AlberguesSource struct {
	client    *Client
	logger    *slog.Logger
	gazetteer *geo.Gazetteer
	url       string
}

func NewAlberguesSource(client *Client, gazetteer *geo.Gazetteer, logger *slog.Logger) *AlberguesSource {
	return &AlberguesSource{
		client:    client,
		logger:    logger,
		gazetteer: gazetteer,
		url:       DefaultAlberguesURL,
	}
}

func (s *AlberguesSource) SetURL(url string) { s.url = url }

func (s *AlberguesSource) Name() string { return "senapred-albergues" }

// Fetch returns the current shelter listing. Rows whose comuna cannot
// be geocoded are skipped; a shelter without coordinates cannot serve
// proximity queries.
func (s *AlberguesSource) Fetch(ctx context.Context) ([]models.Refugio, error) {
	body, err := s.client.Get(ctx, s.url)
	if err != nil {
		return nil, fmt.Errorf("fetching albergues: %w", err)
	}

	rows, err := parseShelterTable(body)
	if err != nil {
		return nil, fmt.Errorf("parsing albergues table: %w", err)
	}

	refugios := make([]models.Refugio, 0, len(rows))
	for _, row := range rows {
		place, ok := s.gazetteer.Find(row.Comuna)
		if !ok {
			s.logger.Debug("skipping shelter in unknown comuna",
				"comuna", row.Comuna, "lugar", row.Lugar)
			continue
		}

		capacidad, _ := strconv.Atoi(strings.TrimSpace(row.Capacidad))

		refugios = append(refugios, models.Refugio{
			Nombre:    row.Lugar,
			Tipo:      "oficial",
			Lat:       place.Lat,
			Lng:       place.Lng,
			Direccion: row.Direccion,
			Capacidad: capacidad,
			Region:    row.Region,
			Comuna:    row.Comuna,
			Activo:    !strings.EqualFold(strings.TrimSpace(row.Estado), "cerrado"),
			Fuente:    "SENAPRED",
		})
	}

	return refugios, nil
}

type shelterRow struct {
	Region    string
	Provincia string
	Comuna    string
	Lugar     string
	Direccion string
	Capacidad string
	Estado    string
}

// parseShelterTable extracts every tbody row with at least seven
// cells: región, provincia, comuna, lugar, dirección, capacidad,
// estado. Header rows repeated inside the body are dropped.
func parseShelterTable(page []byte) ([]shelterRow, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	var rows []shelterRow
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var cells []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && c.Data == "td" {
					cells = append(cells, nodeText(c))
				}
			}
			if len(cells) >= 7 && cells[0] != "" && !strings.EqualFold(cells[0], "Región") {
				rows = append(rows, shelterRow{
					Region:    cells[0],
					Provincia: cells[1],
					Comuna:    cells[2],
					Lugar:     cells[3],
					Direccion: cells[4],
					Capacidad: cells[5],
					Estado:    cells[6],
				})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return rows, nil
}
