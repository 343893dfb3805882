package sources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"golang.org/x/net/html"

	"github.com/alertachile/monitor/internal/geo"
	"github.com/alertachile/monitor/internal/models"
)

// DefaultTelegramURL is the public web mirror of the SENAPRED channel,
// readable without credentials.
const DefaultTelegramURL = "https://t.me/s/SenapredChile"

// maxFeedMessages bounds each poll to the most recent posts; the
// mirror page carries the channel tail anyway.
const maxFeedMessages = 20

// maxDescripcionLen caps stored descriptions, in runes; the full post
// survives in the metadata.
const maxDescripcionLen = 500

// Message is one post from a text feed.
type Message struct {
	Text string
	Time time.Time
}

// TextFeedSource abstracts where alert messages come from, so the
// classifier can be tested without the channel mirror.
type TextFeedSource interface {
	FetchRecentMessages(ctx context.Context) ([]Message, error)
}

// telegramWebFeed reads the channel's public HTML mirror.
type telegramWebFeed struct {
	client *Client
	url    string
}

func NewTelegramWebFeed(client *Client, url string) TextFeedSource {
	if url == "" {
		url = DefaultTelegramURL
	}
	return &telegramWebFeed{client: client, url: url}
}

func (f *telegramWebFeed) FetchRecentMessages(ctx context.Context) ([]Message, error) {
	body, err := f.client.Get(ctx, f.url)
	if err != nil {
		return nil, fmt.Errorf("fetching telegram channel: %w", err)
	}

	messages, err := parseTelegramPage(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing telegram page: %w", err)
	}
	if len(messages) > maxFeedMessages {
		messages = messages[len(messages)-maxFeedMessages:]
	}
	return messages, nil
}

// TelegramSource turns civil-protection posts from the SENAPRED
// channel into emergencies, classified by keyword.
type TelegramSource struct {
	feed      TextFeedSource
	logger    *slog.Logger
	clock     clockwork.Clock
	gazetteer *geo.Gazetteer
}

func NewTelegramSource(feed TextFeedSource, gazetteer *geo.Gazetteer, logger *slog.Logger) *TelegramSource {
	return &TelegramSource{
		feed:      feed,
		logger:    logger,
		clock:     clockwork.NewRealClock(),
		gazetteer: gazetteer,
	}
}

func (s *TelegramSource) SetClock(c clockwork.Clock) { s.clock = c }

func (s *TelegramSource) Name() string { return "senapred-telegram" }

func (s *TelegramSource) Fetch(ctx context.Context) ([]models.Emergency, error) {
	messages, err := s.feed.FetchRecentMessages(ctx)
	if err != nil {
		return nil, err
	}

	var emergencies []models.Emergency
	for _, msg := range messages {
		e, ok := s.classify(msg)
		if !ok {
			continue
		}
		emergencies = append(emergencies, e)
	}

	return dedupeByLocation(emergencies), nil
}

// classify turns one channel post into an emergency. Posts without an
// alert keyword or a recognizable comuna are dropped.
func (s *TelegramSource) classify(msg Message) (models.Emergency, bool) {
	lower := strings.ToLower(msg.Text)
	if !strings.Contains(lower, "senapred") &&
		!strings.Contains(lower, "alerta") &&
		!strings.Contains(lower, "evacuar") {
		return models.Emergency{}, false
	}

	place, ok := s.gazetteer.Find(msg.Text)
	if !ok {
		return models.Emergency{}, false
	}

	sector := extractSector(msg.Text)
	titulo := fmt.Sprintf("Alerta SENAPRED en %s", place.Nombre)
	if sector != "" {
		titulo = fmt.Sprintf("Alerta SENAPRED: %s, %s", sector, place.Nombre)
	}

	when := msg.Time
	if when.IsZero() {
		when = s.clock.Now()
	}

	descripcion := truncateRunes(msg.Text, maxDescripcionLen)

	meta := models.AlertMetadata{
		Comuna:          place.Nombre,
		Region:          place.Region,
		Sector:          sector,
		MensajeOriginal: msg.Text,
	}

	return models.Emergency{
		ID:                 fmt.Sprintf("senapred-tg-%d-%s", when.UnixMilli(), comunaSlug(place.Nombre)),
		Tipo:               AlertType(msg.Text),
		Titulo:             titulo,
		Descripcion:        descripcion,
		Lat:                place.Lat,
		Lng:                place.Lng,
		Severidad:          AlertSeverity(msg.Text),
		Estado:             models.EstadoActivo,
		FechaInicio:        when,
		FechaActualizacion: s.clock.Now(),
		Fuente:             "SENAPRED Telegram",
		Metadata:           meta.ToMap(),
	}, true
}

// AlertType infers the emergency type from the message wording,
// defaulting to a weather alert when nothing more specific matches.
func AlertType(text string) models.Tipo {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "incendio") || strings.Contains(lower, "fuego"):
		return models.TipoIncendio
	case strings.Contains(lower, "tsunami") || strings.Contains(lower, "maremoto"):
		return models.TipoTsunami
	case strings.Contains(lower, "sismo") || strings.Contains(lower, "terremoto"):
		return models.TipoSismo
	default:
		return models.TipoAlertaMeteor
	}
}

// AlertSeverity ranks the message by its strongest keyword.
func AlertSeverity(text string) models.Severidad {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "evacuar") ||
		strings.Contains(lower, "evacuación") ||
		strings.Contains(lower, "alerta roja"):
		return models.SeveridadCritica
	case strings.Contains(lower, "alerta") ||
		strings.Contains(lower, "advertencia") ||
		strings.Contains(lower, "precaución"):
		return models.SeveridadAlta
	case strings.Contains(lower, "aviso") ||
		strings.Contains(lower, "monitoreo"):
		return models.SeveridadMedia
	default:
		return models.SeveridadBaja
	}
}

var sectorPattern = regexp.MustCompile(`(?i)sector(?:es)?\s+([^,.]+(?:,\s*[^,.]+)*)`)

func extractSector(text string) string {
	m := sectorPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

var slugSpaces = regexp.MustCompile(`\s+`)

func comunaSlug(name string) string {
	return slugSpaces.ReplaceAllString(name, "-")
}

// dedupeByLocation collapses posts about the same place and type,
// keeping the most recent one. The channel reposts follow-ups for the
// same incident.
func dedupeByLocation(emergencies []models.Emergency) []models.Emergency {
	type key struct {
		lat, lng float64
		tipo     models.Tipo
	}
	byKey := make(map[key]int)
	out := make([]models.Emergency, 0, len(emergencies))
	for _, e := range emergencies {
		k := key{e.Lat, e.Lng, e.Tipo}
		if idx, seen := byKey[k]; seen {
			if e.FechaInicio.After(out[idx].FechaInicio) {
				out[idx] = e
			}
			continue
		}
		byKey[k] = len(out)
		out = append(out, e)
	}
	return out
}

// parseTelegramPage pulls message texts and their datetimes from the
// channel mirror. Each post nests its text in a div with the
// tgme_widget_message_text class and its timestamp in a time element.
func parseTelegramPage(r io.Reader) ([]Message, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var texts []string
	var times []time.Time

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "div":
				if hasClass(n, "tgme_widget_message_text") {
					if text := nodeText(n); len(text) > 20 {
						texts = append(texts, text)
					}
				}
			case "time":
				if dt := attr(n, "datetime"); dt != "" {
					if t, err := time.Parse(time.RFC3339, dt); err == nil {
						times = append(times, t)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	messages := make([]Message, len(texts))
	for i, text := range texts {
		messages[i].Text = text
		if i < len(times) {
			messages[i].Time = times[i]
		}
	}
	return messages, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText flattens a node's text content, with <br> as newlines.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && n.Data == "br":
			b.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}

// truncateRunes cuts s to at most n runes, never splitting a
// multi-byte character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
