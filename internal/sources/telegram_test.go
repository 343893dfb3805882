package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertachile/monitor/internal/geo"
	"github.com/alertachile/monitor/internal/models"
)

type fakeFeed struct {
	messages []Message
}

func (f *fakeFeed) FetchRecentMessages(ctx context.Context) ([]Message, error) {
	return f.messages, nil
}

func newTelegramSource(feed TextFeedSource) *TelegramSource {
	src := NewTelegramSource(feed, geo.NewGazetteer(geo.Comunas), testLogger())
	src.SetClock(clockwork.NewFakeClockAt(time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)))
	return src
}

func TestTelegramSource_Classification(t *testing.T) {
	posted := time.Date(2026, 2, 10, 11, 30, 0, 0, time.UTC)
	feed := &fakeFeed{messages: []Message{
		{Text: "SENAPRED declara Alerta Roja para la comuna de Quilpué por incendio forestal, sector Los Molles. Evacuar de inmediato.", Time: posted},
	}}

	got, err := newTelegramSource(feed).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	alerta := got[0]
	assert.Equal(t, models.TipoIncendio, alerta.Tipo)
	assert.Equal(t, models.SeveridadCritica, alerta.Severidad)
	assert.Equal(t, "SENAPRED Telegram", alerta.Fuente)
	assert.Equal(t, "Quilpué", alerta.Metadata["comuna"])
	assert.Equal(t, "Valparaíso", alerta.Metadata["region"])
	assert.Equal(t, "Los Molles", alerta.Metadata["sector"])
	assert.InDelta(t, -33.047, alerta.Lat, 0.01)
	assert.Contains(t, alerta.ID, "senapred-tg-")
	assert.Contains(t, alerta.Titulo, "Los Molles")
}

func TestTelegramSource_TruncatesLongDescriptionOnRuneBoundary(t *testing.T) {
	posted := time.Date(2026, 2, 10, 11, 30, 0, 0, time.UTC)
	text := "SENAPRED declara alerta por incendio en Quilpué. " + strings.Repeat("ñ", 600)
	feed := &fakeFeed{messages: []Message{{Text: text, Time: posted}}}

	got, err := newTelegramSource(feed).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	desc := got[0].Descripcion
	assert.True(t, utf8.ValidString(desc))
	assert.Equal(t, 500, utf8.RuneCountInString(desc))
	assert.Equal(t, text, got[0].Metadata["mensaje_original"], "full post survives in metadata")
}

func TestTelegramSource_SkipsNonAlerts(t *testing.T) {
	feed := &fakeFeed{messages: []Message{
		{Text: "Buenos días a toda la comunidad de Santiago, les deseamos una excelente semana."},
		{Text: "SENAPRED informa monitoreo en una zona sin nombre reconocible."},
	}}

	got, err := newTelegramSource(feed).Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got, "posts without alert keywords or a known comuna are dropped")
}

func TestTelegramSource_DedupeKeepsLatest(t *testing.T) {
	earlier := time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)
	later := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	feed := &fakeFeed{messages: []Message{
		{Text: "SENAPRED: alerta por incendio en Temuco", Time: earlier},
		{Text: "SENAPRED: actualización de alerta por incendio en Temuco", Time: later},
	}}

	got, err := newTelegramSource(feed).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1, "same place and type collapse to one event")
	assert.Equal(t, later, got[0].FechaInicio)
}

func TestAlertType(t *testing.T) {
	tests := []struct {
		text string
		want models.Tipo
	}{
		{"incendio forestal en curso", models.TipoIncendio},
		{"amenaza de tsunami en el litoral", models.TipoTsunami},
		{"sismo de mayor intensidad", models.TipoSismo},
		{"viento y precipitaciones intensas", models.TipoAlertaMeteor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlertType(tt.text), tt.text)
	}
}

func TestAlertSeverity(t *testing.T) {
	tests := []struct {
		text string
		want models.Severidad
	}{
		{"se ordena evacuar el sector costero", models.SeveridadCritica},
		{"se declara alerta roja", models.SeveridadCritica},
		{"advertencia por vientos", models.SeveridadAlta},
		{"aviso de marejadas", models.SeveridadMedia},
		{"situación normalizada", models.SeveridadBaja},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlertSeverity(tt.text), tt.text)
	}
}

func TestTelegramWebFeed_ParsesChannelPage(t *testing.T) {
	page := `<html><body>
		<div class="tgme_widget_message">
			<div class="tgme_widget_message_text js-message_text">SENAPRED declara alerta por incendio<br/>en la comuna de Chillán Viejo</div>
			<time datetime="2026-02-10T09:15:00+00:00">9:15</time>
		</div>
		<div class="tgme_widget_message">
			<div class="tgme_widget_message_text js-message_text">corto</div>
			<time datetime="2026-02-10T10:00:00+00:00">10:00</time>
		</div>
	</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer server.Close()

	feed := NewTelegramWebFeed(testClient(t), server.URL)
	messages, err := feed.FetchRecentMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, messages, 1, "messages at or under 20 chars are noise")
	assert.Contains(t, messages[0].Text, "Chillán Viejo")
	assert.Contains(t, messages[0].Text, "\n", "br becomes newline")
	assert.Equal(t, time.Date(2026, 2, 10, 9, 15, 0, 0, time.UTC), messages[0].Time.UTC())
}

func TestGazetteerLongestMatch(t *testing.T) {
	// "Chillán Viejo" must win over plain "Chillán".
	g := geo.NewGazetteer(geo.Comunas)
	place, ok := g.Find("incendio en Chillán Viejo esta tarde")
	require.True(t, ok)
	assert.Equal(t, "Chillán Viejo", place.Nombre)
}
