package sources

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRenderedPage struct {
	text string
	err  error
	url  string
	wait string
}

func (f *fakeRenderedPage) ExtractText(_ context.Context, url, waitSubstring string) (string, error) {
	f.url = url
	f.wait = waitSubstring
	return f.text, f.err
}

func (f *fakeRenderedPage) Close() error { return nil }

const situacionBoardText = `Situación Nacional
Actualizado al 10-02-2026

Total Incendios
Temporada 2025-2026
5.912
En Combate
37
Controlado
12
Extinguido
5.863
Bajo observación
8
Superficie Afectada (ha)
98.432`

func TestSituacionScraper_Fetch(t *testing.T) {
	page := &fakeRenderedPage{text: situacionBoardText}
	s := NewSituacionScraper(page, "https://example.test/board", testLogger())

	sit, err := s.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "5.912", sit.Total)
	assert.Equal(t, "37", sit.EnCombate)
	assert.Equal(t, "12", sit.Controlado)
	assert.Equal(t, "8", sit.BajoObservacion)

	assert.Equal(t, "https://example.test/board", page.url)
	assert.Equal(t, "Total Incendios", page.wait)
}

func TestSituacionScraper_Fetch_RenderError(t *testing.T) {
	page := &fakeRenderedPage{err: errors.New("browser crashed")}
	s := NewSituacionScraper(page, "https://example.test/board", testLogger())

	_, err := s.Fetch(context.Background())
	require.Error(t, err)
}

func TestExtractSituacionStats_MissingLabel(t *testing.T) {
	stats := extractSituacionStats("Total Incendios\n120\nEn Combate\nsin datos")

	assert.Equal(t, "120", stats["total"])
	assert.Equal(t, "N/A", stats["en_combate"])
	assert.Equal(t, "N/A", stats["controlado"])
	assert.Equal(t, "N/A", stats["bajo_observacion"])
}

func TestExtractSituacionStats_ValueOnSameLine(t *testing.T) {
	stats := extractSituacionStats("En Combate 42\nControlado\n7")

	assert.Equal(t, "42", stats["en_combate"])
	assert.Equal(t, "7", stats["controlado"])
}
