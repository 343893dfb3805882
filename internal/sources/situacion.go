package sources

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/alertachile/monitor/internal/scrape"
)

// situacionWaitText is the fragment that signals the dashboard has
// finished hydrating; the page is an embedded report that renders
// entirely client-side.
const situacionWaitText = "Total Incendios"

// statLookahead bounds how many lines after a label we scan for its
// numeric value. The rendered text interleaves labels and figures with
// a handful of decorative lines in between.
const statLookahead = 10

var situacionLabels = []struct {
	key   string
	label string
}{
	{"total", "Total Incendios"},
	{"en_combate", "En Combate"},
	{"controlado", "Controlado"},
	{"bajo_observacion", "Bajo observación"},
}

var statValueRe = regexp.MustCompile(`^[\d,.]+$`)

// Situacion is the national wildfire situation summary. Values are
// kept as the dashboard prints them (thousand separators included);
// a stat absent from the page reads "N/A".
type Situacion struct {
	Total           string `json:"total"`
	EnCombate       string `json:"en_combate"`
	Controlado      string `json:"controlado"`
	BajoObservacion string `json:"bajo_observacion"`
}

// SituacionScraper reads the CONAF national situation dashboard. The
// page requires a real browser, so it goes through RenderedPageSource
// rather than the breaker client.
type SituacionScraper struct {
	page   scrape.RenderedPageSource
	logger *slog.Logger
	url    string
}

func NewSituacionScraper(page scrape.RenderedPageSource, url string, logger *slog.Logger) *SituacionScraper {
	return &SituacionScraper{
		page:   page,
		logger: logger.With("source", "conaf-situacion"),
		url:    url,
	}
}

func (s *SituacionScraper) Fetch(ctx context.Context) (*Situacion, error) {
	text, err := s.page.ExtractText(ctx, s.url, situacionWaitText)
	if err != nil {
		return nil, fmt.Errorf("rendering situation board: %w", err)
	}

	stats := extractSituacionStats(text)
	sit := &Situacion{
		Total:           stats["total"],
		EnCombate:       stats["en_combate"],
		Controlado:      stats["controlado"],
		BajoObservacion: stats["bajo_observacion"],
	}

	s.logger.Debug("situation board scraped",
		"total", sit.Total, "en_combate", sit.EnCombate)
	return sit, nil
}

// extractSituacionStats walks the rendered text line by line: for each
// known label, the first purely numeric line among the following few
// is taken as its value.
func extractSituacionStats(text string) map[string]string {
	var lines []string
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}

	stats := make(map[string]string, len(situacionLabels))
	for _, l := range situacionLabels {
		stats[l.key] = "N/A"
		for i, line := range lines {
			if !strings.Contains(line, l.label) {
				continue
			}
			rest := strings.TrimSpace(strings.TrimPrefix(line, l.label))
			if statValueRe.MatchString(rest) {
				stats[l.key] = rest
				break
			}
			for j := i + 1; j < len(lines) && j <= i+statLookahead; j++ {
				if statValueRe.MatchString(lines[j]) {
					stats[l.key] = lines[j]
					break
				}
			}
			break
		}
	}
	return stats
}
