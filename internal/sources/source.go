package sources

import (
	"context"

	"github.com/alertachile/monitor/internal/models"
)

// Source is one upstream feed of emergency events. Fetch returns the
// current snapshot already normalized to models.Emergency; the caller
// handles dedup and persistence.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Emergency, error)
}
