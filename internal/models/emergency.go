package models

import "time"

type Tipo string

const (
	TipoSismo        Tipo = "seismo"
	TipoIncendio     Tipo = "incendio_forestal"
	TipoTsunami      Tipo = "tsunami"
	TipoAlertaMeteor Tipo = "alerta_meteorologica"
)

type Severidad string

const (
	SeveridadBaja    Severidad = "baja"
	SeveridadMedia   Severidad = "media"
	SeveridadAlta    Severidad = "alta"
	SeveridadCritica Severidad = "critica"
)

// severidadRank orders severities so "at least" comparisons work.
var severidadRank = map[Severidad]int{
	SeveridadBaja:    0,
	SeveridadMedia:   1,
	SeveridadAlta:    2,
	SeveridadCritica: 3,
}

// AtLeast reports whether s is equal to or more severe than other.
func (s Severidad) AtLeast(other Severidad) bool {
	return severidadRank[s] >= severidadRank[other]
}

type Estado string

const (
	EstadoActivo     Estado = "activo"
	EstadoMonitoreo  Estado = "monitoreo"
	EstadoControlado Estado = "controlado"
	EstadoExtinguido Estado = "extinguido"
)

// Emergency is the canonical record every source adapter maps into.
// ID is deterministic per source + natural key, so re-ingesting the
// same real-world event converges onto a single row via upsert.
type Emergency struct {
	ID                 string         `json:"id"`
	Tipo               Tipo           `json:"tipo"`
	Titulo             string         `json:"titulo"`
	Descripcion        string         `json:"descripcion"`
	Lat                float64        `json:"lat"`
	Lng                float64        `json:"lng"`
	Severidad          Severidad      `json:"severidad"`
	Estado             Estado         `json:"estado"`
	FechaInicio        time.Time      `json:"fecha_inicio"`
	FechaActualizacion time.Time      `json:"fecha_actualizacion"`
	Fuente             string         `json:"fuente"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

type Coordinates struct {
	Lat float64
	Lng float64
}

func (e *Emergency) Coordinates() Coordinates {
	return Coordinates{Lat: e.Lat, Lng: e.Lng}
}
