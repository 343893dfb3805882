package models

import "time"

// Refugio is an emergency shelter. DistanciaEmergencia is derived by
// the maintenance job (nearest active emergency, km) and is nil when
// there are no active emergencies.
type Refugio struct {
	ID                  int64     `json:"id"`
	Nombre              string    `json:"nombre"`
	Tipo                string    `json:"tipo"` // "oficial" or "calculado"
	Lat                 float64   `json:"lat"`
	Lng                 float64   `json:"lng"`
	Direccion           string    `json:"direccion,omitempty"`
	Capacidad           int       `json:"capacidad,omitempty"`
	Region              string    `json:"region,omitempty"`
	Comuna              string    `json:"comuna,omitempty"`
	Activo              bool      `json:"activo"`
	DistanciaEmergencia *float64  `json:"distancia_emergencia_mas_cercana,omitempty"`
	Fuente              string    `json:"fuente"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Hospital is a healthcare facility synced from OpenStreetMap.
type Hospital struct {
	ID             int64     `json:"id"`
	OSMID          string    `json:"osm_id"`
	Nombre         string    `json:"nombre"`
	Tipo           string    `json:"tipo"` // hospital, clinic, ...
	Lat            float64   `json:"lat"`
	Lng            float64   `json:"lng"`
	Direccion      string    `json:"direccion,omitempty"`
	Telefono       string    `json:"telefono,omitempty"`
	Comuna         string    `json:"comuna,omitempty"`
	CapacidadCamas int       `json:"capacidad_camas,omitempty"`
	Urgencia       bool      `json:"urgencia"`
	UpdatedAt      time.Time `json:"updated_at"`
}
