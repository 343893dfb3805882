package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		wantKm                 float64
		tolKm                  float64
	}{
		{"same point", -33.45, -70.666, -33.45, -70.666, 0, 0.000001},
		{"santiago to valparaiso", -33.45, -70.666, -33.047, -71.613, 98.7, 2.0},
		{"one degree of latitude", 0, 0, 1, 0, 111.19, 0.1},
		{"arica to punta arenas", -18.479, -70.311, -53.154, -70.911, 3855, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.wantKm, got, tt.tolKm)
		})
	}
}

func TestHaversineKm_Symmetric(t *testing.T) {
	a := HaversineKm(-33.45, -70.666, -36.827, -73.05)
	b := HaversineKm(-36.827, -73.05, -33.45, -70.666)
	assert.True(t, math.Abs(a-b) < 1e-9)
}

func TestInChile(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     bool
	}{
		{"santiago", -33.45, -70.666, true},
		{"rapa nui", -27.11, -109.35, true},
		{"antarctic claim", -65.0, -60.0, true},
		{"punta arenas tail", -53.154, -70.911, true},
		{"mendoza argentina", -32.89, -68.84, false},
		{"buenos aires", -34.6, -58.38, false},
		{"mid pacific", 0, -150, false},
		{"la paz bolivia", -16.5, -68.15, false},
		{"neuquen argentina", -38.95, -68.06, false},
		{"lima peru", -12.05, -77.04, false},
		{"open ocean west of coast", -33.45, -80.0, false},
		{"ocean west of rapa nui box", -27.11, -120.0, false},
		{"antarctica east of claim", -65.0, -20.0, false},
		{"antarctica west of claim", -65.0, -120.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InChile(tt.lat, tt.lng))
		})
	}
}

func TestRegionAt(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng float64
		want     string
	}{
		{"santiago", -33.45, -70.65, "Metropolitana"},
		{"rapa nui", -27.11, -109.35, "Rapa Nui"},
		{"valparaiso coast", -33.047, -71.613, "Valparaíso"},
		{"arica", -18.479, -70.311, "Arica y Parinacota"},
		{"antofagasta", -23.65, -70.4, "Antofagasta"},
		{"chillan", -36.607, -72.103, "Ñuble"},
		{"concepcion", -36.827, -73.05, "Biobío"},
		{"temuco", -38.739, -72.598, "La Araucanía"},
		{"coyhaique", -45.571, -72.066, "Aysén"},
		{"punta arenas", -53.154, -70.911, "Magallanes"},
		{"antarctica", -65.0, -58.0, "Antártica Chilena"},
		{"outside chile", 0, -150, ""},
		{"argentina", -34.6, -58.38, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RegionAt(tt.lat, tt.lng))
		})
	}
}
