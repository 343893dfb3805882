// Package geo holds the geospatial helpers the rest of the pipeline
// leans on: great-circle distance, Chilean territory bounds, and an
// approximate latitude-banded region lookup.
package geo

import "math"

const earthRadiusKm = 6371

// HaversineKm returns the great-circle distance in kilometers between
// two WGS84 coordinates.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLng := radians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * (math.Pi / 180)
}

// InChile reports whether a coordinate falls inside Chilean territory:
// the continental strip, Rapa Nui, the Antarctic claim, and the
// Magallanes "tail" that reaches east past the Andes line. The rules
// are latitude bands with an eastern longitude cutoff; anything east
// of the cutoff is Argentina or Bolivia.
func InChile(lat, lng float64) bool {
	// Rapa Nui
	if lat > -28 && lat < -26 && lng > -110 && lng < -108 {
		return true
	}

	// Antarctic claim (referential), between 53°W and 90°W.
	if lat < -60 {
		return lng < -53 && lng > -90
	}

	// North of the Peruvian border, or west of the continental coast,
	// is not Chile regardless of band.
	if lat > -17.4 || lng < -76.0 {
		return false
	}

	switch {
	case lat > -26: // Norte Grande (Arica, Tarapacá, Antofagasta)
		return lng < -66.8
	case lat > -32.3: // Norte Chico (Atacama, Coquimbo)
		return lng < -69.0
	case lat > -36: // Zona Central (Valparaíso, Metropolitana, O'Higgins, Maule)
		return lng < -69.5
	case lat > -40: // Zona Sur (Ñuble, Biobío, Araucanía)
		return lng < -70.5
	case lat > -44: // Los Ríos, Los Lagos
		return lng < -71.0
	case lat > -49: // Aysén
		return lng < -71.5
	default: // Magallanes, including the eastward tail
		return lng < -68.0
	}
}

// RegionAt resolves a coordinate to its administrative region name.
// It is an ordered first-match band table, not a polygon lookup, so
// results near region borders are approximate. Returns "" when the
// coordinate is outside Chile.
func RegionAt(lat, lng float64) string {
	if !InChile(lat, lng) {
		return ""
	}

	if lng < -100 {
		return "Rapa Nui"
	}
	if lat < -60 {
		return "Antártica Chilena"
	}

	switch {
	case lat > -20:
		return "Arica y Parinacota"
	case lat > -22:
		return "Tarapacá"
	case lat > -26.1:
		return "Antofagasta"
	case lat > -29.2:
		return "Atacama"
	case lat > -32.2:
		return "Coquimbo"
	case lat > -33.9:
		if lat > -33 {
			return "Valparaíso"
		}
		// Between -33 and -33.9 the Metropolitana sits inland of
		// Valparaíso; split on longitude.
		if lng > -71.2 {
			return "Metropolitana"
		}
		return "Valparaíso"
	case lat > -35.0:
		return "O'Higgins"
	case lat > -36.2:
		return "Maule"
	case lat > -36.7:
		return "Ñuble"
	case lat > -38.3:
		return "Biobío"
	case lat > -39.6:
		return "La Araucanía"
	case lat > -40.6:
		return "Los Ríos"
	case lat > -44:
		return "Los Lagos"
	case lat > -49:
		return "Aysén"
	default:
		return "Magallanes"
	}
}
