package geo

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Place is one gazetteer entry: a city or comuna with representative
// coordinates and its region.
type Place struct {
	Nombre string
	Lat    float64
	Lng    float64
	Region string
}

// Gazetteer is a best-effort place-name geocoder backed by a static
// table. Lookup is a normalized substring match, longest names first,
// so "alto hospicio" wins over "pica" inside the same text.
type Gazetteer struct {
	places []Place // sorted by descending name length
}

// NewGazetteer builds a gazetteer from the given places. The input
// slice is copied; callers may pass geo.Comunas or a test table.
func NewGazetteer(places []Place) *Gazetteer {
	sorted := make([]Place, len(places))
	copy(sorted, places)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Nombre) > len(sorted[j].Nombre)
	})
	return &Gazetteer{places: sorted}
}

// Find returns the first (longest-name) place whose name occurs in
// text, comparing accent-stripped lowercase forms.
func (g *Gazetteer) Find(text string) (Place, bool) {
	normalized := Normalize(text)
	for _, p := range g.places {
		if strings.Contains(normalized, Normalize(p.Nombre)) {
			return p, true
		}
	}
	return Place{}, false
}

// Normalize lowercases text, strips diacritics, and collapses
// punctuation to spaces so "Viña del Mar." matches "vina del mar".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		stripped = strings.ToLower(s)
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Comunas is the default gazetteer table: the main Chilean comunas
// and cities that show up in alert feeds and seismic bulletins.
// Coordinates are town centers, good enough for map placement.
var Comunas = []Place{
	{"Arica", -18.479, -70.311, "Arica y Parinacota"},
	{"Putre", -18.197, -69.558, "Arica y Parinacota"},
	{"Pisagua", -19.597, -70.212, "Tarapacá"},
	{"Iquique", -20.214, -70.152, "Tarapacá"},
	{"Alto Hospicio", -20.268, -70.102, "Tarapacá"},
	{"Pica", -20.489, -69.329, "Tarapacá"},
	{"Tocopilla", -22.092, -70.193, "Antofagasta"},
	{"Calama", -22.456, -68.929, "Antofagasta"},
	{"Mejillones", -23.1, -70.45, "Antofagasta"},
	{"Socaire", -23.583, -67.883, "Antofagasta"},
	{"Antofagasta", -23.65, -70.4, "Antofagasta"},
	{"Copiapó", -27.367, -70.332, "Atacama"},
	{"Vallenar", -28.576, -70.759, "Atacama"},
	{"La Serena", -29.907, -71.252, "Coquimbo"},
	{"Coquimbo", -29.953, -71.344, "Coquimbo"},
	{"Tongoy", -30.253, -71.497, "Coquimbo"},
	{"Ovalle", -30.601, -71.199, "Coquimbo"},
	{"Illapel", -31.634, -71.168, "Coquimbo"},
	{"San Felipe", -32.75, -70.726, "Valparaíso"},
	{"Los Andes", -32.833, -70.599, "Valparaíso"},
	{"Quillota", -32.883, -71.249, "Valparaíso"},
	{"Limache", -33.016, -71.268, "Valparaíso"},
	{"Viña del Mar", -33.024, -71.552, "Valparaíso"},
	{"Villa Alemana", -33.042, -71.374, "Valparaíso"},
	{"Quilpué", -33.047, -71.442, "Valparaíso"},
	{"Valparaíso", -33.047, -71.613, "Valparaíso"},
	{"Casablanca", -33.321, -71.407, "Valparaíso"},
	{"San Antonio", -33.593, -71.607, "Valparaíso"},
	{"Colina", -33.203, -70.674, "Metropolitana"},
	{"Las Condes", -33.417, -70.567, "Metropolitana"},
	{"Providencia", -33.427, -70.611, "Metropolitana"},
	{"Santiago", -33.45, -70.666, "Metropolitana"},
	{"Maipú", -33.511, -70.758, "Metropolitana"},
	{"San Bernardo", -33.592, -70.7, "Metropolitana"},
	{"Puente Alto", -33.612, -70.576, "Metropolitana"},
	{"Talagante", -33.665, -70.93, "Metropolitana"},
	{"Melipilla", -33.687, -71.213, "Metropolitana"},
	{"Buin", -33.732, -70.743, "Metropolitana"},
	{"Paine", -33.807, -70.738, "Metropolitana"},
	{"Rancagua", -34.17, -70.745, "O'Higgins"},
	{"Machalí", -34.179, -70.659, "O'Higgins"},
	{"Pichilemu", -34.387, -72.003, "O'Higgins"},
	{"Rengo", -34.402, -70.862, "O'Higgins"},
	{"San Fernando", -34.584, -70.989, "O'Higgins"},
	{"Santa Cruz", -34.639, -71.366, "O'Higgins"},
	{"Curicó", -34.983, -71.233, "Maule"},
	{"Molina", -35.114, -71.278, "Maule"},
	{"Constitución", -35.333, -72.416, "Maule"},
	{"Talca", -35.426, -71.655, "Maule"},
	{"Linares", -35.846, -71.593, "Maule"},
	{"Cauquenes", -35.967, -72.322, "Maule"},
	{"Cobquecura", -36.133, -72.783, "Ñuble"},
	{"San Carlos", -36.424, -71.959, "Ñuble"},
	{"Chillán Viejo", -36.622, -72.128, "Ñuble"},
	{"Chillán", -36.607, -72.103, "Ñuble"},
	{"Bulnes", -36.742, -72.298, "Ñuble"},
	{"Yungay", -37.121, -72.014, "Ñuble"},
	{"Tomé", -36.618, -72.956, "Biobío"},
	{"Talcahuano", -36.725, -73.117, "Biobío"},
	{"Hualpén", -36.796, -73.115, "Biobío"},
	{"Concepción", -36.827, -73.05, "Biobío"},
	{"San Pedro de la Paz", -36.856, -73.106, "Biobío"},
	{"Chiguayante", -36.924, -73.028, "Biobío"},
	{"Coronel", -37.029, -73.152, "Biobío"},
	{"Cabrero", -37.034, -72.404, "Biobío"},
	{"Lota", -37.089, -73.156, "Biobío"},
	{"Yumbel", -37.098, -72.568, "Biobío"},
	{"Arauco", -37.246, -73.317, "Biobío"},
	{"Laja", -37.278, -72.716, "Biobío"},
	{"Antuco", -37.333, -71.683, "Biobío"},
	{"Los Ángeles", -37.469, -72.353, "Biobío"},
	{"Nacimiento", -37.502, -72.674, "Biobío"},
	{"Lebu", -37.608, -73.654, "Biobío"},
	{"Santa Bárbara", -37.667, -72.017, "Biobío"},
	{"Mulchén", -37.719, -72.238, "Biobío"},
	{"Cañete", -37.801, -73.397, "Biobío"},
	{"Alto Biobío", -37.883, -71.417, "Biobío"},
	{"Angol", -37.795, -72.708, "La Araucanía"},
	{"Collipulli", -37.953, -72.433, "La Araucanía"},
	{"Purén", -38.028, -73.083, "La Araucanía"},
	{"Lumaco", -38.15, -72.9, "La Araucanía"},
	{"Victoria", -38.233, -72.333, "La Araucanía"},
	{"Traiguén", -38.25, -72.667, "La Araucanía"},
	{"Curacautín", -38.433, -71.883, "La Araucanía"},
	{"Lonquimay", -38.433, -71.25, "La Araucanía"},
	{"Galvarino", -38.417, -72.783, "La Araucanía"},
	{"Lautaro", -38.528, -72.433, "La Araucanía"},
	{"Temuco", -38.739, -72.598, "La Araucanía"},
	{"Nueva Imperial", -38.75, -72.967, "La Araucanía"},
	{"Padre Las Casas", -38.767, -72.6, "La Araucanía"},
	{"Carahue", -38.717, -73.167, "La Araucanía"},
	{"Melipeuco", -38.85, -71.7, "La Araucanía"},
	{"Cunco", -38.933, -72.033, "La Araucanía"},
	{"Freire", -38.95, -72.617, "La Araucanía"},
	{"Pitrufquén", -38.983, -72.65, "La Araucanía"},
	{"Villarrica", -39.286, -72.227, "La Araucanía"},
	{"Pucón", -39.282, -71.954, "La Araucanía"},
	{"Lanco", -39.45, -72.783, "Los Ríos"},
	{"Mariquina", -39.517, -72.967, "Los Ríos"},
	{"Panguipulli", -39.643, -72.334, "Los Ríos"},
	{"Máfil", -39.65, -72.95, "Los Ríos"},
	{"Valdivia", -39.814, -73.246, "Los Ríos"},
	{"Los Lagos", -39.85, -72.833, "Los Ríos"},
	{"Corral", -39.883, -73.433, "Los Ríos"},
	{"Paillaco", -40.067, -72.867, "Los Ríos"},
	{"Futrono", -40.133, -72.4, "Los Ríos"},
	{"La Unión", -40.295, -73.083, "Los Ríos"},
	{"Lago Ranco", -40.317, -72.5, "Los Ríos"},
	{"Río Bueno", -40.333, -72.95, "Los Ríos"},
	{"San Juan de la Costa", -40.517, -73.4, "Los Lagos"},
	{"Osorno", -40.574, -73.133, "Los Lagos"},
	{"Río Negro", -40.783, -73.217, "Los Lagos"},
	{"Purranque", -40.917, -73.167, "Los Lagos"},
	{"Puerto Octay", -40.967, -72.883, "Los Lagos"},
	{"Frutillar", -41.117, -73.05, "Los Lagos"},
	{"Fresia", -41.15, -73.417, "Los Lagos"},
	{"Llanquihue", -41.25, -73.017, "Los Lagos"},
	{"Puerto Varas", -41.321, -72.986, "Los Lagos"},
	{"Puerto Montt", -41.469, -72.937, "Los Lagos"},
	{"Maullín", -41.617, -73.6, "Los Lagos"},
	{"Calbuco", -41.767, -73.133, "Los Lagos"},
	{"Ancud", -41.867, -73.833, "Los Lagos"},
	{"Hualaihué", -42.033, -72.467, "Los Lagos"},
	{"Castro", -42.48, -73.765, "Los Lagos"},
	{"Chaitén", -42.917, -72.717, "Los Lagos"},
	{"Quellón", -43.117, -73.617, "Los Lagos"},
	{"Futaleufú", -43.183, -71.867, "Los Lagos"},
	{"Palena", -43.617, -71.8, "Los Lagos"},
	{"Puerto Aysén", -45.4, -72.7, "Aysén"},
	{"Coyhaique", -45.571, -72.066, "Aysén"},
	{"Chile Chico", -46.55, -71.733, "Aysén"},
	{"Cochrane", -47.25, -72.567, "Aysén"},
	{"Puerto Natales", -51.733, -72.517, "Magallanes"},
	{"Punta Arenas", -53.154, -70.911, "Magallanes"},
	{"Porvenir", -53.3, -70.367, "Magallanes"},
}

// SantiagoCentro is the fallback coordinate when a free-text location
// cannot be resolved against the gazetteer (seismic bulletins only;
// alert messages without a match are dropped instead).
var SantiagoCentro = Place{Nombre: "Santiago", Lat: -33.45, Lng: -70.666, Region: "Metropolitana"}
