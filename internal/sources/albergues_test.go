package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertachile/monitor/internal/geo"
)

const alberguesPage = `<html><body><table>
<thead><tr><th>Región</th><th>Provincia</th><th>Comuna</th><th>Lugar</th><th>Dirección</th><th>Capacidad</th><th>Estado</th></tr></thead>
<tbody>
<tr><td>Región</td><td>Provincia</td><td>Comuna</td><td>Lugar</td><td>Dirección</td><td>Capacidad</td><td>Estado</td></tr>
<tr><td>Ñuble</td><td>Diguillín</td><td>Chillán</td><td>Gimnasio Municipal</td><td>Av. Libertad 750</td><td>200</td><td>Habilitado</td></tr>
<tr><td>Valparaíso</td><td>Marga Marga</td><td>Quilpué</td><td>Escuela República</td><td>Los Carrera 1024</td><td>150</td><td>Cerrado</td></tr>
<tr><td>Atlántida</td><td>-</td><td>Comuna Inexistente</td><td>Sede Social</td><td>-</td><td>50</td><td>Habilitado</td></tr>
<tr><td colspan="7">fila incompleta</td></tr>
</tbody>
</table></body></html>`

func TestAlberguesSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(alberguesPage))
	}))
	defer server.Close()

	src := NewAlberguesSource(testClient(t), geo.NewGazetteer(geo.Comunas), testLogger())
	src.SetURL(server.URL)

	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2, "repeated header, unknown comuna and short rows are dropped")

	chillan := got[0]
	assert.Equal(t, "Gimnasio Municipal", chillan.Nombre)
	assert.Equal(t, "oficial", chillan.Tipo)
	assert.Equal(t, "Chillán", chillan.Comuna)
	assert.Equal(t, 200, chillan.Capacidad)
	assert.True(t, chillan.Activo)
	assert.Equal(t, "SENAPRED", chillan.Fuente)
	assert.InDelta(t, -36.607, chillan.Lat, 0.01, "pinned to the comuna centroid")

	quilpue := got[1]
	assert.False(t, quilpue.Activo, "estado Cerrado deactivates the shelter")
}

func TestParseShelterTable_Empty(t *testing.T) {
	rows, err := parseShelterTable([]byte("<html><body><p>sin tabla</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, rows)
}
