package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alertachile/monitor/internal/models"
)

const firmsHeader = "latitude,longitude,bright_ti4,scan,track,acq_date,acq_time,satellite,instrument,confidence,version,bright_ti5,frp,daynight"

func TestParseFIRMSCSV(t *testing.T) {
	csv := firmsHeader + "\n" +
		`-36.601,-72.101,330.1,0.5,0.5,2026-02-10,0512,N,VIIRS,"n",2.0NRT,290.0,12.5,D` + "\n" +
		"-36.602,-72.102,340.5,0.5,0.5,2026-02-10,0512,N,VIIRS,h,2.0NRT,295.0,30.0,D\n" +
		"short,row\n" +
		"-34.500,-60.000,330.0,0.5,0.5,2026-02-10,0512,N,VIIRS,n,2.0NRT,290.0,5.0,D\n"

	hotspots := parseFIRMSCSV(csv)
	require.Len(t, hotspots, 2, "short rows and out-of-Chile rows are dropped")
	assert.Equal(t, "n", hotspots[0].Confidence, "quoted field is unwrapped")
	assert.Equal(t, 30.0, hotspots[1].FRP)
}

func TestParseFIRMSCSV_Empty(t *testing.T) {
	assert.Nil(t, parseFIRMSCSV(""))
	assert.Nil(t, parseFIRMSCSV(firmsHeader))
}

func TestClusterHotspots_Determinism(t *testing.T) {
	// Two detections ~1-2 km apart share a grid cell; a third ~50 km
	// south lands in its own.
	near1 := Hotspot{Lat: -36.601, Lng: -72.101, FRP: 10, AcqDate: "2026-02-10", Confidence: "n"}
	near2 := Hotspot{Lat: -36.608, Lng: -72.112, FRP: 25, AcqDate: "2026-02-10", Confidence: "n"}
	far := Hotspot{Lat: -37.05, Lng: -72.10, FRP: 5, AcqDate: "2026-02-10", Confidence: "l"}

	clusters := ClusterHotspots([]Hotspot{near1, near2, far})
	require.Len(t, clusters, 2)

	// Input order must not change the result.
	reversed := ClusterHotspots([]Hotspot{far, near2, near1})
	require.Len(t, reversed, 2)
	assert.Equal(t, clusters[0].Key, reversed[0].Key)
	assert.Equal(t, clusters[1].Key, reversed[1].Key)

	for _, c := range clusters {
		if len(c.Hotspots) == 2 {
			assert.Equal(t, 35.0, c.TotalFRP())
			assert.Equal(t, 25.0, c.Main().FRP, "highest-FRP detection is representative")
			lat, lng := c.Centroid()
			assert.InDelta(t, -36.6045, lat, 0.001)
			assert.InDelta(t, -72.1065, lng, 0.001)
		}
	}
}

func TestClusterKey_Stable(t *testing.T) {
	// The key doubles as part of the event ID, so its formatting must
	// never drift between runs.
	assert.Equal(t, ClusterKey(-36.601, -72.101), ClusterKey(-36.603, -72.104))
	assert.Equal(t, "-36.6,-72.1", ClusterKey(-36.601, -72.101))
}

func TestHotspotSeverity(t *testing.T) {
	tests := []struct {
		frp        float64
		confidence string
		want       models.Severidad
	}{
		{60, "n", models.SeveridadCritica},
		{10, "h", models.SeveridadCritica},
		{30, "n", models.SeveridadAlta},
		{10, "n", models.SeveridadMedia},
		{2, "l", models.SeveridadBaja},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HotspotSeverity(tt.frp, tt.confidence),
			"frp %.0f confidence %s", tt.frp, tt.confidence)
	}
}

func TestFIRMSSource_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only the continental box has detections; Rapa Nui is empty.
		if !strings.Contains(r.URL.Path, "-81,-56.5") {
			w.Write([]byte(firmsHeader + "\n"))
			return
		}
		w.Write([]byte(firmsHeader + "\n" +
			"-36.601,-72.101,330.1,0.5,0.5,2026-02-10,0512,N,VIIRS,n,2.0NRT,290.0,40.0,D\n" +
			"-36.603,-72.104,335.0,0.5,0.5,2026-02-10,0512,N,VIIRS,n,2.0NRT,291.0,20.0,D\n"))
	}))
	defer server.Close()

	src := NewFIRMSSource(testClient(t), "test-key", testLogger())
	src.SetBaseURL(server.URL)

	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1, "both detections collapse into one cluster")

	fire := got[0]
	assert.Equal(t, models.TipoIncendio, fire.Tipo)
	assert.Equal(t, models.SeveridadCritica, fire.Severidad, "total FRP 60 crosses the top threshold")
	assert.Equal(t, "NASA FIRMS", fire.Fuente)
	assert.Equal(t, "firms--36.6--72.1-2026-02-10", fire.ID)
	assert.Equal(t, 2, fire.Metadata["hotspots_count"])
	assert.Equal(t, "Ñuble", fire.Metadata["region"])
}

func TestFIRMSSource_NoAPIKey(t *testing.T) {
	src := NewFIRMSSource(testClient(t), "", testLogger())
	got, err := src.Fetch(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, got)
}
