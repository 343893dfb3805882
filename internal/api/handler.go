// Package api exposes the read-only HTTP surface over the emergency
// store: listings, radius queries, shelters, hospitals, stats, weather
// and the CONAF situation board.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alertachile/monitor/internal/models"
	"github.com/alertachile/monitor/internal/repository"
	"github.com/alertachile/monitor/internal/sources"
	"github.com/alertachile/monitor/internal/weather"
)

// SituacionProvider is the slice of the CONAF scraper the API needs.
type SituacionProvider interface {
	Fetch(ctx context.Context) (*sources.Situacion, error)
}

type Handler struct {
	store     repository.Store
	weather   *weather.Service
	situacion SituacionProvider
	registry  *prometheus.Registry
	logger    *slog.Logger
}

// NewHandler builds the route handler. weather, situacion and registry
// may be nil; their routes then answer 503 (or default metrics).
func NewHandler(store repository.Store, weather *weather.Service, situacion SituacionProvider, registry *prometheus.Registry, logger *slog.Logger) *Handler {
	return &Handler{
		store:     store,
		weather:   weather,
		situacion: situacion,
		registry:  registry,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/metrics", h.metrics)

	api := r.Group("/api")
	api.GET("/emergencias", h.getEmergencias)
	api.GET("/emergencias/radius", h.getEmergenciasByRadius)
	api.GET("/emergencias/archive", h.getArchive)
	api.GET("/emergencias/geojson", h.getGeoJSON)
	api.GET("/refugios", h.getRefugios)
	api.GET("/hospitals/nearby", h.getHospitalsNearby)
	api.GET("/stats/daily", h.getDailyStats)
	api.GET("/weather", h.getWeather)
	api.GET("/conaf/situacion", h.getSituacion)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) metrics(c *gin.Context) {
	handler := promhttp.Handler()
	if h.registry != nil {
		handler = promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})
	}
	handler.ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) getEmergencias(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		emergencias []models.Emergency
		err         error
	)
	if tipo := c.Query("tipo"); tipo != "" {
		emergencias, err = h.store.ListByTipo(ctx, models.Tipo(tipo))
	} else {
		emergencias, err = h.store.ListActive(ctx)
	}
	if err != nil {
		h.serverError(c, "listing emergencies", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       len(emergencias),
		"emergencias": emergencias,
	})
}

func (h *Handler) getEmergenciasByRadius(c *gin.Context) {
	lat, lng, ok := coordParams(c)
	if !ok {
		return
	}

	radio := 50.0
	if r := c.Query("radio"); r != "" {
		v, err := strconv.ParseFloat(r, 64)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "radio must be a positive number of km"})
			return
		}
		radio = v
	}

	rows, err := h.store.ListByRadius(c.Request.Context(), lat, lng, radio)
	if err != nil {
		h.serverError(c, "radius query", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       len(rows),
		"radio_km":    radio,
		"emergencias": rows,
	})
}

func (h *Handler) getArchive(c *gin.Context) {
	days := intQuery(c, "days", 7, 90)

	rows, err := h.store.ListArchive(c.Request.Context(), days)
	if err != nil {
		h.serverError(c, "listing archive", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":       len(rows),
		"days":        days,
		"emergencias": rows,
	})
}

func (h *Handler) getGeoJSON(c *gin.Context) {
	emergencias, err := h.store.ListActive(c.Request.Context())
	if err != nil {
		h.serverError(c, "listing emergencies", err)
		return
	}

	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, toGeoJSON(emergencias))
}

func (h *Handler) getRefugios(c *gin.Context) {
	refugios, err := h.store.ListActiveRefugios(c.Request.Context())
	if err != nil {
		h.serverError(c, "listing shelters", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    len(refugios),
		"refugios": refugios,
	})
}

func (h *Handler) getHospitalsNearby(c *gin.Context) {
	lat, lng, ok := coordParams(c)
	if !ok {
		return
	}

	radio := 25.0
	if r := c.Query("radio"); r != "" {
		if v, err := strconv.ParseFloat(r, 64); err == nil && v > 0 {
			radio = v
		}
	}

	hospitals, err := h.store.ListHospitalsByRadius(c.Request.Context(), lat, lng, radio)
	if err != nil {
		h.serverError(c, "hospital query", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     len(hospitals),
		"radio_km":  radio,
		"hospitals": hospitals,
	})
}

func (h *Handler) getDailyStats(c *gin.Context) {
	days := intQuery(c, "days", 7, 365)

	stats, err := h.store.ListDailyStats(c.Request.Context(), days)
	if err != nil {
		h.serverError(c, "listing daily stats", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"days":  days,
		"stats": stats,
	})
}

func (h *Handler) getWeather(c *gin.Context) {
	if h.weather == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "weather service not configured"})
		return
	}

	lat, lng, ok := coordParams(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, h.weather.Report(c.Request.Context(), lat, lng))
}

func (h *Handler) getSituacion(c *gin.Context) {
	if h.situacion == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "situation scraper not configured"})
		return
	}

	sit, err := h.situacion.Fetch(c.Request.Context())
	if err != nil {
		h.serverError(c, "scraping situation board", err)
		return
	}

	c.JSON(http.StatusOK, sit)
}

// coordParams reads required lat/lng query params; on failure it
// writes the 400 itself and returns ok=false.
func coordParams(c *gin.Context) (lat, lng float64, ok bool) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat must be a number"})
		return 0, 0, false
	}
	lng, err = strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lng must be a number"})
		return 0, 0, false
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "coordinates out of range"})
		return 0, 0, false
	}
	return lat, lng, true
}

func intQuery(c *gin.Context, name string, def, max int) int {
	v := def
	if raw := c.Query(name); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= max {
			v = n
		}
	}
	return v
}

func (h *Handler) serverError(c *gin.Context, action string, err error) {
	h.logger.Error("request failed", "action", action, "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
