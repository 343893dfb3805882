package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/alertachile/monitor/internal/api"
	"github.com/alertachile/monitor/internal/config"
	"github.com/alertachile/monitor/internal/geo"
	"github.com/alertachile/monitor/internal/ingestion"
	"github.com/alertachile/monitor/internal/jobs"
	"github.com/alertachile/monitor/internal/logging"
	"github.com/alertachile/monitor/internal/observability"
	"github.com/alertachile/monitor/internal/repository"
	"github.com/alertachile/monitor/internal/scrape"
	"github.com/alertachile/monitor/internal/sources"
	"github.com/alertachile/monitor/internal/weather"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("loading config: %v", err)
	}
	logger := logging.Setup(cfg.Logging.Level)

	slog.Info("monitor starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("initializing database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	gazetteer := geo.NewGazetteer(geo.Comunas)
	client := sources.NewClient("upstream", sources.DefaultClientConfig(), logger)
	thresholds := severityThresholds(cfg.Severity)

	mgr := ingestion.NewManager(cfg, db, metrics, logger)
	registerSources(cfg, mgr, client, gazetteer, thresholds, logger)
	mgr.Start(ctx)

	scheduler := jobs.NewScheduler(cfg, db, metrics, logger)
	if err := scheduler.Start(); err != nil {
		logging.Fatalf("starting job scheduler: %v", err)
	}

	var weatherSvc *weather.Service
	if cfg.Weather.Enabled && cfg.Weather.APIKey != "" {
		weatherSvc = weather.NewService(client, db, cfg.Weather.APIKey, cfg.Weather.BaseURL, cfg.Weather.CacheTTL, logger)
	}

	renderer := scrape.NewRenderer(logger)
	defer renderer.Close()
	situacion := sources.NewSituacionScraper(renderer, cfg.Sources.ConafSituacionURL, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))
	router.Use(api.RateLimitMiddleware(5))

	handler := api.NewHandler(db, weatherSvc, situacion, nil, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	mgr.Stop()
	scheduler.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

func registerSources(cfg *config.Config, mgr *ingestion.Manager, client *sources.Client, gazetteer *geo.Gazetteer, thresholds sources.SeverityThresholds, logger *slog.Logger) {
	if cfg.Sources.SismosEnabled {
		src := sources.NewSismosSource(client, gazetteer, logger)
		src.SetURL(cfg.Sources.SismosURL)
		src.SetThresholds(thresholds)
		mgr.Register(src, 0)
	}
	if cfg.Sources.FIRMSEnabled {
		src := sources.NewFIRMSSource(client, cfg.Sources.FIRMSAPIKey, logger)
		src.SetThresholds(thresholds)
		mgr.Register(src, 0)
	}
	if cfg.Sources.TelegramEnabled {
		feed := sources.NewTelegramWebFeed(client, cfg.Sources.TelegramURL)
		mgr.Register(sources.NewTelegramSource(feed, gazetteer, logger), 0)
	}
	if cfg.Sources.ConafEnabled {
		src := sources.NewConafSource(client, logger)
		src.SetURL(cfg.Sources.ConafURL)
		src.SetThresholds(thresholds)
		mgr.Register(src, 0)
	}
	if cfg.Sources.AlberguesURL != "" {
		albergues := sources.NewAlberguesSource(client, gazetteer, logger)
		albergues.SetURL(cfg.Sources.AlberguesURL)
		mgr.SetAlbergues(albergues)
	}
}

func severityThresholds(s config.SeverityConfig) sources.SeverityThresholds {
	return sources.SeverityThresholds{
		SeismicCritica:  s.SeismicCritica,
		SeismicAlta:     s.SeismicAlta,
		SeismicMedia:    s.SeismicMedia,
		FRPCritica:      s.FRPCritica,
		FRPAlta:         s.FRPAlta,
		FRPMedia:        s.FRPMedia,
		HectaresCritica: s.HectaresCritica,
		HectaresAlta:    s.HectaresAlta,
		HectaresMedia:   s.HectaresMedia,
	}
}
