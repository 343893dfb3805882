// Command syncpoi refreshes the healthcare-facility table from
// OpenStreetMap. It is a one-shot bootstrap meant to run occasionally
// (POIs change slowly), not a resident process.
package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/alertachile/monitor/internal/config"
	"github.com/alertachile/monitor/internal/logging"
	"github.com/alertachile/monitor/internal/models"
	"github.com/alertachile/monitor/internal/repository"
	"github.com/alertachile/monitor/internal/sources"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("loading config: %v", err)
	}
	logger := logging.Setup(cfg.Logging.Level)

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("initializing database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client := sources.NewOverpassClient(logger)
	facilities, err := client.FetchHospitals(ctx)
	if err != nil {
		logging.Fatalf("fetching hospitals: %v", err)
	}

	var stored int
	for _, f := range facilities {
		h := &models.Hospital{
			OSMID:          f.OSMID,
			Nombre:         f.Nombre,
			Tipo:           f.Tipo,
			Lat:            f.Lat,
			Lng:            f.Lng,
			Direccion:      f.Direccion,
			Telefono:       f.Telefono,
			Comuna:         f.Comuna,
			CapacidadCamas: f.Camas,
			Urgencia:       f.Urgencia,
		}
		if err := db.UpsertHospital(ctx, h); err != nil {
			logger.Error("storing hospital", "osm_id", f.OSMID, "error", err)
			continue
		}
		stored++
	}

	slog.Info("hospital sync complete", "fetched", len(facilities), "stored", stored)
}
