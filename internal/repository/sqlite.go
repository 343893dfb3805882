package repository

import (
	"database/sql"
	"fmt"

	"github.com/jonboulle/clockwork"
	_ "modernc.org/sqlite"
)

// SQLiteDB implements Store on a single SQLite database. It relies on
// SQLite's upsert / insert-or-ignore conflict handling so the
// ingestion loop and the maintenance jobs can write concurrently.
type SQLiteDB struct {
	db    *sql.DB
	clock clockwork.Clock
}

func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	s := &SQLiteDB{
		db:    db,
		clock: clockwork.NewRealClock(),
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("error while migrating to database: %w", err)
	}

	return s, nil
}

// SetClock swaps the time source used for age cutoffs. Pass nil to
// reset to the real clock. Tests freeze time through this.
func (s *SQLiteDB) SetClock(c clockwork.Clock) {
	if c == nil {
		s.clock = clockwork.NewRealClock()
		return
	}
	s.clock = c
}

func (s *SQLiteDB) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS emergencies (
			id TEXT PRIMARY KEY,
			tipo TEXT NOT NULL,
			titulo TEXT NOT NULL,
			descripcion TEXT,
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			severidad TEXT NOT NULL,
			estado TEXT NOT NULL,
			fecha_inicio DATETIME NOT NULL,
			fecha_actualizacion DATETIME NOT NULL,
			fuente TEXT NOT NULL,
			metadata TEXT
		);

		CREATE TABLE IF NOT EXISTS emergencies_archive (
			id TEXT PRIMARY KEY,
			tipo TEXT NOT NULL,
			titulo TEXT NOT NULL,
			descripcion TEXT,
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			severidad TEXT NOT NULL,
			estado TEXT NOT NULL,
			fecha_inicio DATETIME NOT NULL,
			fecha_actualizacion DATETIME NOT NULL,
			fuente TEXT NOT NULL,
			metadata TEXT,
			archived_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS emergency_stats_daily (
			fecha TEXT PRIMARY KEY,
			total_emergencias INTEGER NOT NULL DEFAULT 0,
			sismos_count INTEGER NOT NULL DEFAULT 0,
			incendios_count INTEGER NOT NULL DEFAULT 0,
			alertas_count INTEGER NOT NULL DEFAULT 0,
			tsunamis_count INTEGER NOT NULL DEFAULT 0,
			severidad_critica INTEGER NOT NULL DEFAULT 0,
			severidad_alta INTEGER NOT NULL DEFAULT 0,
			severidad_media INTEGER NOT NULL DEFAULT 0,
			severidad_baja INTEGER NOT NULL DEFAULT 0,
			sismos_magnitud_max REAL,
			sismos_magnitud_avg REAL,
			incendios_superficie_total REAL,
			created_at DATETIME NOT NULL
		);

		CREATE TABLE IF NOT EXISTS weather_cache (
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			tipo TEXT NOT NULL,
			data TEXT NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			PRIMARY KEY (lat, lng, tipo)
		);

		CREATE TABLE IF NOT EXISTS refugios (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			nombre TEXT NOT NULL,
			tipo TEXT NOT NULL,
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			direccion TEXT,
			capacidad INTEGER,
			region TEXT,
			comuna TEXT,
			activo INTEGER NOT NULL DEFAULT 1,
			distancia_emergencia_mas_cercana REAL,
			fuente TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (fuente, nombre, comuna)
		);

		CREATE TABLE IF NOT EXISTS hospitals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			osm_id TEXT UNIQUE NOT NULL,
			nombre TEXT NOT NULL,
			tipo TEXT,
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			direccion TEXT,
			telefono TEXT,
			comuna TEXT,
			capacidad_camas INTEGER,
			urgencia INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_emergencies_tipo ON emergencies(tipo);
		CREATE INDEX IF NOT EXISTS idx_emergencies_estado ON emergencies(estado);
		CREATE INDEX IF NOT EXISTS idx_emergencies_fecha_actualizacion ON emergencies(fecha_actualizacion);
		CREATE INDEX IF NOT EXISTS idx_emergencies_lat_lng ON emergencies(lat, lng);
		CREATE INDEX IF NOT EXISTS idx_archive_fecha_inicio ON emergencies_archive(fecha_inicio);
		CREATE INDEX IF NOT EXISTS idx_archive_tipo ON emergencies_archive(tipo);
		CREATE INDEX IF NOT EXISTS idx_weather_cache_expires_at ON weather_cache(expires_at);
		CREATE INDEX IF NOT EXISTS idx_refugios_activo ON refugios(activo);
		CREATE INDEX IF NOT EXISTS idx_hospitals_lat_lng ON hospitals(lat, lng);
  	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}
