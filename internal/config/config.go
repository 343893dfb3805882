package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Worker   WorkerConfig
	Sources  SourcesConfig
	Severity SeverityConfig
	Jobs     JobsConfig
	Weather  WeatherConfig
	DB       DatabaseConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type SourcesConfig struct {
	PollInterval time.Duration

	SismosEnabled bool
	SismosURL     string
	// MinMagnitude filters micro-seisms out of the active set.
	MinMagnitude float64

	FIRMSEnabled bool
	FIRMSAPIKey  string

	TelegramEnabled bool
	TelegramURL     string

	ConafEnabled bool
	ConafURL     string

	AlberguesURL string

	// ConafSituacionURL is the rendered dashboard read on demand by the
	// API, not polled.
	ConafSituacionURL string
}

// SeverityConfig holds the classification thresholds. They come from
// the upstream agencies' published scales and rarely change, but
// keeping them here means a recalibration is an env var, not a deploy.
type SeverityConfig struct {
	// Seismic magnitude tiers.
	SeismicCritica float64
	SeismicAlta    float64
	SeismicMedia   float64

	// Hotspot-cluster total FRP tiers (MW).
	FRPCritica float64
	FRPAlta    float64
	FRPMedia   float64

	// Managed-fire burned-area tiers (hectares).
	HectaresCritica float64
	HectaresAlta    float64
	HectaresMedia   float64
}

type JobsConfig struct {
	RetentionSchedule   string
	StatsSchedule       string
	MaintenanceSchedule string
	// ArchiveAge is how long an emergency stays in the active table
	// after its last update.
	ArchiveAge time.Duration
}

type WeatherConfig struct {
	Enabled  bool
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
}

type DatabaseConfig struct {
	Path string
}

type LoggingConfig struct {
	Level string
}

// Load reads configuration from the environment, after loading .env if
// present. Missing optional values fall back to defaults.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 50),
		},
		Sources: SourcesConfig{
			PollInterval:      getEnvDuration("SOURCE_POLL_INTERVAL", 5*time.Minute),
			SismosEnabled:     getEnvBool("SISMOS_ENABLED", true),
			SismosURL:         getEnv("SISMOS_URL", "https://api.gael.cloud/general/public/sismos"),
			MinMagnitude:      getEnvFloat("SISMOS_MIN_MAGNITUDE", 3.0),
			FIRMSEnabled:      getEnvBool("FIRMS_ENABLED", true),
			FIRMSAPIKey:       getEnv("FIRMS_API_KEY", ""),
			TelegramEnabled:   getEnvBool("TELEGRAM_ENABLED", true),
			TelegramURL:       getEnv("TELEGRAM_URL", "https://t.me/s/SenapredChile"),
			ConafEnabled:      getEnvBool("CONAF_ENABLED", true),
			ConafURL:          getEnv("CONAF_URL", "https://www.conaf.cl/api/rest/auxiliar/obtener_data_incendios"),
			AlberguesURL:      getEnv("ALBERGUES_URL", "https://senapred.cl/albergues-emergencia/"),
			ConafSituacionURL: getEnv("CONAF_SITUACION_URL", "https://www.conaf.cl/situacion-nacional-de-incendios-forestales/"),
		},
		Severity: SeverityConfig{
			SeismicCritica:  getEnvFloat("SEVERITY_SEISMIC_CRITICA", 7.0),
			SeismicAlta:     getEnvFloat("SEVERITY_SEISMIC_ALTA", 5.5),
			SeismicMedia:    getEnvFloat("SEVERITY_SEISMIC_MEDIA", 4.0),
			FRPCritica:      getEnvFloat("SEVERITY_FRP_CRITICA", 50),
			FRPAlta:         getEnvFloat("SEVERITY_FRP_ALTA", 20),
			FRPMedia:        getEnvFloat("SEVERITY_FRP_MEDIA", 5),
			HectaresCritica: getEnvFloat("SEVERITY_HECTARES_CRITICA", 10000),
			HectaresAlta:    getEnvFloat("SEVERITY_HECTARES_ALTA", 5000),
			HectaresMedia:   getEnvFloat("SEVERITY_HECTARES_MEDIA", 1000),
		},
		Jobs: JobsConfig{
			RetentionSchedule:   getEnv("JOBS_RETENTION_SCHEDULE", "@hourly"),
			StatsSchedule:       getEnv("JOBS_STATS_SCHEDULE", "0 0 * * *"),
			MaintenanceSchedule: getEnv("JOBS_MAINTENANCE_SCHEDULE", "@every 6h"),
			ArchiveAge:          getEnvDuration("JOBS_ARCHIVE_AGE", 24*time.Hour),
		},
		Weather: WeatherConfig{
			Enabled:  getEnvBool("WEATHER_ENABLED", true),
			APIKey:   getEnv("OPENWEATHER_API_KEY", ""),
			BaseURL:  getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
			CacheTTL: getEnvDuration("WEATHER_CACHE_TTL", 30*time.Minute),
		},
		DB: DatabaseConfig{
			Path: getEnv("DB_PATH", "./data/monitor.db"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Sources.PollInterval < time.Minute {
		return fmt.Errorf("source poll interval must be at least 1 minute")
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1")
	}
	if c.Jobs.ArchiveAge < time.Hour {
		return fmt.Errorf("archive age must be at least 1 hour")
	}

	if c.Severity.SeismicCritica <= c.Severity.SeismicAlta ||
		c.Severity.SeismicAlta <= c.Severity.SeismicMedia {
		return fmt.Errorf("seismic severity thresholds must be strictly decreasing")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
