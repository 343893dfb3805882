// Package weather serves current conditions, UV index and air quality
// by coordinate, with a storage-backed cache in front of the upstream
// API.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alertachile/monitor/internal/repository"
	"github.com/alertachile/monitor/internal/sources"
)

const (
	KindCurrent    = "current"
	KindUV         = "uv"
	KindAirQuality = "air_quality"
)

// Current is the subset of upstream weather fields the API exposes.
type Current struct {
	Temp        float64 `json:"temp"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	Pressure    int     `json:"pressure"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	WindSpeed   float64 `json:"wind_speed"`
	WindDeg     int     `json:"wind_deg"`
	Clouds      int     `json:"clouds"`
	Visibility  int     `json:"visibility"`
}

type UV struct {
	Value float64 `json:"value"`
	Date  string  `json:"date"`
}

type AirQuality struct {
	AQI  int     `json:"aqi"` // 1 (good) .. 5 (very poor)
	PM25 float64 `json:"pm2_5"`
	PM10 float64 `json:"pm10"`
	CO   float64 `json:"co"`
	NO2  float64 `json:"no2"`
	O3   float64 `json:"o3"`
	SO2  float64 `json:"so2"`
}

// Report bundles everything for one coordinate. Sections the upstream
// could not serve are nil.
type Report struct {
	Current    *Current    `json:"current"`
	UV         *UV         `json:"uv"`
	AirQuality *AirQuality `json:"air_quality"`
}

type Service struct {
	client  *sources.Client
	cache   repository.WeatherCacheRepository
	logger  *slog.Logger
	apiKey  string
	baseURL string
	ttl     time.Duration
}

func NewService(client *sources.Client, cache repository.WeatherCacheRepository, apiKey, baseURL string, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		client:  client,
		cache:   cache,
		logger:  logger,
		apiKey:  apiKey,
		baseURL: baseURL,
		ttl:     ttl,
	}
}

// Report fetches current conditions, UV and air quality for one
// coordinate. Each section is cached independently; a failing section
// comes back nil rather than failing the whole report.
func (s *Service) Report(ctx context.Context, lat, lng float64) *Report {
	r := &Report{}

	if current, err := s.CurrentWeather(ctx, lat, lng); err != nil {
		s.logger.Warn("current weather unavailable", "lat", lat, "lng", lng, "error", err)
	} else {
		r.Current = current
	}

	if uv, err := s.UVIndex(ctx, lat, lng); err != nil {
		s.logger.Warn("uv index unavailable", "lat", lat, "lng", lng, "error", err)
	} else {
		r.UV = uv
	}

	if air, err := s.AirQuality(ctx, lat, lng); err != nil {
		s.logger.Warn("air quality unavailable", "lat", lat, "lng", lng, "error", err)
	} else {
		r.AirQuality = air
	}

	return r
}

func (s *Service) CurrentWeather(ctx context.Context, lat, lng float64) (*Current, error) {
	var out Current
	err := s.cached(ctx, lat, lng, KindCurrent, &out, func(body []byte) (any, error) {
		var raw struct {
			Main struct {
				Temp      float64 `json:"temp"`
				FeelsLike float64 `json:"feels_like"`
				Humidity  int     `json:"humidity"`
				Pressure  int     `json:"pressure"`
			} `json:"main"`
			Weather []struct {
				Description string `json:"description"`
				Icon        string `json:"icon"`
			} `json:"weather"`
			Wind struct {
				Speed float64 `json:"speed"`
				Deg   int     `json:"deg"`
			} `json:"wind"`
			Clouds struct {
				All int `json:"all"`
			} `json:"clouds"`
			Visibility int `json:"visibility"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, err
		}
		c := Current{
			Temp:       raw.Main.Temp,
			FeelsLike:  raw.Main.FeelsLike,
			Humidity:   raw.Main.Humidity,
			Pressure:   raw.Main.Pressure,
			WindSpeed:  raw.Wind.Speed,
			WindDeg:    raw.Wind.Deg,
			Clouds:     raw.Clouds.All,
			Visibility: raw.Visibility,
		}
		if len(raw.Weather) > 0 {
			c.Description = raw.Weather[0].Description
			c.Icon = raw.Weather[0].Icon
		}
		return &c, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) UVIndex(ctx context.Context, lat, lng float64) (*UV, error) {
	var out UV
	err := s.cached(ctx, lat, lng, KindUV, &out, func(body []byte) (any, error) {
		var raw struct {
			Value   float64 `json:"value"`
			DateISO string  `json:"date_iso"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, err
		}
		return &UV{Value: raw.Value, Date: raw.DateISO}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) AirQuality(ctx context.Context, lat, lng float64) (*AirQuality, error) {
	var out AirQuality
	err := s.cached(ctx, lat, lng, KindAirQuality, &out, func(body []byte) (any, error) {
		var raw struct {
			List []struct {
				Main struct {
					AQI int `json:"aqi"`
				} `json:"main"`
				Components struct {
					PM25 float64 `json:"pm2_5"`
					PM10 float64 `json:"pm10"`
					CO   float64 `json:"co"`
					NO2  float64 `json:"no2"`
					O3   float64 `json:"o3"`
					SO2  float64 `json:"so2"`
				} `json:"components"`
			} `json:"list"`
		}
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, err
		}
		if len(raw.List) == 0 {
			return nil, fmt.Errorf("empty air quality response")
		}
		first := raw.List[0]
		return &AirQuality{
			AQI:  first.Main.AQI,
			PM25: first.Components.PM25,
			PM10: first.Components.PM10,
			CO:   first.Components.CO,
			NO2:  first.Components.NO2,
			O3:   first.Components.O3,
			SO2:  first.Components.SO2,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// cached looks the section up in the weather cache and, on a miss,
// fetches upstream, stores the normalized payload, and fills dst.
func (s *Service) cached(ctx context.Context, lat, lng float64, kind string, dst any, parse func([]byte) (any, error)) error {
	payload, hit, err := s.cache.GetCached(ctx, lat, lng, kind)
	if err != nil {
		return fmt.Errorf("weather cache lookup: %w", err)
	}
	if hit {
		return json.Unmarshal(payload, dst)
	}

	body, err := s.client.Get(ctx, s.endpoint(kind, lat, lng))
	if err != nil {
		return fmt.Errorf("fetching %s: %w", kind, err)
	}

	parsed, err := parse(body)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", kind, err)
	}

	normalized, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("encoding %s for cache: %w", kind, err)
	}
	if err := s.cache.SetCached(ctx, lat, lng, kind, normalized, s.ttl); err != nil {
		// A write failure only costs the next caller a refetch.
		s.logger.Warn("weather cache write failed", "kind", kind, "error", err)
	}

	return json.Unmarshal(normalized, dst)
}

func (s *Service) endpoint(kind string, lat, lng float64) string {
	switch kind {
	case KindUV:
		return fmt.Sprintf("%s/data/2.5/uvi?lat=%f&lon=%f&appid=%s", s.baseURL, lat, lng, s.apiKey)
	case KindAirQuality:
		return fmt.Sprintf("%s/data/2.5/air_pollution?lat=%f&lon=%f&appid=%s", s.baseURL, lat, lng, s.apiKey)
	default:
		return fmt.Sprintf("%s/data/2.5/weather?lat=%f&lon=%f&appid=%s&units=metric&lang=es", s.baseURL, lat, lng, s.apiKey)
	}
}
