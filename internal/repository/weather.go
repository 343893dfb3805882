package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Weather cache rows are keyed by (lat, lng, tipo); a second write for
// the same key refreshes the payload and expiry instead of stacking
// duplicate rows.

func (s *SQLiteDB) GetCached(ctx context.Context, lat, lng float64, kind string) ([]byte, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM weather_cache
		WHERE lat = ? AND lng = ? AND tipo = ? AND expires_at >= ?`,
		lat, lng, kind, s.clock.Now()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("error reading weather cache: %w", err)
	}
	return []byte(data), true, nil
}

func (s *SQLiteDB) SetCached(ctx context.Context, lat, lng float64, kind string, payload []byte, ttl time.Duration) error {
	now := s.clock.Now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO weather_cache (lat, lng, tipo, data, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(lat, lng, tipo) DO UPDATE SET
			data = excluded.data,
			expires_at = excluded.expires_at`,
		lat, lng, kind, string(payload), now.Add(ttl), now)
	if err != nil {
		return fmt.Errorf("error writing weather cache: %w", err)
	}
	return nil
}

func (s *SQLiteDB) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM weather_cache WHERE expires_at < ?`, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("error deleting expired weather cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error reading expired cache row count: %w", err)
	}
	return n, nil
}
