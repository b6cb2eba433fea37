package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	apperrors "github.com/morgankhalil/venueconnect/internal/errors"
	"github.com/morgankhalil/venueconnect/internal/tour"
)

// PostgresStore is a Postgres-backed Store using the pgx stdlib driver.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens and verifies a Postgres connection.
func OpenPostgres(databaseURL string, maxConns int) (*PostgresStore, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, apperrors.Wrap(err, "open postgres").WithComponent("store")
	}
	if maxConns <= 0 {
		maxConns = 10
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, apperrors.Wrap(err, "verify postgres connection").WithComponent("store")
	}
	return &PostgresStore{db: db}, nil
}

// Close releases the connection pool.
func (p *PostgresStore) Close() error { return p.db.Close() }

// GetTour implements Store.
func (p *PostgresStore) GetTour(ctx context.Context, id int64) (*tour.Tour, error) {
	const query = `
	SELECT id, name, artist_id, start_date, end_date,
	       total_distance_km, total_travel_time_min, optimization_score
	FROM tours WHERE id = $1`

	var t tour.Tour
	var start, end sql.NullTime
	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.Name, &t.ArtistID, &start, &end,
		&t.TotalDistanceKm, &t.TotalTravelTimeMin, &t.OptimizationScore)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "get tour %d", id).WithComponent("store")
	}
	t.StartDate = nullDay(start)
	t.EndDate = nullDay(end)
	return &t, nil
}

// GetArtist implements Store. Genres are stored comma-separated.
func (p *PostgresStore) GetArtist(ctx context.Context, id int64) (*tour.Artist, error) {
	const query = `SELECT id, name, COALESCE(genres, '') FROM artists WHERE id = $1`

	var a tour.Artist
	var genres string
	err := p.db.QueryRowContext(ctx, query, id).Scan(&a.ID, &a.Name, &genres)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, apperrors.Wrapf(err, "get artist %d", id).WithComponent("store")
	}
	for _, g := range strings.Split(genres, ",") {
		if g = strings.TrimSpace(g); g != "" {
			a.Genres = append(a.Genres, g)
		}
	}
	return &a, nil
}

// ListStops implements Store.
func (p *PostgresStore) ListStops(ctx context.Context, tourID int64) ([]*tour.Stop, error) {
	const query = `
	SELECT id, tour_id, venue_name, COALESCE(city, ''),
	       latitude, longitude, status, date, sequence
	FROM tour_stops
	WHERE tour_id = $1
	ORDER BY sequence, id`

	rows, err := p.db.QueryContext(ctx, query, tourID)
	if err != nil {
		return nil, apperrors.Wrapf(err, "list stops for tour %d", tourID).WithComponent("store")
	}
	defer rows.Close()

	var stops []*tour.Stop
	for rows.Next() {
		var s tour.Stop
		var lat, lon sql.NullFloat64
		var date sql.NullTime
		var status string
		if err := rows.Scan(&s.ID, &s.TourID, &s.VenueName, &s.City,
			&lat, &lon, &status, &date, &s.Sequence); err != nil {
			return nil, apperrors.Wrap(err, "scan stop row").WithComponent("store")
		}
		if lat.Valid {
			s.Latitude = &lat.Float64
		}
		if lon.Valid {
			s.Longitude = &lon.Float64
		}
		s.Status = tour.StopStatus(status)
		s.Date = nullDay(date)
		stops = append(stops, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "stop row iteration").WithComponent("store")
	}
	return stops, nil
}

// UpdateStopPlacement implements Store. Date and status are only written
// when provided so partial updates never blank existing values.
func (p *PostgresStore) UpdateStopPlacement(ctx context.Context, stopID int64, sequence int, date *tour.Day, status tour.StopStatus) error {
	const query = `
	UPDATE tour_stops
	SET sequence = $2,
	    date = COALESCE($3, date),
	    status = COALESCE(NULLIF($4, ''), status)
	WHERE id = $1`

	var dateVal interface{}
	if date != nil {
		dateVal = date.Time()
	}
	res, err := p.db.ExecContext(ctx, query, stopID, sequence, dateVal, string(status))
	if err != nil {
		return apperrors.Wrapf(err, "update stop %d placement", stopID).WithComponent("store")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateTourMetrics implements Store.
func (p *PostgresStore) UpdateTourMetrics(ctx context.Context, tourID int64, distanceKm, travelTimeMin float64, score int) error {
	const query = `
	UPDATE tours
	SET total_distance_km = $2, total_travel_time_min = $3, optimization_score = $4
	WHERE id = $1`

	res, err := p.db.ExecContext(ctx, query, tourID, distanceKm, travelTimeMin, score)
	if err != nil {
		return apperrors.Wrapf(err, "update tour %d metrics", tourID).WithComponent("store")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullDay(t sql.NullTime) *tour.Day {
	if !t.Valid {
		return nil
	}
	d := tour.DayOf(t.Time)
	return &d
}
