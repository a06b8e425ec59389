package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/platform/obs"
	"ev-route-planner/internal/ports"
	"fmt"
	"strings"
)

// SQL-backed implementation of the TripRepository port. The full trip is
// kept as a JSON document; the other columns exist for listing.
type SQLTripRepository struct {
	DB *sql.DB
	q  tripQueries
}

type tripQueries struct {
	upsert string
	get    string
	list   string
}

var _ ports.TripRepository = (*SQLTripRepository)(nil)

func NewSqliteTripRepository(db *sql.DB) *SQLTripRepository {
	return &SQLTripRepository{DB: db, q: tripQueries{
		upsert: `
		INSERT OR REPLACE INTO trips (
			id,
			origin,
			destination,
			status,
			created_at,
			payload
		)
		VALUES (?, ?, ?, ?, ?, ?);
		`,
		get: `
		SELECT payload
		FROM trips
		WHERE id = ?;
		`,
		list: `
		SELECT payload
		FROM trips
		ORDER BY created_at DESC, id
		LIMIT ?;
		`,
	}}
}

func NewPostgresTripRepository(db *sql.DB) *SQLTripRepository {
	return &SQLTripRepository{DB: db, q: tripQueries{
		upsert: `
		INSERT INTO trips (id, origin, destination, status, created_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET origin = EXCLUDED.origin,
			destination = EXCLUDED.destination,
			status = EXCLUDED.status,
			created_at = EXCLUDED.created_at,
			payload = EXCLUDED.payload;
		`,
		get: `
		SELECT payload
		FROM trips
		WHERE id = $1;
		`,
		list: `
		SELECT payload
		FROM trips
		ORDER BY created_at DESC, id
		LIMIT $1;
		`,
	}}
}

func (r *SQLTripRepository) SaveTrip(ctx context.Context, trip *domain.Trip) (err error) {
	defer obs.Time(ctx, "trips.Save")(&err)

	if r.DB == nil {
		return errors.New("trip repository: DB is nil")
	}
	if trip == nil || strings.TrimSpace(trip.ID) == "" {
		return errors.New("save trip: trip ID must not be empty")
	}

	payload, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("save trip %s: encode: %w", trip.ID, err)
	}

	_, err = r.DB.ExecContext(ctx, r.q.upsert,
		trip.ID,
		trip.Origin.Name,
		trip.Destination.Name,
		string(trip.Status),
		trip.CreatedAt.UnixMilli(),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("save trip %s: %w", trip.ID, err)
	}
	return nil
}

func (r *SQLTripRepository) GetTrip(ctx context.Context, id string) (*domain.Trip, error) {
	if r.DB == nil {
		return nil, errors.New("trip repository: DB is nil")
	}

	var payload []byte
	err := r.DB.QueryRowContext(ctx, r.q.get, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get trip %s: %w", id, domain.ErrTripNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get trip %s: query trips table: %w", id, err)
	}

	return decodeTrip(payload)
}

func (r *SQLTripRepository) ListTrips(ctx context.Context, limit int) ([]*domain.Trip, error) {
	if r.DB == nil {
		return nil, errors.New("trip repository: DB is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.DB.QueryContext(ctx, r.q.list, limit)
	if err != nil {
		return nil, fmt.Errorf("list trips: query trips table: %w", err)
	}
	defer rows.Close()

	trips := make([]*domain.Trip, 0, limit)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("list trips: scan row: %w", err)
		}
		t, err := decodeTrip(payload)
		if err != nil {
			return nil, fmt.Errorf("list trips: %w", err)
		}
		trips = append(trips, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trips: row iteration: %w", err)
	}

	return trips, nil
}

func decodeTrip(payload []byte) (*domain.Trip, error) {
	var t domain.Trip
	if err := json.Unmarshal(payload, &t); err != nil {
		return nil, fmt.Errorf("decode trip: %w", err)
	}
	return &t, nil
}
