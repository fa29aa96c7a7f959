package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kjstillabower/city-explorer/internal/models"
	"github.com/kjstillabower/city-explorer/internal/observability"
)

const createLocationsTable = `
CREATE TABLE IF NOT EXISTS locations (
	search_query    TEXT PRIMARY KEY,
	formatted_query TEXT NOT NULL,
	latitude        TEXT NOT NULL,
	longitude       TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const (
	selectLocation = `
SELECT search_query, formatted_query, latitude, longitude
FROM locations
WHERE search_query = $1`

	insertLocation = `
INSERT INTO locations (search_query, formatted_query, latitude, longitude)
VALUES ($1, $2, $3, $4)
ON CONFLICT (search_query) DO NOTHING
RETURNING search_query, formatted_query, latitude, longitude`
)

// PostgresStore implements LocationStore on the locations table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres opens a pool for dsn and pings it. maxOpenConns of zero keeps
// the default of 10.
func OpenPostgres(ctx context.Context, dsn string, maxOpenConns int) (*PostgresStore, error) {
	if dsn == "" {
		return nil, errors.New("postgres store: database URL is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if maxOpenConns <= 0 {
		maxOpenConns = 10
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxOpenConns / 2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, unavailable("ping postgres", err)
	}
	return &PostgresStore{db: db}, nil
}

// Migrate creates the locations table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createLocationsTable); err != nil {
		return fmt.Errorf("create locations table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Lookup(ctx context.Context, searchQuery string) (models.LocationRecord, bool, error) {
	start := time.Now()
	rec, ok, err := s.lookup(ctx, searchQuery)
	observability.ObserveStoreOp("lookup", start, err)
	return rec, ok, err
}

func (s *PostgresStore) lookup(ctx context.Context, searchQuery string) (models.LocationRecord, bool, error) {
	var rec models.LocationRecord
	err := s.db.QueryRowContext(ctx, selectLocation, searchQuery).
		Scan(&rec.SearchQuery, &rec.FormattedQuery, &rec.Latitude, &rec.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return models.LocationRecord{}, false, nil
	}
	if err != nil {
		return models.LocationRecord{}, false, unavailable("select location", err)
	}
	return rec, true, nil
}

// InsertIfAbsent inserts rec; on a primary-key conflict RETURNING yields no
// row and the existing record is read back instead.
func (s *PostgresStore) InsertIfAbsent(ctx context.Context, rec models.LocationRecord) (models.LocationRecord, error) {
	start := time.Now()
	stored, err := s.insertIfAbsent(ctx, rec)
	observability.ObserveStoreOp("insert", start, err)
	return stored, err
}

func (s *PostgresStore) insertIfAbsent(ctx context.Context, rec models.LocationRecord) (models.LocationRecord, error) {
	var stored models.LocationRecord
	err := s.db.QueryRowContext(ctx, insertLocation,
		rec.SearchQuery, rec.FormattedQuery, rec.Latitude, rec.Longitude,
	).Scan(&stored.SearchQuery, &stored.FormattedQuery, &stored.Latitude, &stored.Longitude)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.LocationRecord{}, unavailable("insert location", err)
	}

	existing, ok, err := s.lookup(ctx, rec.SearchQuery)
	if err != nil {
		return models.LocationRecord{}, err
	}
	if !ok {
		return models.LocationRecord{}, unavailable("insert location", errors.New("conflicting row not found"))
	}
	return existing, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping postgres", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
