// Package store persists resolved locations keyed by the caller's original
// search string. Entries never expire.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kjstillabower/city-explorer/internal/models"
)

// LocationStore is the persistent location cache.
// Lookup matches search_query exactly. InsertIfAbsent stores rec unless a
// record with the same search_query exists, and returns whichever record is
// stored afterwards, so concurrent first lookups converge on one row.
type LocationStore interface {
	Lookup(ctx context.Context, searchQuery string) (models.LocationRecord, bool, error)
	InsertIfAbsent(ctx context.Context, rec models.LocationRecord) (models.LocationRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

const (
	BackendPostgres  = "postgres"
	BackendMemcached = "memcached"
	BackendInMemory  = "in_memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend string

	DatabaseURL  string
	MaxOpenConns int

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int
}

// Open builds the configured backend. Postgres is pinged and migrated before
// it is returned.
func Open(ctx context.Context, opts Options) (LocationStore, error) {
	switch opts.Backend {
	case BackendPostgres, "":
		s, err := OpenPostgres(ctx, opts.DatabaseURL, opts.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case BackendMemcached:
		return NewMemcachedStore(opts.MemcachedAddrs, opts.MemcachedTimeout, opts.MemcachedMaxIdleConns)
	case BackendInMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", models.ErrStoreUnavailable, op, err)
}
