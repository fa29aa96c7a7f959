//go:build integration
// +build integration

package store

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/city-explorer/internal/models"
)

// TestPostgresStore_Integration verifies lookup, insert-if-absent and
// concurrent convergence against a real database.
func TestPostgresStore_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	ctx := context.Background()

	s, err := OpenPostgres(ctx, dsn, 4)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Migrate(ctx))

	q := fmt.Sprintf("integration-%d", time.Now().UnixNano())
	t.Cleanup(func() {
		_, _ = s.db.ExecContext(context.Background(), `DELETE FROM locations WHERE search_query = $1`, q)
	})

	_, ok, err := s.Lookup(ctx, q)
	require.NoError(t, err)
	assert.False(t, ok)

	var wg sync.WaitGroup
	results := make([]models.LocationRecord, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := models.LocationRecord{SearchQuery: q, FormattedQuery: fmt.Sprintf("place %d", i), Latitude: "1", Longitude: "2"}
			got, err := s.InsertIfAbsent(ctx, rec)
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	got, ok, err := s.Lookup(ctx, q)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, results[0], got)
}

func TestMemcachedStore_Integration(t *testing.T) {
	s, err := NewMemcachedStore("localhost:11211", 500*time.Millisecond, 2)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	if err := s.Ping(ctx); err != nil {
		t.Skipf("memcached not running: %v", err)
	}

	q := fmt.Sprintf("integration %d", time.Now().UnixNano())
	first := models.LocationRecord{SearchQuery: q, FormattedQuery: "first", Latitude: "1", Longitude: "2"}
	second := first
	second.FormattedQuery = "second"

	got, err := s.InsertIfAbsent(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, err = s.InsertIfAbsent(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	got, ok, err := s.Lookup(ctx, q)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, got)
}
