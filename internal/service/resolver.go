// Package service holds the request-level business logic: the cache-aside
// location resolver and the pass-through feeds for the other resource types.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/city-explorer/internal/client"
	"github.com/kjstillabower/city-explorer/internal/models"
	"github.com/kjstillabower/city-explorer/internal/normalize"
	"github.com/kjstillabower/city-explorer/internal/observability"
	"github.com/kjstillabower/city-explorer/internal/store"
)

// LocationResolver turns a search string into a LocationRecord using the
// cache-aside pattern: store first, geocoding provider on a miss, and the
// provider result persisted for later lookups.
type LocationResolver struct {
	geocoder      client.Fetcher
	store         store.LocationStore
	misses        *missTracker
	coalescer     *requestCoalescer
	fetchTimeout  time.Duration
	insertTimeout time.Duration
}

// NewLocationResolver creates a LocationResolver. On a miss the provider fetch
// is bounded by fetchTimeout and the store insert that follows gets its own
// insertTimeout, so a slow but successful fetch still leaves the insert its
// full budget. Coalesced callers wait up to the sum. Zero leaves that step
// bounded only by the caller's context.
func NewLocationResolver(geocoder client.Fetcher, s store.LocationStore, fetchTimeout, insertTimeout time.Duration) *LocationResolver {
	var wait time.Duration
	if fetchTimeout > 0 && insertTimeout > 0 {
		wait = fetchTimeout + insertTimeout
	}
	return &LocationResolver{
		geocoder:      geocoder,
		store:         s,
		misses:        newMissTracker(),
		coalescer:     newRequestCoalescer(wait),
		fetchTimeout:  fetchTimeout,
		insertTimeout: insertTimeout,
	}
}

// Resolve returns the stored record for searchQuery, resolving and storing it
// on first use. The key is the caller's string verbatim: no trimming, no case
// folding. Concurrent first lookups in this process share one provider call;
// across processes the store's insert-if-absent keeps one row per key.
func (r *LocationResolver) Resolve(ctx context.Context, searchQuery string) (models.LocationRecord, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	rec, ok, err := r.store.Lookup(ctx, searchQuery)
	if err != nil {
		return models.LocationRecord{}, fmt.Errorf("look up location %q: %w", searchQuery, err)
	}
	if ok {
		observability.LocationLookupsTotal.WithLabelValues("hit").Inc()
		logger.Debug("location served", zap.String("search_query", searchQuery), zap.Bool("cached", true), zap.Duration("duration", time.Since(start)))
		return rec, nil
	}
	observability.LocationLookupsTotal.WithLabelValues("miss").Inc()

	if concurrent := r.misses.Begin(searchQuery); concurrent > 1 {
		observability.ConcurrentMissesTotal.Inc()
		logger.Debug("concurrent location miss", zap.String("search_query", searchQuery), zap.Int("concurrent", concurrent))
	}
	defer r.misses.End(searchQuery)

	logger.Debug("location miss, fetching upstream", zap.String("search_query", searchQuery))

	// The lookup outlives a caller that hangs up so coalesced waiters still
	// get a result and the row still lands in the store.
	rec, shared, err := r.coalescer.GetOrDo(ctx, searchQuery, func() (models.LocationRecord, error) {
		return r.fetchAndStore(context.WithoutCancel(ctx), searchQuery)
	})
	if shared {
		observability.CoalescedLookupsTotal.Inc()
	}
	if err != nil {
		return models.LocationRecord{}, fmt.Errorf("resolve location %q: %w", searchQuery, err)
	}

	logger.Debug("location served", zap.String("search_query", searchQuery), zap.Bool("cached", false), zap.Bool("coalesced", shared), zap.Duration("duration", time.Since(start)))
	return rec, nil
}

func (r *LocationResolver) fetchAndStore(ctx context.Context, searchQuery string) (models.LocationRecord, error) {
	fetchCtx, cancelFetch := withOptionalTimeout(ctx, r.fetchTimeout)
	body, err := r.geocoder.Fetch(fetchCtx, url.Values{"q": {searchQuery}})
	cancelFetch()
	if err != nil {
		// LocationIQ answers 404 when nothing matches the query.
		var statusErr *client.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return models.LocationRecord{}, fmt.Errorf("%w: location: %w", models.ErrNoMatch, err)
		}
		return models.LocationRecord{}, err
	}

	rec, err := normalize.Location(searchQuery, body)
	if err != nil {
		return models.LocationRecord{}, err
	}

	insertCtx, cancelInsert := withOptionalTimeout(ctx, r.insertTimeout)
	defer cancelInsert()
	stored, err := r.store.InsertIfAbsent(insertCtx, rec)
	if err != nil {
		return models.LocationRecord{}, fmt.Errorf("store location: %w", err)
	}
	return stored, nil
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
