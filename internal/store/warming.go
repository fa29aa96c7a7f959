package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/city-explorer/internal/models"
	"github.com/kjstillabower/city-explorer/internal/observability"
)

// Resolver is implemented by the service layer's location resolver.
// Used by Warmer to avoid a circular dependency on the service package.
type Resolver interface {
	Resolve(ctx context.Context, searchQuery string) (models.LocationRecord, error)
}

// Warmer pre-populates the store by resolving a list of search strings.
type Warmer struct {
	resolver Resolver
	logger   *zap.Logger
}

func NewWarmer(resolver Resolver, logger *zap.Logger) *Warmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Warmer{resolver: resolver, logger: logger}
}

// Warm resolves each search string concurrently. Strings already stored cost
// one lookup; the rest go through the provider once and are persisted.
// Returns the joined errors of every failed string.
func (w *Warmer) Warm(ctx context.Context, searchQueries []string) error {
	start := time.Now()
	observability.LocationWarmingTotal.Inc()
	w.logger.Info("warming location store", zap.Int("locations", len(searchQueries)))

	var wg sync.WaitGroup
	errCh := make(chan error, len(searchQueries))
	for _, q := range searchQueries {
		wg.Add(1)
		go func(q string) {
			defer wg.Done()
			if _, err := w.resolver.Resolve(ctx, q); err != nil {
				errCh <- fmt.Errorf("warm %q: %w", q, err)
			}
		}(q)
	}
	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}
	duration := time.Since(start).Seconds()
	observability.LocationWarmingDurationSeconds.Observe(duration)
	w.logger.Info("location warming complete",
		zap.Int("locations", len(searchQueries)),
		zap.Int("errors", len(errs)),
		zap.Float64("duration_seconds", duration),
	)
	if len(errs) > 0 {
		observability.LocationWarmingErrorsTotal.Inc()
		return errors.Join(errs...)
	}
	return nil
}
