package service

import (
	"context"
	"sync"
	"time"

	"github.com/kjstillabower/city-explorer/internal/models"
)

// inFlightLookup is a single provider lookup that several callers may wait for.
type inFlightLookup struct {
	done   chan struct{}
	result models.LocationRecord
	err    error
}

// requestCoalescer collapses concurrent misses for the same search string onto
// one provider call and one store insert.
type requestCoalescer struct {
	mu       sync.Mutex
	inFlight map[string]*inFlightLookup
	timeout  time.Duration
}

func newRequestCoalescer(timeout time.Duration) *requestCoalescer {
	return &requestCoalescer{
		inFlight: make(map[string]*inFlightLookup),
		timeout:  timeout,
	}
}

// GetOrDo runs fn for key unless a call for key is already in flight, in which
// case it waits for that call's result. shared reports whether the result came
// from another caller's fn. Waiting is bounded by ctx and the coalescer timeout.
// fn runs detached from the caller's wait so a caller giving up does not
// abandon the other waiters; fn itself still receives ctx.
func (rc *requestCoalescer) GetOrDo(ctx context.Context, key string, fn func() (models.LocationRecord, error)) (rec models.LocationRecord, shared bool, err error) {
	rc.mu.Lock()
	call, exists := rc.inFlight[key]
	if !exists {
		call = &inFlightLookup{done: make(chan struct{})}
		rc.inFlight[key] = call
		rc.mu.Unlock()

		go func() {
			call.result, call.err = fn()
			rc.cleanup(key)
			close(call.done)
		}()
	} else {
		rc.mu.Unlock()
	}

	waitCtx := ctx
	if rc.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, rc.timeout)
		defer cancel()
	}

	select {
	case <-call.done:
		return call.result, exists, call.err
	case <-waitCtx.Done():
		return models.LocationRecord{}, exists, waitCtx.Err()
	}
}

// cleanup removes the in-flight entry for key once its call has finished.
func (rc *requestCoalescer) cleanup(key string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	delete(rc.inFlight, key)
}

// inFlightCount is used by tests.
func (rc *requestCoalescer) inFlightCount() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.inFlight)
}
