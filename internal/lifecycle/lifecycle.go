// Package lifecycle tracks whether the process is draining.
package lifecycle

import (
	"sync"
	"time"
)

var (
	mu           sync.RWMutex
	shuttingDown bool
	drainStarted time.Time
)

// SetShuttingDown flips the drain flag. /health reports shutting-down with a
// 503 while it is set. Setting it records when draining began; clearing it
// resets that time.
func SetShuttingDown(v bool) {
	mu.Lock()
	defer mu.Unlock()
	if v && !shuttingDown {
		drainStarted = time.Now()
	}
	if !v {
		drainStarted = time.Time{}
	}
	shuttingDown = v
}

// IsShuttingDown reports whether the process should stop receiving traffic.
func IsShuttingDown() bool {
	mu.RLock()
	defer mu.RUnlock()
	return shuttingDown
}

// DrainDuration returns how long the process has been draining, or zero.
func DrainDuration() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	if !shuttingDown {
		return 0
	}
	return time.Since(drainStarted)
}
