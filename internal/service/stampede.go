package service

import (
	"sync"
)

// missTracker counts store misses in progress per search string. More than one
// active miss for the same string means concurrent first lookups raced.
type missTracker struct {
	mu     sync.Mutex
	active map[string]int
}

func newMissTracker() *missTracker {
	return &missTracker{
		active: make(map[string]int),
	}
}

// Begin records a miss for key and returns how many misses for key are now in
// progress, including this one. Callers defer End(key).
func (mt *missTracker) Begin(key string) int {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.active[key]++
	return mt.active[key]
}

// End marks one miss for key as resolved.
func (mt *missTracker) End(key string) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if count, ok := mt.active[key]; ok && count > 0 {
		mt.active[key]--
		if mt.active[key] == 0 {
			delete(mt.active, key)
		}
	}
}
