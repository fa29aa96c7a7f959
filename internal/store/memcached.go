package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/kjstillabower/city-explorer/internal/models"
	"github.com/kjstillabower/city-explorer/internal/observability"
)

const (
	keyPrefix = "location:"
	// memcached rejects keys longer than this.
	maxKeyLen = 250
)

// MemcachedStore implements LocationStore on memcached. Items are written
// without expiration; Add gives insert-if-absent semantics.
type MemcachedStore struct {
	client *memcache.Client
}

// NewMemcachedStore creates a MemcachedStore. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// use package defaults if zero.
func NewMemcachedStore(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedStore, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedStore{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// itemKey maps a search string to a legal memcached key. Search strings may
// hold spaces or be arbitrarily long, so they are escaped and, past the key
// limit, hashed.
func itemKey(searchQuery string) string {
	k := keyPrefix + url.QueryEscape(searchQuery)
	if len(k) <= maxKeyLen {
		return k
	}
	sum := sha256.Sum256([]byte(searchQuery))
	return keyPrefix + "sha256:" + hex.EncodeToString(sum[:])
}

func (s *MemcachedStore) Lookup(ctx context.Context, searchQuery string) (models.LocationRecord, bool, error) {
	start := time.Now()
	rec, ok, err := s.get(ctx, searchQuery)
	observability.ObserveStoreOp("lookup", start, err)
	return rec, ok, err
}

func (s *MemcachedStore) get(ctx context.Context, searchQuery string) (models.LocationRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.LocationRecord{}, false, unavailable("memcached get", err)
	}
	item, err := s.client.Get(itemKey(searchQuery))
	if err != nil {
		if errors.Is(err, memcache.ErrCacheMiss) {
			return models.LocationRecord{}, false, nil
		}
		return models.LocationRecord{}, false, unavailable("memcached get", err)
	}
	var rec models.LocationRecord
	if err := json.Unmarshal(item.Value, &rec); err != nil {
		return models.LocationRecord{}, false, unavailable("decode stored location", err)
	}
	return rec, true, nil
}

// InsertIfAbsent uses Add so only the first writer for a key succeeds; later
// writers read back the stored record.
func (s *MemcachedStore) InsertIfAbsent(ctx context.Context, rec models.LocationRecord) (models.LocationRecord, error) {
	start := time.Now()
	stored, err := s.insertIfAbsent(ctx, rec)
	observability.ObserveStoreOp("insert", start, err)
	return stored, err
}

func (s *MemcachedStore) insertIfAbsent(ctx context.Context, rec models.LocationRecord) (models.LocationRecord, error) {
	raw, err := json.Marshal(rec)
	if err != nil {
		return models.LocationRecord{}, fmt.Errorf("encode location: %w", err)
	}
	// A second attempt covers the item being evicted between Add and Get.
	for attempt := 0; attempt < 2; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.LocationRecord{}, unavailable("memcached add", err)
		}
		err := s.client.Add(&memcache.Item{Key: itemKey(rec.SearchQuery), Value: raw})
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, memcache.ErrNotStored) {
			return models.LocationRecord{}, unavailable("memcached add", err)
		}
		existing, ok, err := s.get(ctx, rec.SearchQuery)
		if err != nil {
			return models.LocationRecord{}, err
		}
		if ok {
			return existing, nil
		}
	}
	return models.LocationRecord{}, unavailable("memcached add", errors.New("record vanished after conflict"))
}

// Ping checks if memcached is reachable. Used for health checks.
func (s *MemcachedStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return unavailable("memcached ping", err)
	}
	if err := s.client.Ping(); err != nil {
		return unavailable("memcached ping", err)
	}
	return nil
}

// Close closes the memcached client connections. Call during shutdown.
func (s *MemcachedStore) Close() error {
	return s.client.Close()
}
