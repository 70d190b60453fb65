// Package cache holds the transient per-session state: listing snapshots
// addressed by display index, and comment-mode bindings. Everything is in
// memory and evicted after a period of disuse.
package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	touched time.Time
}

// Store is a TTL map keyed by session key. The clock is injected so
// eviction is testable.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]entry[V]
	ttl     time.Duration
	now     func() time.Time
}

// NewStore creates a Store. A nil clock means time.Now.
func NewStore[V any](ttl time.Duration, now func() time.Time) *Store[V] {
	if now == nil {
		now = time.Now
	}
	return &Store[V]{entries: make(map[string]entry[V]), ttl: ttl, now: now}
}

// Put overwrites the whole entry for key.
func (s *Store[V]) Put(key string, v V) {
	s.mu.Lock()
	s.entries[key] = entry[V]{value: v, touched: s.now()}
	s.mu.Unlock()
}

// Get returns the entry for key. Expired entries read as absent.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok || s.expired(e) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Delete drops key.
func (s *Store[V]) Delete(key string) {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

// Len returns the number of entries, expired ones included until swept.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Sweep removes expired entries and returns how many were dropped.
func (s *Store[V]) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
			n++
		}
	}
	return n
}

func (s *Store[V]) expired(e entry[V]) bool {
	return s.ttl > 0 && s.now().Sub(e.touched) > s.ttl
}

// Sweeper is anything Run can sweep periodically.
type Sweeper interface {
	Sweep() int
}

// Run sweeps every interval until ctx is done.
func Run(ctx context.Context, interval time.Duration, sweepers ...Sweeper) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, s := range sweepers {
				s.Sweep()
			}
		}
	}
}
