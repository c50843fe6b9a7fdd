package memory

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/hamed0406/probeexporter/internal/domain"
	"github.com/hamed0406/probeexporter/internal/repo"
)

const shardCount = 16

type shard[R domain.Result] struct {
	mu      sync.RWMutex
	entries map[string]R
}

// Store is a lock-striped latest-result cache. Writers to different shards
// never contend; a key always lands on the same shard.
type Store[R domain.Result] struct {
	shards [shardCount]*shard[R]
}

func New[R domain.Result]() *Store[R] {
	s := &Store[R]{}
	for i := range s.shards {
		s.shards[i] = &shard[R]{entries: make(map[string]R)}
	}
	return s
}

func (s *Store[R]) shardFor(key string) *shard[R] {
	return s.shards[xxhash.Sum64String(key)%shardCount]
}

// Upsert replaces whatever was stored under key.
func (s *Store[R]) Upsert(key string, r R) {
	sh := s.shardFor(key)
	sh.mu.Lock()
	sh.entries[key] = r
	sh.mu.Unlock()
}

func (s *Store[R]) Get(key string) (R, bool) {
	sh := s.shardFor(key)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	r, ok := sh.entries[key]
	return r, ok
}

// Snapshot copies every entry. All shards are read-locked together so the
// copy reflects a single point in time.
func (s *Store[R]) Snapshot() map[string]R {
	for _, sh := range s.shards {
		sh.mu.RLock()
	}
	defer func() {
		for _, sh := range s.shards {
			sh.mu.RUnlock()
		}
	}()

	n := 0
	for _, sh := range s.shards {
		n += len(sh.entries)
	}
	out := make(map[string]R, n)
	for _, sh := range s.shards {
		for k, v := range sh.entries {
			out[k] = v
		}
	}
	return out
}

func (s *Store[R]) Len() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		n += len(sh.entries)
		sh.mu.RUnlock()
	}
	return n
}

// Find returns the first entry accepted by match. Iteration order is
// unspecified.
func (s *Store[R]) Find(match func(key string, r R) bool) (R, bool) {
	for _, sh := range s.shards {
		sh.mu.RLock()
		for k, v := range sh.entries {
			if match(k, v) {
				sh.mu.RUnlock()
				return v, true
			}
		}
		sh.mu.RUnlock()
	}
	var zero R
	return zero, false
}

var _ repo.ResultStore[domain.PortResult] = (*Store[domain.PortResult])(nil)
