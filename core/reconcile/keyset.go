package reconcile

import (
	"sync"

	"github.com/zeebo/xxh3"
)

const keySetShards = 64

// KeySet is a set of match keys safe for concurrent insertion. Keys are
// spread over mutex-guarded shards by hash to keep contention low when many
// chunk workers record matches at once.
type KeySet struct {
	shards [keySetShards]keyShard
}

type keyShard struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

// NewKeySet creates an empty KeySet.
func NewKeySet() *KeySet {
	s := &KeySet{}
	for i := range s.shards {
		s.shards[i].keys = make(map[string]struct{})
	}
	return s
}

// Add inserts key. Adding an existing key is a no-op.
func (s *KeySet) Add(key string) {
	sh := s.shard(key)
	sh.mu.Lock()
	sh.keys[key] = struct{}{}
	sh.mu.Unlock()
}

// Contains reports whether key was added.
func (s *KeySet) Contains(key string) bool {
	sh := s.shard(key)
	sh.mu.RLock()
	_, ok := sh.keys[key]
	sh.mu.RUnlock()
	return ok
}

// Len returns the number of distinct keys.
func (s *KeySet) Len() int {
	n := 0
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.RLock()
		n += len(sh.keys)
		sh.mu.RUnlock()
	}
	return n
}

func (s *KeySet) shard(key string) *keyShard {
	return &s.shards[xxh3.HashString(key)%keySetShards]
}
