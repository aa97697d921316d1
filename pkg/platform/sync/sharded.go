package sync

import (
	"hash/fnv"
	"strings"
	"sync"
)

const shardCount = 32

// ShardedMutex serializes work per key without a global lock.
// Keys are hashed onto a fixed set of mutexes, so two distinct keys may share a
// shard; callers must never hold two keys of the same ShardedMutex at once.
type ShardedMutex struct {
	shards [shardCount]sync.Mutex
}

// NewShardedMutex creates a new ShardedMutex.
func NewShardedMutex() *ShardedMutex {
	return &ShardedMutex{}
}

// Lock acquires the lock for the given key's shard.
func (m *ShardedMutex) Lock(key string) {
	m.shards[shardFor(key)].Lock()
}

// Unlock releases the lock for the given key's shard.
func (m *ShardedMutex) Unlock(key string) {
	m.shards[shardFor(key)].Unlock()
}

// WithLock runs fn while holding the key's shard.
func (m *ShardedMutex) WithLock(key string, fn func() error) error {
	m.Lock(key)
	defer m.Unlock(key)
	return fn()
}

// Key joins parts into a composite lock key.
func Key(parts ...string) string {
	return strings.Join(parts, "|")
}

// shardFor returns the shard index for the given key. Empty keys use shard 0.
func shardFor(key string) int {
	if key == "" {
		return 0
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % shardCount)
}
