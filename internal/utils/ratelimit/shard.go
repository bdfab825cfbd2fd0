package ratelimit

import (
	"hash/fnv"
	"sync"
)

const numShards = 64

// shard is a single partition of the sharded map.
type shard[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

// shardedMap is a concurrent map split into fixed shards to reduce lock contention.
type shardedMap[V any] struct {
	shards [numShards]shard[V]
}

func newShardedMap[V any]() *shardedMap[V] {
	var m shardedMap[V]
	for i := range m.shards {
		m.shards[i].items = make(map[string]V)
	}
	return &m
}

func (m *shardedMap[V]) getShard(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &m.shards[h.Sum32()%numShards]
}

// update replaces the value for key with fn(current, exists) while holding the
// shard lock, which makes read-modify-write sequences atomic per key.
func (m *shardedMap[V]) update(key string, fn func(cur V, ok bool) V) {
	s := m.getShard(key)
	s.mu.Lock()
	cur, ok := s.items[key]
	s.items[key] = fn(cur, ok)
	s.mu.Unlock()
}

// get returns the value for key and whether it existed.
func (m *shardedMap[V]) get(key string) (V, bool) {
	s := m.getShard(key)
	s.mu.Lock()
	v, ok := s.items[key]
	s.mu.Unlock()
	return v, ok
}

// deleteFunc iterates all shards and deletes entries for which fn returns true.
func (m *shardedMap[V]) deleteFunc(fn func(key string, v V) bool) int {
	removed := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for k, v := range s.items {
			if fn(k, v) {
				delete(s.items, k)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// len returns the number of entries across all shards.
func (m *shardedMap[V]) len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.items)
		s.mu.Unlock()
	}
	return n
}
