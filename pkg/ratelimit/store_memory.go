package ratelimit

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a thread-safe in-memory implementation of Store.
//
// Timestamps for each key are kept in insertion order, which is also
// chronological because the Limiter always records "now". Memory is bounded by:
//   - lazy pruning of timestamps that fell out of the window on every check
//   - a maximum key count with LRU (least recently used) eviction
//   - periodic Cleanup of idle keys
type InMemoryStore struct {
	mu       sync.Mutex
	requests map[string]*timestampList
	maxKeys  int
	lruList  *lruList

	// onEvict is called with the number of keys evicted, outside no lock guarantees.
	onEvict func(n int)
}

// timestampList holds timestamps for a single key.
type timestampList struct {
	timestamps []time.Time
}

// lruList maintains a doubly-linked list of keys ordered by last access time.
type lruList struct {
	head *lruNode
	tail *lruNode
	keys map[string]*lruNode
}

// lruNode represents a node in the LRU list.
type lruNode struct {
	key  string
	prev *lruNode
	next *lruNode
}

// InMemoryStoreConfig holds configuration for InMemoryStore.
type InMemoryStoreConfig struct {
	// MaxKeys is the maximum number of keys to store in memory.
	// When this limit is reached, the least recently used keys are evicted.
	// Default: 10000
	MaxKeys int
}

// NewInMemoryStore creates a new in-memory store with the given configuration.
func NewInMemoryStore(config InMemoryStoreConfig) *InMemoryStore {
	if config.MaxKeys <= 0 {
		config.MaxKeys = 10000
	}

	return &InMemoryStore{
		requests: make(map[string]*timestampList),
		maxKeys:  config.MaxKeys,
		lruList:  newLRUList(),
	}
}

func newLRUList() *lruList {
	return &lruList{
		keys: make(map[string]*lruNode),
	}
}

// CheckAndAdd atomically prunes, checks the count against limit and records the request.
//
// The check and the add happen within a single lock acquisition, so concurrent
// callers cannot both observe "one slot left" and both be admitted.
func (s *InMemoryStore) CheckAndAdd(ctx context.Context, key string, timestamp, cutoff time.Time, limit int) (bool, int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tsList, exists := s.requests[key]
	if exists {
		tsList.timestamps = prune(tsList.timestamps, cutoff)
	}

	currentCount := 0
	if exists {
		currentCount = len(tsList.timestamps)
	}

	if currentCount >= limit {
		return false, currentCount, tsList.timestamps[0], nil
	}

	if !exists {
		if len(s.requests) >= s.maxKeys {
			s.evictLRU()
		}
		tsList = &timestampList{timestamps: make([]time.Time, 0, 16)}
		s.requests[key] = tsList
	}

	tsList.timestamps = append(tsList.timestamps, timestamp)
	s.lruList.touch(key)

	return true, len(tsList.timestamps), tsList.timestamps[0], nil
}

// Oldest returns the oldest timestamp after cutoff for key.
func (s *InMemoryStore) Oldest(ctx context.Context, key string, cutoff time.Time) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tsList, exists := s.requests[key]
	if !exists {
		return time.Time{}, false, nil
	}
	tsList.timestamps = prune(tsList.timestamps, cutoff)
	if len(tsList.timestamps) == 0 {
		return time.Time{}, false, nil
	}
	return tsList.timestamps[0], true, nil
}

// Cleanup removes expired request timestamps from storage.
//
// If a key has no remaining timestamps, the key is removed entirely.
func (s *InMemoryStore) Cleanup(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, tsList := range s.requests {
		tsList.timestamps = prune(tsList.timestamps, cutoff)
		if len(tsList.timestamps) == 0 {
			delete(s.requests, key)
			s.lruList.remove(key)
			removed++
		}
	}

	return removed, nil
}

// KeyCount returns the number of active keys currently in storage.
func (s *InMemoryStore) KeyCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.requests), nil
}

// prune drops timestamps at or before cutoff. Timestamps are chronological.
func prune(timestamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(timestamps) && !timestamps[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return timestamps
	}
	// copy so the backing array does not grow without bound
	return append(timestamps[:0:0], timestamps[i:]...)
}

// evictLRU evicts 10% of the keys, least recently used first.
//
// This method must be called while holding the lock.
func (s *InMemoryStore) evictLRU() {
	evictCount := s.maxKeys / 10
	if evictCount < 1 {
		evictCount = 1
	}

	evicted := 0
	for evicted < evictCount && s.lruList.tail != nil {
		key := s.lruList.tail.key
		delete(s.requests, key)
		s.lruList.remove(key)
		evicted++
	}

	if s.onEvict != nil && evicted > 0 {
		s.onEvict(evicted)
	}
}

// touch moves key to the front of the list, adding it if needed.
func (l *lruList) touch(key string) {
	if _, exists := l.keys[key]; exists {
		l.remove(key)
	}

	newNode := &lruNode{
		key:  key,
		next: l.head,
	}
	if l.head != nil {
		l.head.prev = newNode
	}
	l.head = newNode
	if l.tail == nil {
		l.tail = newNode
	}

	l.keys[key] = newNode
}

// remove removes a key from the LRU list.
func (l *lruList) remove(key string) {
	node, exists := l.keys[key]
	if !exists {
		return
	}

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	delete(l.keys, key)
}
