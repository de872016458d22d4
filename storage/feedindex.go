package storage

import (
	"sort"
	"sync"
)

// FeedIndex is the bounded newest-N view the warning feed renders. It is a
// display-cap layered over the WarningStore, not a retention policy:
// evicting an id from the index removes it from the feed only, the store
// keeps the warning for audit and aggregation history.
//
// Entries order newest-first by event timestamp, ties broken by id
// ascending so the feed is stable across refreshes.
type FeedIndex struct {
	mu       sync.Mutex
	capacity int
	entries  []feedEntry
	present  map[string]bool
}

type feedEntry struct {
	id        string
	timestamp int64
}

// NewFeedIndex creates a feed index retaining at most capacity ids.
// A non-positive capacity means unbounded.
func NewFeedIndex(capacity int) *FeedIndex {
	return &FeedIndex{
		capacity: capacity,
		present:  make(map[string]bool),
	}
}

// Add registers a warning id with its event timestamp. Ids already in the
// index are ignored. Returns the ids evicted to stay within capacity.
func (f *FeedIndex) Add(id string, timestamp int64) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.present[id] {
		return nil
	}

	f.entries = append(f.entries, feedEntry{id: id, timestamp: timestamp})
	f.present[id] = true
	sort.Slice(f.entries, func(i, j int) bool {
		if f.entries[i].timestamp != f.entries[j].timestamp {
			return f.entries[i].timestamp > f.entries[j].timestamp
		}
		return f.entries[i].id < f.entries[j].id
	})

	if f.capacity <= 0 || len(f.entries) <= f.capacity {
		return nil
	}

	evicted := make([]string, 0, len(f.entries)-f.capacity)
	for _, e := range f.entries[f.capacity:] {
		delete(f.present, e.id)
		evicted = append(evicted, e.id)
	}
	f.entries = f.entries[:f.capacity]
	return evicted
}

// IDs returns the retained ids newest-first
func (f *FeedIndex) IDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	ids := make([]string, len(f.entries))
	for i, e := range f.entries {
		ids[i] = e.id
	}
	return ids
}

// Contains reports whether the id is currently in the feed view
func (f *FeedIndex) Contains(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.present[id]
}

// Len returns the number of ids currently retained
func (f *FeedIndex) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
