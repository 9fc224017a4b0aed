package dashboard

import (
	"sync"
	"time"
)

// SectionDataCache holds one entry per section for the page lifetime.
// Every invalidation bumps the entry version; a load that started under an
// older version is handed back to its caller but never written to the entry.
type SectionDataCache struct {
	maxAge  time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	data    SectionData
	version uint64
	stale   bool
	// loading is version+1 of the load that set CacheLoading, zero when idle.
	loading uint64
	prior   CacheState
}

// NewSectionDataCache builds a cache. A positive maxAge also expires ready
// entries by age; zero keeps them until invalidated.
func NewSectionDataCache(maxAge time.Duration) *SectionDataCache {
	return &SectionDataCache{
		maxAge:  maxAge,
		now:     time.Now,
		entries: make(map[string]*cacheEntry),
	}
}

// Get returns a snapshot of the entry for id.
func (c *SectionDataCache) Get(id string) (SectionData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	if !ok {
		return SectionData{SectionID: id, State: CacheEmpty}, false
	}
	return entry.data, true
}

// Fresh reports the entry when it is ready, not invalidated and not expired.
func (c *SectionDataCache) Fresh(id string) (SectionData, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[id]
	if !ok || entry.stale || entry.data.State != CacheReady {
		return SectionData{}, false
	}
	if c.maxAge > 0 && c.now().Sub(entry.data.FetchedAt) >= c.maxAge {
		return SectionData{}, false
	}
	return entry.data, true
}

// Version returns the current invalidation version for id.
func (c *SectionDataCache) Version(id string) uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.entries[id]; ok {
		return entry.version
	}
	return 0
}

// begin marks id as loading under version. Prior records stay visible.
func (c *SectionDataCache) begin(id string, version uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := c.entry(id)
	if entry.version != version {
		return
	}
	if entry.loading == 0 {
		entry.prior = entry.data.State
	}
	entry.loading = version + 1
	entry.data.State = CacheLoading
	entry.data.Err = nil
}

// complete stores a load result fetched under version and returns the entry.
// A result from a superseded version leaves the entry untouched and is only
// returned to the caller.
func (c *SectionDataCache) complete(id string, version uint64, records []Record, err error) SectionData {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry := c.entry(id)
	if entry.version != version {
		if entry.loading == version+1 {
			entry.data.State = entry.prior
			entry.loading = 0
		}
		late := SectionData{SectionID: id, FetchedAt: c.now(), State: CacheReady, Records: records}
		if err != nil {
			late = SectionData{SectionID: id, FetchedAt: late.FetchedAt, State: CacheError, Records: entry.data.Records, Err: err}
		}
		return late
	}
	entry.data.SectionID = id
	entry.data.FetchedAt = c.now()
	if err != nil {
		entry.data.State = CacheError
		entry.data.Err = err
	} else {
		entry.data.State = CacheReady
		entry.data.Records = records
		entry.data.Err = nil
	}
	entry.stale = false
	entry.loading = 0
	return entry.data
}

// Invalidate marks the given entries stale.
func (c *SectionDataCache) Invalidate(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		entry := c.entry(id)
		entry.version++
		entry.stale = true
	}
}

// Reset drops every entry. Used at logout.
func (c *SectionDataCache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]*cacheEntry)
	c.mu.Unlock()
}

// Len returns the number of tracked sections.
func (c *SectionDataCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *SectionDataCache) entry(id string) *cacheEntry {
	entry, ok := c.entries[id]
	if !ok {
		entry = &cacheEntry{data: SectionData{SectionID: id, State: CacheEmpty}}
		c.entries[id] = entry
	}
	return entry
}
