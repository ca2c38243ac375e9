// Package observability tracks accessor lookup statistics for inspection and
// monitoring.
package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// LookupStats tracks per-sheet lookup hits, misses and rejected keys.
type LookupStats struct {
	mu     sync.RWMutex
	sheets map[string]*sheetCounters
	window time.Duration
}

type sheetCounters struct {
	hits     atomic.Int64
	misses   atomic.Int64
	invalid  atomic.Int64
	lastSeen atomic.Int64 // unix nanos
}

// SheetStats is a point-in-time copy of one sheet's counters.
type SheetStats struct {
	Sheet    string    `json:"sheet"`
	Hits     int64     `json:"hits"`
	Misses   int64     `json:"misses"`
	Invalid  int64     `json:"invalid"`
	LastSeen time.Time `json:"last_seen"`
}

// Total returns the number of lookups of every outcome.
func (s SheetStats) Total() int64 {
	return s.Hits + s.Misses + s.Invalid
}

// NewLookupStats creates a new lookup statistics tracker.
// window: idle time after which Prune drops a sheet (0 disables pruning)
func NewLookupStats(window time.Duration) *LookupStats {
	return &LookupStats{
		sheets: make(map[string]*sheetCounters),
		window: window,
	}
}

// RecordHit records a successful lookup on sheet.
// This method is safe for concurrent use; the common path takes only a read lock.
func (l *LookupStats) RecordHit(sheet string) {
	c := l.counters(sheet)
	c.hits.Add(1)
	c.lastSeen.Store(time.Now().UnixNano())
}

// RecordMiss records a lookup on sheet that found nothing.
func (l *LookupStats) RecordMiss(sheet string) {
	c := l.counters(sheet)
	c.misses.Add(1)
	c.lastSeen.Store(time.Now().UnixNano())
}

// RecordInvalid records a lookup whose key could not be converted to the
// sheet's key type. It is not counted as a miss.
func (l *LookupStats) RecordInvalid(sheet string) {
	c := l.counters(sheet)
	c.invalid.Add(1)
	c.lastSeen.Store(time.Now().UnixNano())
}

func (l *LookupStats) counters(sheet string) *sheetCounters {
	l.mu.RLock()
	c, ok := l.sheets[sheet]
	l.mu.RUnlock()
	if ok {
		return c
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok = l.sheets[sheet]; !ok {
		c = &sheetCounters{}
		l.sheets[sheet] = c
	}
	return c
}

// Get returns the counters of one sheet.
func (l *LookupStats) Get(sheet string) (SheetStats, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	c, ok := l.sheets[sheet]
	if !ok {
		return SheetStats{Sheet: sheet}, false
	}
	return c.snapshot(sheet), true
}

// Snapshot returns every sheet's counters sorted by sheet name.
func (l *LookupStats) Snapshot() []SheetStats {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := make([]SheetStats, 0, len(l.sheets))
	for name, c := range l.sheets {
		stats = append(stats, c.snapshot(name))
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Sheet < stats[j].Sheet
	})
	return stats
}

// GetTopMisses returns the top N sheets by miss count, descending. Sheets
// without misses are left out.
func (l *LookupStats) GetTopMisses(n int) []SheetStats {
	if n <= 0 {
		return []SheetStats{}
	}

	stats := l.Snapshot()
	filtered := stats[:0]
	for _, s := range stats {
		if s.Misses > 0 {
			filtered = append(filtered, s)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Misses > filtered[j].Misses
	})

	if n > len(filtered) {
		n = len(filtered)
	}
	return filtered[:n]
}

// Prune removes sheets not looked up within the window.
func (l *LookupStats) Prune() {
	if l.window <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	threshold := time.Now().Add(-l.window).UnixNano()
	for name, c := range l.sheets {
		if c.lastSeen.Load() < threshold {
			delete(l.sheets, name)
		}
	}
}

// Reset clears every counter.
func (l *LookupStats) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sheets = make(map[string]*sheetCounters)
}

func (c *sheetCounters) snapshot(name string) SheetStats {
	s := SheetStats{
		Sheet:   name,
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Invalid: c.invalid.Load(),
	}
	if ns := c.lastSeen.Load(); ns != 0 {
		s.LastSeen = time.Unix(0, ns)
	}
	return s
}
