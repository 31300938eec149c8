package cascade

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/sawpanic/cascade/internal/domain/day"
	"github.com/sawpanic/cascade/internal/metrics"
)

// DefaultMemoSize is used when NewMemoizer gets a non-positive size.
const DefaultMemoSize = 256

// Memoizer caches results by input signature. It is safe for concurrent
// use; computations through one Memoizer are serialised so history writes
// stay single-writer.
type Memoizer struct {
	mu         sync.Mutex
	entries    map[uint64]*memoEntry
	maxEntries int
	clock      uint64
	generation uint64
	metrics    *metrics.Registry
	stats      memoStats
}

type memoEntry struct {
	result   *Result
	accessed uint64
	hits     int64
}

type memoStats struct {
	hits      int64
	misses    int64
	evictions int64
}

// MemoStats is a snapshot of the memo counters.
type MemoStats struct {
	Hits       int64  `json:"hits"`
	Misses     int64  `json:"misses"`
	Evictions  int64  `json:"evictions"`
	Entries    int    `json:"entries"`
	Generation uint64 `json:"generation"`
}

// NewMemoizer creates a memo holding at most maxEntries results. m may be
// nil.
func NewMemoizer(maxEntries int, m *metrics.Registry) *Memoizer {
	if maxEntries <= 0 {
		maxEntries = DefaultMemoSize
	}
	return &Memoizer{
		entries:    make(map[uint64]*memoEntry),
		maxEntries: maxEntries,
		metrics:    m,
	}
}

// signedInput is what the signature covers. The reference date is kept
// at day resolution so repeated calls within a day hit.
type signedInput struct {
	Record     *day.Record `json:"record"`
	Window     day.Window  `json:"window"`
	Profile    day.Profile `json:"profile"`
	Date       string      `json:"date"`
	Generation uint64      `json:"generation"`
}

func (m *Memoizer) signature(in Input) (uint64, error) {
	date := ""
	if !in.At.IsZero() {
		date = day.DateKey(in.At)
	}
	b, err := json.Marshal(signedInput{
		Record:     in.Record,
		Window:     in.Window,
		Profile:    in.Profile,
		Date:       date,
		Generation: m.generation,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode memo signature: %w", err)
	}
	return xxhash.Sum64(b), nil
}

// Compute returns the memoised result for in, computing it with e on a
// miss. Errors are not cached.
func (m *Memoizer) Compute(ctx context.Context, e *Engine, in Input) (*Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key, err := m.signature(in)
	if err != nil {
		return nil, err
	}
	m.clock++
	if entry, ok := m.entries[key]; ok {
		entry.accessed = m.clock
		entry.hits++
		m.stats.hits++
		m.metrics.RecordMemo(true)
		return entry.result, nil
	}
	m.stats.misses++
	m.metrics.RecordMemo(false)

	res, err := e.Compute(ctx, in)
	if err != nil {
		return nil, err
	}
	if len(m.entries) >= m.maxEntries {
		m.evictLRU()
	}
	m.entries[key] = &memoEntry{result: res, accessed: m.clock}
	return res, nil
}

// Invalidate drops every entry and moves to a new generation. Call it when
// nutrition data or stored history change outside the memo.
func (m *Memoizer) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
	m.entries = make(map[uint64]*memoEntry)
}

// Stats returns the current counters.
func (m *Memoizer) Stats() MemoStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MemoStats{
		Hits:       m.stats.hits,
		Misses:     m.stats.misses,
		Evictions:  m.stats.evictions,
		Entries:    len(m.entries),
		Generation: m.generation,
	}
}

// evictLRU removes the least recently used entry (caller must hold the lock).
func (m *Memoizer) evictLRU() {
	var (
		oldestKey uint64
		oldest    = m.clock + 1
		found     bool
	)
	for key, entry := range m.entries {
		if entry.accessed < oldest {
			oldest = entry.accessed
			oldestKey = key
			found = true
		}
	}
	if found {
		delete(m.entries, oldestKey)
		m.stats.evictions++
	}
}
