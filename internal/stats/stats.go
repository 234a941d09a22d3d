// Package stats implements the aggregate counters reported at the end of a
// run (--stats), combined under a mutex at each haystack's finish event so
// concurrent workers never race on the same counters.
package stats

import (
	"sync"
	"time"

	"github.com/mjkoo/rgx/internal/sink"
)

// Stats accumulates counters across every haystack searched in one run.
type Stats struct {
	mu sync.Mutex

	Elapsed        time.Duration
	SearchesCount  uint64
	SearchesWithMatch uint64
	BytesSearched  uint64
	BytesPrinted   uint64
	MatchedLines   uint64
	Matches        uint64
}

// AddHaystack folds one haystack's Finish stats into the aggregate. It is
// safe to call from multiple goroutines.
func (s *Stats) AddHaystack(fs sink.FinishStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Elapsed += time.Duration(fs.ElapsedNanos)
	s.SearchesCount++
	if fs.Matches > 0 {
		s.SearchesWithMatch++
	}
	s.BytesSearched += fs.Searched
	s.BytesPrinted += fs.BytesPrinted
	s.MatchedLines += fs.MatchedLines
	s.Matches += fs.Matches
}

// Snapshot returns a copy safe to read without holding the lock further.
func (s *Stats) Snapshot() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Elapsed:           s.Elapsed,
		SearchesCount:     s.SearchesCount,
		SearchesWithMatch: s.SearchesWithMatch,
		BytesSearched:     s.BytesSearched,
		BytesPrinted:      s.BytesPrinted,
		MatchedLines:      s.MatchedLines,
		Matches:           s.Matches,
	}
}
