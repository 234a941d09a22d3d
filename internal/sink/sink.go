// Package sink defines the event stream a searcher emits and printers
// consume. Searchers never format output themselves; they
// call into whatever Sink the caller supplies.
package sink

import "github.com/mjkoo/rgx/internal/matcher"

// EventKind distinguishes the events a search can emit for one haystack.
type EventKind int

const (
	// Begin marks the start of searching one haystack.
	Begin EventKind = iota
	// Matched carries one matching line (or multi-line match region).
	Matched
	// Context carries a context line adjacent to a match (-A/-B/-C).
	Context
	// ContextBreak marks a gap between two context windows that are not
	// contiguous, so a printer can draw a "--" separator.
	ContextBreak
	// BinaryData reports that binary data was detected in the haystack.
	BinaryData
	// Finish marks the end of searching one haystack, carrying summary
	// statistics for that haystack alone.
	Finish
)

// Line describes one physical line of a match or context event. Bytes is
// the raw line content including its line terminator, if any.
type Line struct {
	Bytes      []byte
	LineNumber uint64 // 1-based; 0 if line numbers are not being tracked
	AbsoluteOffset uint64
	Matches    []matcher.Match // byte ranges within Bytes, empty for context lines
}

// Event is one message in the stream a Sink receives.
type Event struct {
	Kind EventKind

	// Matched / Context
	Lines []Line

	// BinaryData
	BinaryOffset uint64

	// Finish
	Stats FinishStats
}

// FinishStats summarizes one haystack's search.
type FinishStats struct {
	ElapsedNanos   int64
	Searched       uint64
	BytesPrinted   uint64
	MatchedLines   uint64
	Matches        uint64
}

// Sink receives the event stream for one haystack. Implementations must
// treat the Event and its Lines as valid only for the duration of the
// call: searchers may reuse the backing buffers on the next call.
type Sink interface {
	// Send handles one event, returning false to tell the searcher to stop
	// searching this haystack early (e.g. --max-count reached, or a
	// summary-only sink that already knows it will match).
	Send(ev Event) (keepGoing bool, err error)
}

// Func adapts a plain function to the Sink interface.
type Func func(ev Event) (bool, error)

func (f Func) Send(ev Event) (bool, error) { return f(ev) }
