// Package search implements the core searcher state machine: it turns a
// byte stream (or an already-materialized byte region)
// into a sink.Sink event stream, independent of how that stream is
// formatted or where the bytes came from — those are internal/printer and
// internal/haystack's concerns respectively.
package search

import (
	"bytes"
	"errors"
	"io"
	"time"

	"github.com/mjkoo/rgx/internal/linebuf"
	"github.com/mjkoo/rgx/internal/matcher"
	"github.com/mjkoo/rgx/internal/rgerror"
	"github.com/mjkoo/rgx/internal/sink"
)

// ErrConfigMismatch is returned when the searcher's configuration cannot
// be honored before any reads are attempted: a matcher/searcher
// line-terminator mismatch, or a zero heap limit with mmap disabled.
var ErrConfigMismatch = errors.New("search: configuration mismatch")

// Config holds the per-search parameters.
type Config struct {
	LineTerminator byte // 0 means '\n'
	Invert         bool
	BeforeContext  int
	AfterContext   int
	Passthru       bool
	MaxMatches     int // 0 means unlimited
	StopOnNonmatch bool
	HeapLimit      int
	BinaryMode     linebuf.BinaryMode
	BinaryByte     byte
}

func (c Config) lineTerm() byte {
	if c.LineTerminator == 0 {
		return '\n'
	}
	return c.LineTerminator
}

// Searcher runs one search over one haystack per call to its Search*
// methods, emitting events to a sink.Sink. A Searcher may be reused across
// haystacks sequentially; it is not safe for concurrent use by multiple
// goroutines (each goroutine should own its own Searcher over a shared,
// read-only Matcher).
type Searcher struct {
	cfg Config
	m   matcher.Matcher
}

// New validates cfg against m and constructs a Searcher. It returns
// ErrConfigMismatch before any reads occur if the matcher's declared line
// terminator conflicts with the searcher's.
func New(cfg Config, m matcher.Matcher) (*Searcher, error) {
	if b, ok := m.LineTerminatorHint(); ok && b != cfg.lineTerm() {
		return nil, &rgerror.ConfigError{Msg: "matcher line terminator does not match searcher line terminator"}
	}
	return &Searcher{cfg: cfg, m: m}, nil
}

// CanDowngradeMultiLine reports whether multi-line mode can be run as
// ReadByLine instead, which avoids materializing the whole haystack.
func (s *Searcher) CanDowngradeMultiLine() bool {
	if term, ok := s.m.LineTerminatorHint(); ok && term == s.cfg.lineTerm() {
		return true
	}
	set, ok := s.m.NonMatchingBytes()
	if !ok {
		return false
	}
	return set[s.cfg.lineTerm()]
}

// state tracks the running position, pending context, and counters shared
// by all three search strategies.
type state struct {
	snk           sink.Sink
	cfg           Config
	m             matcher.Matcher
	lineNo        uint64
	absOffset     uint64
	matchCount    int
	matchedLines  uint64
	matched       bool
	beforeRing    []sink.Line
	afterOwed     int
	lastEmittedNo uint64 // line number of the last emitted line (match or context), 0 if none yet
	producedAny   bool
	started       time.Time
}

func newState(cfg Config, m matcher.Matcher, snk sink.Sink) *state {
	return &state{snk: snk, cfg: cfg, m: m, started: time.Now()}
}

func (st *state) begin() (bool, error) {
	return st.snk.Send(sink.Event{Kind: sink.Begin})
}

func (st *state) finish() error {
	_, err := st.snk.Send(sink.Event{Kind: sink.Finish, Stats: sink.FinishStats{
		ElapsedNanos: time.Since(st.started).Nanoseconds(),
		Searched:     st.absOffset,
		MatchedLines: st.matchedLines,
		Matches:      uint64(st.matchCount),
	}})
	return err
}

func (st *state) contextCapacity() int {
	if st.cfg.Passthru {
		return -1 // unbounded
	}
	return st.cfg.BeforeContext
}

// pushBefore adds a line to the before-context ring, evicting the oldest
// once the ring exceeds BeforeContext (unless Passthru, which never evicts
// and emits every line eagerly — handled by the caller).
func (st *state) pushBefore(l sink.Line) {
	cap := st.contextCapacity()
	if cap == 0 {
		return
	}
	st.beforeRing = append(st.beforeRing, l)
	if cap > 0 && len(st.beforeRing) > cap {
		st.beforeRing = st.beforeRing[len(st.beforeRing)-cap:]
	}
}

// flushBefore emits the accumulated before-context ring as Context events,
// inserting a ContextBreak first if there is a gap between the ring's
// first line and whatever was last emitted.
func (st *state) flushBefore() (bool, error) {
	if len(st.beforeRing) == 0 {
		return true, nil
	}
	if st.lastEmittedNo != 0 && st.beforeRing[0].LineNumber > st.lastEmittedNo+1 {
		if keepGoing, err := st.emitBreak(); !keepGoing || err != nil {
			return keepGoing, err
		}
	}
	lines := st.beforeRing
	st.beforeRing = nil
	keepGoing, err := st.snk.Send(sink.Event{Kind: sink.Context, Lines: lines})
	if len(lines) > 0 {
		st.lastEmittedNo = lines[len(lines)-1].LineNumber
	}
	return keepGoing, err
}

func (st *state) emitBreak() (bool, error) {
	return st.snk.Send(sink.Event{Kind: sink.ContextBreak})
}

// emitMatched sends l as a Matched event. matchDelta is how many logical
// matches this event accounts for: 1 per match on an ordinary matched line,
// 0 for a continuation line of a multi-line match that was already counted
// on an earlier line in its span.
func (st *state) emitMatched(l sink.Line, matchDelta int) (bool, error) {
	keepGoing, err := st.flushBefore()
	if !keepGoing || err != nil {
		return keepGoing, err
	}
	keepGoing, err = st.snk.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{l}})
	st.lastEmittedNo = l.LineNumber
	st.matched = true
	st.producedAny = true
	if keepGoing && err == nil {
		st.matchedLines++
	}
	if keepGoing && err == nil && matchDelta > 0 {
		st.matchCount += matchDelta
		if st.cfg.Passthru {
			st.afterOwed = -1
		} else {
			st.afterOwed = st.cfg.AfterContext
		}
	}
	return keepGoing, err
}

func (st *state) emitAfterContext(l sink.Line) (bool, error) {
	keepGoing, err := st.snk.Send(sink.Event{Kind: sink.Context, Lines: []sink.Line{l}})
	st.lastEmittedNo = l.LineNumber
	if st.afterOwed > 0 {
		st.afterOwed--
	}
	return keepGoing, err
}

// reachedMaxMatches reports whether the configured MaxMatches has been hit.
func (st *state) reachedMaxMatches() bool {
	return st.cfg.MaxMatches > 0 && st.matchCount >= st.cfg.MaxMatches
}

// SearchReader runs the ReadByLine strategy over r, line-buffered via
// internal/linebuf.
func (s *Searcher) SearchReader(r io.Reader, snk sink.Sink) error {
	cfg := linebuf.Config{
		LineTerminator: s.cfg.lineTerm(),
		HeapLimit:      s.cfg.HeapLimit,
		BinaryMode:     s.cfg.BinaryMode,
		BinaryByte:     s.cfg.BinaryByte,
	}
	buf := linebuf.New(r, cfg)
	return s.run(buf, snk)
}

func (s *Searcher) run(buf *linebuf.Buffer, snk sink.Sink) error {
	st := newState(s.cfg, s.m, snk)
	if keepGoing, err := st.begin(); err != nil {
		return err
	} else if !keepGoing {
		return nil
	}

	term := s.cfg.lineTerm()
	reportedBinary := false

	for {
		err := buf.Fill()
		if err != nil && err != io.EOF {
			if linebuf.ErrHeapLimit(err) {
				return &rgerror.ResourceLimitError{Limit: s.cfg.HeapLimit}
			}
			return err
		}
		atEOF := err == io.EOF

		for {
			region := buf.Buffer()
			idx := bytes.IndexByte(region, term)

			var line []byte
			var consumed int
			haveLine := true
			if idx >= 0 {
				line, consumed = region[:idx+1], idx+1
			} else if atEOF && len(region) > 0 {
				line, consumed = region, len(region)
			} else {
				haveLine = false
			}
			if !haveLine {
				break
			}

			st.lineNo++
			sl := sink.Line{Bytes: line, LineNumber: st.lineNo, AbsoluteOffset: uint64(buf.Pos())}
			buf.Consume(consumed)

			keepGoing, perr := s.processLine(st, sl)
			if perr != nil {
				return perr
			}
			if !keepGoing {
				return nil
			}
			if st.reachedMaxMatches() {
				return st.finish()
			}
		}

		if !reportedBinary {
			if off, ok := buf.BinaryByteOffset(); ok {
				reportedBinary = true
				if keepGoing, serr := snk.Send(sink.Event{Kind: sink.BinaryData, BinaryOffset: uint64(off)}); serr != nil || !keepGoing {
					return serr
				}
			}
		}
		if atEOF {
			break
		}
	}
	return st.finish()
}

// processLine applies the matcher to one line and drives the
// before/after-context bookkeeping and match/context emission.
func (s *Searcher) processLine(st *state, l sink.Line) (bool, error) {
	if s.cfg.Invert {
		_, found := s.m.FindAt(l.Bytes, 0)
		if found {
			return s.processNonMatch(st, l)
		}
		return st.emitMatched(l, 1)
	}

	var matches []matcher.Match
	s.m.FindIterAt(l.Bytes, 0, func(mm matcher.Match) bool {
		matches = append(matches, mm)
		return true
	})
	if len(matches) == 0 {
		return s.processNonMatch(st, l)
	}
	l.Matches = matches
	return st.emitMatched(l, len(matches))
}

func (s *Searcher) processNonMatch(st *state, l sink.Line) (bool, error) {
	if st.afterOwed != 0 {
		keepGoing, err := st.emitAfterContext(l)
		return keepGoing, err
	}
	if st.matched && st.cfg.StopOnNonmatch {
		return false, st.finish()
	}
	if st.cfg.Passthru {
		return st.emitAfterContext(l)
	}
	if st.cfg.BeforeContext > 0 {
		st.pushBefore(l)
	}
	return true, nil
}

// SearchSlice runs the SliceByLine strategy: identical semantics to
// SearchReader, but over a borrowed slice with no linebuf copying. Used
// when the haystack worker has already mmap'd or
// fully-read the file and transcoding is not required.
func (s *Searcher) SearchSlice(data []byte, snk sink.Sink) error {
	st := newState(s.cfg, s.m, snk)
	if keepGoing, err := st.begin(); err != nil {
		return err
	} else if !keepGoing {
		return nil
	}

	term := s.cfg.lineTerm()
	pos := 0
	for pos < len(data) {
		idx := bytes.IndexByte(data[pos:], term)
		var line []byte
		if idx >= 0 {
			line = data[pos : pos+idx+1]
		} else {
			line = data[pos:]
		}
		st.lineNo++
		sl := sink.Line{Bytes: line, LineNumber: st.lineNo, AbsoluteOffset: uint64(pos)}
		pos += len(line)

		keepGoing, err := s.processLine(st, sl)
		if err != nil {
			return err
		}
		if !keepGoing {
			return nil
		}
		if st.reachedMaxMatches() {
			return st.finish()
		}
	}
	return st.finish()
}

// SearchMultiLine runs find_iter_at over the entire region in one pass,
// then maps each match back to the line span it falls in for emission.
// data must not contain a byte the matcher's
// NonMatchingBytes excludes as a line terminator unless the caller has
// already decided not to downgrade to ReadByLine (see
// Searcher.CanDowngradeMultiLine).
func (s *Searcher) SearchMultiLine(data []byte, snk sink.Sink) error {
	st := newState(s.cfg, s.m, snk)
	if keepGoing, err := st.begin(); err != nil {
		return err
	} else if !keepGoing {
		return nil
	}

	term := s.cfg.lineTerm()
	lineStarts := lineStartOffsets(data, term)

	stop := false
	var iterErr error
	s.m.FindIterAt(data, 0, func(mm matcher.Match) bool {
		startLine := lineContaining(lineStarts, mm.Start)
		endLine := lineContaining(lineStarts, max(mm.End-1, mm.Start))

		for ln := startLine; ln <= endLine; ln++ {
			lineStart := lineStarts[ln]
			lineEnd := len(data)
			if ln+1 < len(lineStarts) {
				lineEnd = lineStarts[ln+1]
			}
			line := data[lineStart:lineEnd]
			sl := sink.Line{Bytes: line, LineNumber: uint64(ln + 1), AbsoluteOffset: uint64(lineStart)}
			if ln == startLine && mm.Start >= lineStart {
				sl.Matches = []matcher.Match{{Start: mm.Start - lineStart, End: min(mm.End, lineEnd) - lineStart}}
			}
			// A match spanning multiple lines counts once, on its last
			// spanned line, regardless of how many lines it touches.
			delta := 0
			if ln == endLine {
				delta = 1
			}
			keepGoing, err := st.emitMatched(sl, delta)
			if err != nil {
				iterErr = err
				stop = true
				return false
			}
			if !keepGoing {
				stop = true
				return false
			}
		}
		if st.reachedMaxMatches() {
			stop = true
			return false
		}
		return true
	})
	if iterErr != nil {
		return iterErr
	}
	if stop && st.reachedMaxMatches() {
		return st.finish()
	}
	if stop {
		return nil
	}
	return st.finish()
}

// lineStartOffsets returns the byte offset of the first byte of every line
// in data (line 0 always starts at offset 0).
func lineStartOffsets(data []byte, term byte) []int {
	starts := []int{0}
	for i, b := range data {
		if b == term && i+1 < len(data) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineContaining returns the index into starts of the line containing
// offset, via binary search.
func lineContaining(starts []int, offset int) int {
	lo, hi := 0, len(starts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if starts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

