package search

import (
	"strings"
	"testing"

	"github.com/mjkoo/rgx/internal/matcher"
	"github.com/mjkoo/rgx/internal/sink"
)

type collector struct {
	events []sink.Event
}

func (c *collector) Send(ev sink.Event) (bool, error) {
	c.events = append(c.events, ev)
	return true, nil
}

func mustMatcher(t *testing.T, pattern string) matcher.Matcher {
	t.Helper()
	m, err := matcher.NewRE2(pattern, matcher.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func kindsOf(events []sink.Event) []sink.EventKind {
	var ks []sink.EventKind
	for _, e := range events {
		ks = append(ks, e.Kind)
	}
	return ks
}

func TestSearchReaderBasicMatch(t *testing.T) {
	m := mustMatcher(t, "needle")
	s, err := New(Config{}, m)
	if err != nil {
		t.Fatal(err)
	}
	c := &collector{}
	r := strings.NewReader("one\nneedle here\nthree\n")
	if err := s.SearchReader(r, c); err != nil {
		t.Fatal(err)
	}
	var matched int
	for _, e := range c.events {
		if e.Kind == sink.Matched {
			matched++
			if e.Lines[0].LineNumber != 2 {
				t.Errorf("expected match on line 2, got %d", e.Lines[0].LineNumber)
			}
		}
	}
	if matched != 1 {
		t.Errorf("expected 1 match, got %d", matched)
	}
}

func TestSearchReaderBeforeAfterContext(t *testing.T) {
	m := mustMatcher(t, "MATCH")
	s, err := New(Config{BeforeContext: 1, AfterContext: 1}, m)
	if err != nil {
		t.Fatal(err)
	}
	c := &collector{}
	r := strings.NewReader("a\nb\nMATCH\nc\nd\n")
	if err := s.SearchReader(r, c); err != nil {
		t.Fatal(err)
	}
	var contextLines []string
	for _, e := range c.events {
		if e.Kind == sink.Context {
			for _, l := range e.Lines {
				contextLines = append(contextLines, strings.TrimRight(string(l.Bytes), "\n"))
			}
		}
	}
	if len(contextLines) != 2 || contextLines[0] != "b" || contextLines[1] != "c" {
		t.Errorf("expected context [b c], got %v", contextLines)
	}
}

func TestSearchReaderMaxMatches(t *testing.T) {
	m := mustMatcher(t, "x")
	s, err := New(Config{MaxMatches: 2}, m)
	if err != nil {
		t.Fatal(err)
	}
	c := &collector{}
	r := strings.NewReader("x\nx\nx\nx\n")
	if err := s.SearchReader(r, c); err != nil {
		t.Fatal(err)
	}
	var matched int
	for _, e := range c.events {
		if e.Kind == sink.Matched {
			matched++
		}
	}
	if matched != 2 {
		t.Errorf("expected 2 matches (max-matches), got %d", matched)
	}
}

func TestSearchReaderInvert(t *testing.T) {
	m := mustMatcher(t, "skip")
	s, err := New(Config{Invert: true}, m)
	if err != nil {
		t.Fatal(err)
	}
	c := &collector{}
	r := strings.NewReader("skip\nkeep\nskip\n")
	if err := s.SearchReader(r, c); err != nil {
		t.Fatal(err)
	}
	var lines []string
	for _, e := range c.events {
		if e.Kind == sink.Matched {
			lines = append(lines, strings.TrimRight(string(e.Lines[0].Bytes), "\n"))
		}
	}
	if len(lines) != 1 || lines[0] != "keep" {
		t.Errorf("expected [keep], got %v", lines)
	}
}

func TestSearchSliceMatchesSameAsReader(t *testing.T) {
	m := mustMatcher(t, "foo")
	s, err := New(Config{}, m)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("bar\nfoo\nbaz\n")
	c := &collector{}
	if err := s.SearchSlice(data, c); err != nil {
		t.Fatal(err)
	}
	var matched int
	for _, e := range c.events {
		if e.Kind == sink.Matched {
			matched++
		}
	}
	if matched != 1 {
		t.Errorf("expected 1 match, got %d", matched)
	}
}

func TestSearchMultiLineSpansLines(t *testing.T) {
	m := mustMatcher(t, `(?s)start.*end`)
	s, err := New(Config{}, m)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("before\nstart\nmiddle\nend\nafter\n")
	c := &collector{}
	if err := s.SearchMultiLine(data, c); err != nil {
		t.Fatal(err)
	}
	var matched int
	for _, e := range c.events {
		if e.Kind == sink.Matched {
			matched++
		}
	}
	if matched != 3 {
		t.Errorf("expected 3 emitted lines spanning the match, got %d", matched)
	}
}

func TestSearchReaderMultipleMatchesPerLine(t *testing.T) {
	m := mustMatcher(t, "Sherlock|Doctor")
	s, err := New(Config{}, m)
	if err != nil {
		t.Fatal(err)
	}
	c := &collector{}
	r := strings.NewReader("Doctor Watson met Sherlock\nnothing here\nSherlock again\n")
	if err := s.SearchReader(r, c); err != nil {
		t.Fatal(err)
	}
	var total int
	for _, e := range c.events {
		if e.Kind == sink.Matched {
			total += len(e.Lines[0].Matches)
		}
		if e.Kind == sink.Finish {
			if e.Stats.Matches != 3 {
				t.Errorf("expected 3 total matches in stats, got %d", e.Stats.Matches)
			}
		}
	}
	if total != 3 {
		t.Errorf("expected 3 match ranges across all lines, got %d", total)
	}
}

func TestSearchMultiLineMatchCountsOnce(t *testing.T) {
	m := mustMatcher(t, `(?s)start.*end`)
	s, err := New(Config{}, m)
	if err != nil {
		t.Fatal(err)
	}
	data := []byte("before\nstart\nmiddle\nend\nafter\n")
	c := &collector{}
	if err := s.SearchMultiLine(data, c); err != nil {
		t.Fatal(err)
	}
	for _, e := range c.events {
		if e.Kind == sink.Finish && e.Stats.Matches != 1 {
			t.Errorf("expected a single match spanning multiple lines to count once, got %d", e.Stats.Matches)
		}
	}
}

func TestSearchReaderStopOnNonmatch(t *testing.T) {
	m := mustMatcher(t, "x")
	s, err := New(Config{StopOnNonmatch: true}, m)
	if err != nil {
		t.Fatal(err)
	}
	c := &collector{}
	r := strings.NewReader("x\nx\nnotit\nx\n")
	if err := s.SearchReader(r, c); err != nil {
		t.Fatal(err)
	}
	var matched int
	for _, e := range c.events {
		if e.Kind == sink.Matched {
			matched++
		}
	}
	if matched != 2 {
		t.Errorf("expected to stop after 2 matches once a non-match appears, got %d", matched)
	}
}
