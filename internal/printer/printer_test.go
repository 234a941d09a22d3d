package printer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mjkoo/rgx/internal/matcher"
	"github.com/mjkoo/rgx/internal/sink"
)

func TestStandardWritesLineNumberAndContent(t *testing.T) {
	var buf bytes.Buffer
	p := NewStandard(&buf, Config{LineNumber: true})
	p.Bind("file.txt", nil)
	p.Send(sink.Event{Kind: sink.Begin})
	p.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{{Bytes: []byte("hello\n"), LineNumber: 3}}})
	p.Send(sink.Event{Kind: sink.Finish})

	got := buf.String()
	if !strings.Contains(got, "file.txt") || !strings.Contains(got, "3:hello") {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestStandardOnlyMatching(t *testing.T) {
	var buf bytes.Buffer
	p := NewStandard(&buf, Config{OnlyMatching: true})
	p.Bind("f", nil)
	p.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{{
		Bytes:   []byte("abcXYZdef\n"),
		Matches: []matcher.Match{{Start: 3, End: 6}},
	}}})
	p.Send(sink.Event{Kind: sink.Finish})
	if got := buf.String(); !strings.Contains(got, "XYZ") || strings.Contains(got, "abc") {
		t.Errorf("expected only the matched substring, got %q", got)
	}
}

func TestStandardOnlyMatchingMultipleMatchesPerLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewStandard(&buf, Config{OnlyMatching: true, Column: true, LineNumber: true})
	p.Bind("f", nil)
	p.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{{
		Bytes:      []byte("Doctor Watson met Sherlock\n"),
		LineNumber: 1,
		Matches:    []matcher.Match{{Start: 0, End: 6}, {Start: 19, End: 27}},
	}}})
	p.Send(sink.Event{Kind: sink.Finish})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one output line per match, got %v", lines)
	}
	if lines[0] != "f:1:1:Doctor" {
		t.Errorf("expected first match prefix from its own column, got %q", lines[0])
	}
	if lines[1] != "f:1:20:Sherlock" {
		t.Errorf("expected second match prefix from its own column, got %q", lines[1])
	}
}

func TestStandardMaxColumnsOmitsLongLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewStandard(&buf, Config{MaxColumns: 10})
	p.Bind("f", nil)
	p.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{{
		Bytes:   []byte(strings.Repeat("x", 50) + "\n"),
		Matches: []matcher.Match{{Start: 0, End: 1}},
	}}})
	p.Send(sink.Event{Kind: sink.Finish})
	if got := buf.String(); !strings.Contains(got, "[Omitted long") {
		t.Errorf("expected omission message for a line over MaxColumns, got %q", got)
	}
}

func TestStandardMaxColumnsPreviewShowsPrefixAndSuffix(t *testing.T) {
	var buf bytes.Buffer
	p := NewStandard(&buf, Config{MaxColumns: 10, MaxColumnsPreview: true})
	p.Bind("f", nil)
	p.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{{
		Bytes:   []byte(strings.Repeat("x", 50) + "\n"),
		Matches: []matcher.Match{{Start: 0, End: 1}, {Start: 20, End: 21}},
	}}})
	p.Send(sink.Event{Kind: sink.Finish})
	got := buf.String()
	if !strings.HasPrefix(got, "f:"+strings.Repeat("x", 10)) {
		t.Errorf("expected a 10-byte prefix, got %q", got)
	}
	if !strings.Contains(got, "[... 1 more matches]") {
		t.Errorf("expected a remaining-match count suffix, got %q", got)
	}
}

func TestSummaryCountAccumulates(t *testing.T) {
	var buf bytes.Buffer
	p := NewSummary(&buf, SummaryCount, false, false)
	p.Bind("f.txt", nil)
	p.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{{Bytes: []byte("a\n")}}})
	p.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{{Bytes: []byte("b\n")}}})
	p.Send(sink.Event{Kind: sink.Finish})
	if got := strings.TrimSpace(buf.String()); got != "f.txt:2" {
		t.Errorf("got %q", got)
	}
}

func TestSummaryCountMatchesSumsAllMatchesPerLine(t *testing.T) {
	var buf bytes.Buffer
	p := NewSummary(&buf, SummaryCountMatches, false, false)
	p.Bind("H", nil)
	p.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{{
		Bytes:   []byte("Doctor Watson met Sherlock\n"),
		Matches: []matcher.Match{{Start: 0, End: 6}, {Start: 19, End: 27}},
	}}})
	p.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{{
		Bytes:   []byte("Sherlock again\n"),
		Matches: []matcher.Match{{Start: 0, End: 8}},
	}}})
	p.Send(sink.Event{Kind: sink.Finish})
	if got := strings.TrimSpace(buf.String()); got != "H:3" {
		t.Errorf("got %q, want H:3", got)
	}
}

func TestSummaryFilesWithMatchesSkipsEmptyHaystacks(t *testing.T) {
	var buf bytes.Buffer
	p := NewSummary(&buf, SummaryFilesWithMatches, false, false)
	p.Bind("empty.txt", nil)
	p.Send(sink.Event{Kind: sink.Finish})
	if buf.Len() != 0 {
		t.Errorf("expected no output for a haystack with no matches, got %q", buf.String())
	}
}

func TestJSONEmitsBeginMatchEnd(t *testing.T) {
	var buf bytes.Buffer
	p := NewJSON(&buf)
	p.Bind("f.txt", nil)
	p.Send(sink.Event{Kind: sink.Begin})
	p.Send(sink.Event{Kind: sink.Matched, Lines: []sink.Line{{Bytes: []byte("hi\n"), LineNumber: 1}}})
	p.Send(sink.Event{Kind: sink.Finish})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 JSON lines, got %d: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], `"type":"begin"`) {
		t.Errorf("expected begin message, got %q", lines[0])
	}
	if !strings.Contains(lines[2], `"type":"end"`) {
		t.Errorf("expected end message, got %q", lines[2])
	}
}
