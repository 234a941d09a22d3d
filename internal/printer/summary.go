package printer

import (
	"bufio"
	"fmt"
	"io"

	"github.com/mjkoo/rgx/internal/matcher"
	"github.com/mjkoo/rgx/internal/sink"
)

// SummaryMode selects which degenerate summary variant to print.
type SummaryMode int

const (
	SummaryCount SummaryMode = iota
	SummaryCountMatches
	SummaryFilesWithMatches
	SummaryFilesWithoutMatch
	SummaryQuiet
)

// Summary implements sink.Sink for the count/count-matches/
// files-with-matches/files-without-match/quiet variants: it accumulates
// counts only and emits (at most) one line per haystack at Finish.
type Summary struct {
	mode       SummaryMode
	includeZero bool
	path       string
	w          *bufio.Writer
	lineCount  uint64
	matchCount uint64
	nullData   bool
}

// NewSummary constructs a Summary printer writing to w.
func NewSummary(w io.Writer, mode SummaryMode, includeZero, nullData bool) *Summary {
	return &Summary{mode: mode, includeZero: includeZero, w: bufio.NewWriter(w), nullData: nullData}
}

func (p *Summary) Bind(path string, _ matcher.Matcher) {
	p.path = path
	p.lineCount = 0
	p.matchCount = 0
}

func (p *Summary) Flush() error { return p.w.Flush() }

func (p *Summary) Send(ev sink.Event) (bool, error) {
	switch ev.Kind {
	case sink.Matched:
		p.lineCount += uint64(len(ev.Lines))
		for _, l := range ev.Lines {
			if n := len(l.Matches); n > 0 {
				p.matchCount += uint64(n)
			} else {
				p.matchCount++
			}
		}
		if p.mode == SummaryFilesWithMatches || p.mode == SummaryQuiet {
			return false, nil // one match is enough to decide this haystack
		}
	case sink.Finish:
		if err := p.emit(); err != nil {
			return false, err
		}
		return true, p.w.Flush()
	}
	return true, nil
}

func (p *Summary) emit() error {
	sep := byte('\n')
	if p.nullData {
		sep = 0
	}
	switch p.mode {
	case SummaryQuiet:
		return nil
	case SummaryFilesWithMatches:
		if p.lineCount == 0 {
			return nil
		}
		fmt.Fprintf(p.w, "%s", p.path)
		return p.w.WriteByte(sep)
	case SummaryFilesWithoutMatch:
		if p.lineCount != 0 {
			return nil
		}
		fmt.Fprintf(p.w, "%s", p.path)
		return p.w.WriteByte(sep)
	case SummaryCount:
		if p.lineCount == 0 && !p.includeZero {
			return nil
		}
		fmt.Fprintf(p.w, "%s:%d", p.path, p.lineCount)
		return p.w.WriteByte(sep)
	case SummaryCountMatches:
		if p.matchCount == 0 && !p.includeZero {
			return nil
		}
		fmt.Fprintf(p.w, "%s:%d", p.path, p.matchCount)
		return p.w.WriteByte(sep)
	}
	return nil
}
