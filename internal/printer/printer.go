// Package printer turns a sink.Sink event stream into formatted output.
// Three variants are provided: Standard (full per-line
// formatting with optional color), Summary (count/files-with-matches/
// quiet-style single-line-per-haystack output), and JSON.
package printer

import (
	"bufio"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/mjkoo/rgx/internal/matcher"
	"github.com/mjkoo/rgx/internal/sink"
)

// ColorSpec names the attributes applied to one output role (path, line
// number, match, etc.), mirroring ripgrep's --colors grammar.
type ColorSpec struct {
	Fg, Bg string
	Bold, Intense, Underline bool
}

func (c ColorSpec) attrs() []color.Attribute {
	var a []color.Attribute
	if fg, ok := fgAttr(c.Fg, c.Intense); ok {
		a = append(a, fg)
	}
	if bg, ok := bgAttr(c.Bg, c.Intense); ok {
		a = append(a, bg)
	}
	if c.Bold {
		a = append(a, color.Bold)
	}
	if c.Underline {
		a = append(a, color.Underline)
	}
	return a
}

// DefaultColors mirrors ripgrep's built-in defaults (path=magenta,
// line=green, match=red+bold, column unset), grounded on
// crates/printer/src/color.rs in the reference implementation.
func DefaultColors() map[string]ColorSpec {
	return map[string]ColorSpec{
		"path":  {Fg: "magenta"},
		"line":  {Fg: "green"},
		"match": {Fg: "red", Bold: true},
	}
}

// Config holds the formatting options for the Standard printer.
type Config struct {
	Heading        bool
	LineNumber     bool
	Column         bool
	ByteOffset     bool
	OnlyMatching   bool
	PerMatch       bool
	PerMatchOneLine bool
	NullData       bool // not read by Standard; only the Summary printer terminates paths with NUL
	InvertMatch    bool

	PathSeparator    byte // 0 means OS default, rendered as ':'/'-' below
	MatchFieldSep    byte // ':' for match lines
	ContextFieldSep  byte // '-' for context lines

	MaxColumns        int
	MaxColumnsPreview bool

	Replacement []byte

	Colors    map[string]ColorSpec
	UseColor  bool
	Hyperlink string // carried but not read: no printer writes hyperlink escapes

	SearchSeparator  string
	ContextSeparator string

	LineTerminator byte
}

func (c Config) matchSep() byte {
	if c.MatchFieldSep == 0 {
		return ':'
	}
	return c.MatchFieldSep
}

func (c Config) contextSep() byte {
	if c.ContextFieldSep == 0 {
		return '-'
	}
	return c.ContextFieldSep
}

func (c Config) lineTerm() byte {
	if c.LineTerminator == 0 {
		return '\n'
	}
	return c.LineTerminator
}

// Standard implements sink.Sink, writing ripgrep-style formatted lines.
// It owns a counting bufio.Writer so the driver can read bytes-written
// back out for stats and search-separator decisions.
type Standard struct {
	cfg Config
	w   *countingWriter
	bw  *bufio.Writer

	path    string
	m       matcher.Matcher
	headingEmitted bool
	isFirstHaystackWithOutput bool
	replaceBuf []byte

	colorPath, colorLine, colorMatch *color.Color
}

// NewStandard constructs a Standard printer writing to w.
func NewStandard(w io.Writer, cfg Config) *Standard {
	if cfg.Colors == nil {
		cfg.Colors = DefaultColors()
	}
	cw := &countingWriter{w: w}
	p := &Standard{cfg: cfg, w: cw, bw: bufio.NewWriter(cw)}
	if cfg.UseColor {
		p.colorPath = specToColor(cfg.Colors["path"])
		p.colorLine = specToColor(cfg.Colors["line"])
		p.colorMatch = specToColor(cfg.Colors["match"])
	}
	return p
}

func specToColor(s ColorSpec) *color.Color {
	return color.New(s.attrs()...)
}

// Bind associates the printer with one haystack's path and matcher,
// resetting per-haystack counters.
func (p *Standard) Bind(path string, m matcher.Matcher) {
	p.path = path
	p.m = m
	p.headingEmitted = false
	p.w.n = 0
}

// BytesWritten reports how many bytes this printer has emitted since the
// last Bind call.
func (p *Standard) BytesWritten() uint64 { return uint64(p.w.n) }

func (p *Standard) Flush() error { return p.bw.Flush() }

func (p *Standard) Send(ev sink.Event) (bool, error) {
	switch ev.Kind {
	case sink.Begin:
		return true, nil
	case sink.Matched:
		return p.writeLines(ev.Lines, true)
	case sink.Context:
		return p.writeLines(ev.Lines, false)
	case sink.ContextBreak:
		if p.cfg.ContextSeparator != "" {
			fmt.Fprintln(p.bw, p.cfg.ContextSeparator)
		}
		return true, nil
	case sink.BinaryData:
		fmt.Fprintf(p.bw, "binary file matches (found %q byte around offset %d)\n", "\\x00", ev.BinaryOffset)
		return true, nil
	case sink.Finish:
		return true, p.bw.Flush()
	}
	return true, nil
}

func (p *Standard) writeLines(lines []sink.Line, isMatch bool) (bool, error) {
	if p.cfg.Heading && !p.headingEmitted {
		p.writeHeading()
	}
	for _, l := range lines {
		if err := p.writeOneLine(l, isMatch); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (p *Standard) writeHeading() {
	if p.cfg.UseColor && p.colorPath != nil {
		p.colorPath.Fprint(p.bw, p.path)
	} else {
		p.bw.WriteString(p.path)
	}
	p.bw.WriteByte(p.cfg.lineTerm())
	p.headingEmitted = true
}

func (p *Standard) writeOneLine(l sink.Line, isMatch bool) error {
	content := l.Bytes
	if len(p.cfg.Replacement) > 0 && p.m != nil && len(l.Matches) > 0 {
		p.replaceBuf = p.replaceBuf[:0]
		for _, mm := range l.Matches {
			p.replaceBuf = p.m.ReplaceWithCapturesAt(content, mm, p.cfg.Replacement, p.replaceBuf)
		}
		content = p.replaceBuf
	}

	if p.cfg.MaxColumns > 0 && len(content) > p.cfg.MaxColumns {
		return p.writeTruncated(l, content, isMatch)
	}

	if isMatch && p.cfg.OnlyMatching && len(l.Matches) > 0 {
		for _, mm := range l.Matches {
			p.writePrefixFields(l, isMatch, mm.Start+1)
			p.writeHighlighted(content[mm.Start:mm.End], nil)
			p.bw.WriteByte(p.cfg.lineTerm())
		}
		return nil
	}

	p.writePrefixFields(l, isMatch, defaultColumn(l))

	if isMatch && p.cfg.UseColor && p.m != nil {
		p.writeHighlighted(content, l.Matches)
	} else {
		p.bw.Write(content)
		if len(content) == 0 || content[len(content)-1] != p.cfg.lineTerm() {
			p.bw.WriteByte(p.cfg.lineTerm())
		}
	}
	return nil
}

// writePrefixFields writes the path/line-number/column/byte-offset fields
// configured for this printer. col is the column value to report: callers
// emitting one prefix per match (only-matching) pass that match's own
// Start+1; callers emitting one prefix per line pass defaultColumn(l).
func (p *Standard) writePrefixFields(l sink.Line, isMatch bool, col int) {
	if !p.cfg.Heading && p.path != "" {
		p.writePathPrefix(isMatch)
	}
	if p.cfg.LineNumber {
		p.writeField(fmt.Sprintf("%d", l.LineNumber), isMatch)
	}
	if p.cfg.Column {
		p.writeField(fmt.Sprintf("%d", col), isMatch)
	}
	if p.cfg.ByteOffset {
		p.writeField(fmt.Sprintf("%d", l.AbsoluteOffset), isMatch)
	}
}

// defaultColumn is the column reported for a whole-line prefix: the start
// of the first match, or 1 if the line carries no match ranges.
func defaultColumn(l sink.Line) int {
	if len(l.Matches) > 0 {
		return l.Matches[0].Start + 1
	}
	return 1
}

// writeTruncated handles a printed line whose byte length exceeds
// MaxColumns: either a fixed omission message, or (with MaxColumnsPreview)
// a rune-boundary-safe prefix of the limit plus a summary suffix.
func (p *Standard) writeTruncated(l sink.Line, content []byte, isMatch bool) error {
	p.writePrefixFields(l, isMatch, defaultColumn(l))

	if !p.cfg.MaxColumnsPreview {
		msg := "[Omitted long line]"
		switch {
		case isMatch && p.cfg.OnlyMatching:
			msg = "[Omitted long matching line]"
		case isMatch && len(l.Matches) > 1:
			msg = "[Omitted long line with multiple matches]"
		case !isMatch:
			msg = "[Omitted long context line]"
		}
		p.bw.WriteString(msg)
		p.bw.WriteByte(p.cfg.lineTerm())
		return nil
	}

	prefix := runeBoundedPrefix(content, p.cfg.MaxColumns)
	p.bw.Write(prefix)

	remaining := 0
	for _, mm := range l.Matches {
		if mm.Start >= len(prefix) {
			remaining++
		}
	}
	if remaining > 0 {
		fmt.Fprintf(p.bw, " [... %d more matches]", remaining)
	} else {
		p.bw.WriteString(" [... omitted end of long line]")
	}
	p.bw.WriteByte(p.cfg.lineTerm())
	return nil
}

// runeBoundedPrefix returns a prefix of content no longer than limit bytes,
// trimmed back to the nearest preceding UTF-8 rune boundary so a multi-byte
// character is never split in the middle.
func runeBoundedPrefix(content []byte, limit int) []byte {
	if limit >= len(content) {
		return content
	}
	end := limit
	for end > 0 && !utf8.RuneStart(content[end]) {
		end--
	}
	return content[:end]
}

func (p *Standard) writePathPrefix(isMatch bool) {
	if p.cfg.UseColor && p.colorPath != nil {
		p.colorPath.Fprint(p.bw, p.path)
	} else {
		p.bw.WriteString(p.path)
	}
	p.bw.WriteByte(p.sepFor(isMatch))
}

func (p *Standard) writeField(val string, isMatch bool) {
	if p.cfg.UseColor && p.colorLine != nil {
		p.colorLine.Fprint(p.bw, val)
	} else {
		p.bw.WriteString(val)
	}
	p.bw.WriteByte(p.sepFor(isMatch))
}

func (p *Standard) sepFor(isMatch bool) byte {
	if isMatch {
		return p.cfg.matchSep()
	}
	return p.cfg.contextSep()
}

// writeHighlighted writes content with each range in matches wrapped in
// the match color.
func (p *Standard) writeHighlighted(content []byte, matches []matcher.Match) {
	if len(matches) == 0 {
		if p.colorMatch != nil {
			p.colorMatch.Fprint(p.bw, string(content))
		} else {
			p.bw.Write(content)
		}
		return
	}
	pos := 0
	for _, mm := range matches {
		if mm.Start > pos {
			p.bw.Write(content[pos:mm.Start])
		}
		if p.colorMatch != nil {
			p.colorMatch.Fprint(p.bw, string(content[mm.Start:mm.End]))
		} else {
			p.bw.Write(content[mm.Start:mm.End])
		}
		pos = mm.End
	}
	if pos < len(content) {
		p.bw.Write(content[pos:])
	}
	if len(content) == 0 || content[len(content)-1] != p.cfg.lineTerm() {
		p.bw.WriteByte(p.cfg.lineTerm())
	}
}

func fgAttr(name string, intense bool) (color.Attribute, bool) {
	m := map[string]color.Attribute{
		"black": color.FgBlack, "red": color.FgRed, "green": color.FgGreen,
		"yellow": color.FgYellow, "blue": color.FgBlue, "magenta": color.FgMagenta,
		"cyan": color.FgCyan, "white": color.FgWhite,
	}
	if intense {
		m = map[string]color.Attribute{
			"black": color.FgHiBlack, "red": color.FgHiRed, "green": color.FgHiGreen,
			"yellow": color.FgHiYellow, "blue": color.FgHiBlue, "magenta": color.FgHiMagenta,
			"cyan": color.FgHiCyan, "white": color.FgHiWhite,
		}
	}
	a, ok := m[name]
	return a, ok
}

func bgAttr(name string, intense bool) (color.Attribute, bool) {
	m := map[string]color.Attribute{
		"black": color.BgBlack, "red": color.BgRed, "green": color.BgGreen,
		"yellow": color.BgYellow, "blue": color.BgBlue, "magenta": color.BgMagenta,
		"cyan": color.BgCyan, "white": color.BgWhite,
	}
	if intense {
		m = map[string]color.Attribute{
			"black": color.BgHiBlack, "red": color.BgHiRed, "green": color.BgHiGreen,
			"yellow": color.BgHiYellow, "blue": color.BgHiBlue, "magenta": color.BgHiMagenta,
			"cyan": color.BgHiCyan, "white": color.BgHiWhite,
		}
	}
	a, ok := m[name]
	return a, ok
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
