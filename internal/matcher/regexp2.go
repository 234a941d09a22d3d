package matcher

import (
	"strconv"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/mjkoo/rgx/internal/rgerror"
)

// regexp2Matcher implements Matcher using github.com/dlclark/regexp2, the
// PCRE2-equivalent engine used when a pattern needs
// backreferences or lookaround that RE2 cannot express. regexp2 indexes by
// rune, not byte, so every result is translated back to byte offsets.
type regexp2Matcher struct {
	re   *regexp2.Regexp
	opts Options
}

// NewRegexp2 compiles pattern with regexp2.
func NewRegexp2(pattern string, opts Options) (Matcher, error) {
	wrapped := pattern
	if opts.WordBoundary {
		wrapped = `\b(?:` + wrapped + `)\b`
	} else if opts.WholeLine {
		wrapped = `^(?:` + wrapped + `)$`
	}

	var flags regexp2.RegexOptions
	if opts.CaseInsensitive {
		flags |= regexp2.IgnoreCase
	}
	if opts.MultilineDotAll {
		flags |= regexp2.Singleline
	}

	re, err := regexp2.Compile(wrapped, flags)
	if err != nil {
		return nil, &rgerror.PatternCompileError{
			Pattern: pattern,
			Engine:  string(EnginePCRE2),
			Cause:   err,
		}
	}
	if opts.SizeLimit > 0 {
		re.MatchTimeout = 0
	}
	return &regexp2Matcher{re: re, opts: opts}, nil
}

func (m *regexp2Matcher) FindAt(haystack []byte, from int) (Match, bool) {
	if from > len(haystack) {
		return Match{}, false
	}
	s := string(haystack)
	match, err := m.re.FindStringMatchStartingAt(s, byteToRuneIndex(s, from))
	if err != nil || match == nil {
		return Match{}, false
	}
	start := runeToByteOffset(s, match.Index)
	end := runeToByteOffset(s, match.Index+match.Length)
	return Match{Start: start, End: end}, true
}

func (m *regexp2Matcher) FindIterAt(haystack []byte, from int, visit func(Match) bool) {
	s := string(haystack)
	match, err := m.re.FindStringMatchStartingAt(s, byteToRuneIndex(s, from))
	for err == nil && match != nil {
		start := runeToByteOffset(s, match.Index)
		end := runeToByteOffset(s, match.Index+match.Length)
		mm := Match{Start: start, End: end}
		if !visit(mm) {
			return
		}
		match, err = m.re.FindNextMatch(match)
	}
}

func (m *regexp2Matcher) ReplaceWithCapturesAt(haystack []byte, mm Match, template []byte, dest []byte) []byte {
	s := string(haystack)
	match, err := m.re.FindStringMatchStartingAt(s, byteToRuneIndex(s, mm.Start))
	if err != nil || match == nil {
		return dest
	}
	groups := match.Groups()
	names := make(map[string]int, len(groups))
	sub := make([]int, 2*len(groups))
	for i, g := range groups {
		if i != 0 {
			if _, err := strconv.Atoi(g.Name); err != nil {
				names[g.Name] = i
			}
		}
		if len(g.Captures) == 0 {
			sub[2*i], sub[2*i+1] = -1, -1
			continue
		}
		c := g.Captures[len(g.Captures)-1]
		sub[2*i] = runeToByteOffset(s, c.Index) - mm.Start
		sub[2*i+1] = sub[2*i] + (runeToByteOffset(s, c.Index+c.Length) - runeToByteOffset(s, c.Index))
	}
	return expandTemplate(dest, template, haystack[mm.Start:], sub, names)
}

func (m *regexp2Matcher) LineTerminatorHint() (byte, bool) { return 0, false }

func (m *regexp2Matcher) NonMatchingBytes() ([256]bool, bool) {
	var set [256]bool
	return set, false
}

func (m *regexp2Matcher) CaptureCount() int {
	return m.re.GroupCount()
}

func (m *regexp2Matcher) CaptureIndex(name string) int {
	n := m.re.GroupNumberFromName(name)
	return n
}

func byteToRuneIndex(s string, byteIdx int) int {
	if byteIdx <= 0 {
		return 0
	}
	return utf8.RuneCountInString(s[:byteIdx])
}

func runeToByteOffset(s string, runeIdx int) int {
	if runeIdx <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == runeIdx {
			return i
		}
		n++
	}
	return len(s)
}
