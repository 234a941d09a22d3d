package matcher

import (
	"regexp"
	"strings"

	"github.com/mjkoo/rgx/internal/rgerror"
)

// re2Matcher implements Matcher using the stdlib RE2 engine.
type re2Matcher struct {
	re      *regexp.Regexp
	opts    Options
	names   map[string]int
}

// NewRE2 compiles pattern with the stdlib regexp package, applying the
// builder options in Options.
func NewRE2(pattern string, opts Options) (Matcher, error) {
	wrapped := wrapPattern(pattern, opts)
	re, err := regexp.Compile(wrapped)
	if err != nil {
		return nil, &rgerror.PatternCompileError{
			Pattern: pattern,
			Engine:  string(EngineDefault),
			Cause:   err,
			Hint:    hintFor(err),
		}
	}
	if opts.SizeLimit > 0 && re.Longest() == false {
		// regexp does not expose program size directly; nothing further
		// to enforce beyond what Compile already bounded internally.
	}
	names := map[string]int{}
	for i, n := range re.SubexpNames() {
		if n != "" {
			names[n] = i
		}
	}
	return &re2Matcher{re: re, opts: opts, names: names}, nil
}

func wrapPattern(pattern string, opts Options) string {
	var b strings.Builder
	if opts.CaseInsensitive {
		b.WriteString("(?i)")
	}
	if opts.MultilineDotAll {
		b.WriteString("(?s)")
	}
	if opts.WordBoundary {
		b.WriteString(`\b(?:`)
		b.WriteString(pattern)
		b.WriteString(`)\b`)
	} else if opts.WholeLine {
		b.WriteString(`^(?:`)
		b.WriteString(pattern)
		b.WriteString(`)$`)
	} else {
		b.WriteString(pattern)
	}
	return b.String()
}

// hintFor inspects a compile error for constructs RE2 structurally cannot
// support, so the caller can surface "try --engine pcre2".
func hintFor(err error) string {
	msg := err.Error()
	for _, needle := range []string{"backreference", "lookahead", "lookbehind", "\\1", "\\2"} {
		if strings.Contains(msg, needle) {
			return "this pattern may require backreferences or look-around; retry with --engine pcre2"
		}
	}
	return ""
}

func (m *re2Matcher) FindAt(haystack []byte, from int) (Match, bool) {
	if from > len(haystack) {
		return Match{}, false
	}
	loc := m.re.FindIndex(haystack[from:])
	if loc == nil {
		return Match{}, false
	}
	return Match{Start: from + loc[0], End: from + loc[1]}, true
}

func (m *re2Matcher) FindIterAt(haystack []byte, from int, visit func(Match) bool) {
	pos := from
	for pos <= len(haystack) {
		mm, ok := m.FindAt(haystack, pos)
		if !ok {
			return
		}
		if !visit(mm) {
			return
		}
		if mm.End == mm.Start {
			pos = mm.End + 1
		} else {
			pos = mm.End
		}
	}
}

func (m *re2Matcher) ReplaceWithCapturesAt(haystack []byte, mm Match, template []byte, dest []byte) []byte {
	sub := m.re.FindSubmatchIndex(haystack[mm.Start:])
	if sub == nil {
		return dest
	}
	return expandTemplate(dest, template, haystack[mm.Start:], sub, m.names)
}

func (m *re2Matcher) LineTerminatorHint() (byte, bool) {
	return 0, false
}

func (m *re2Matcher) NonMatchingBytes() ([256]bool, bool) {
	var set [256]bool
	if !m.opts.MultilineDotAll {
		set['\n'] = m.re.MatchString("\n") == false && looksLineBound(m.re)
		if set['\n'] {
			return set, true
		}
	}
	return set, false
}

// looksLineBound is a conservative heuristic: only report the newline as
// known-non-matching when the compiled pattern contains no "." that could
// have been given (?s), which wrapPattern already accounts for via
// opts.MultilineDotAll — this is a secondary, cheap confirmation used only
// to decide the ReadByLine-downgrade optimization, never correctness.
func looksLineBound(re *regexp.Regexp) bool {
	return !strings.Contains(re.String(), "(?s)")
}

func (m *re2Matcher) CaptureCount() int { return m.re.NumSubexp() + 1 }

func (m *re2Matcher) CaptureIndex(name string) int {
	if i, ok := m.names[name]; ok {
		return i
	}
	return -1
}
