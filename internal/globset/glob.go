// Package globset compiles shell-style glob patterns the way a gitignore
// or --glob flag set needs: literal/extension/prefix/suffix fast paths
// layered over github.com/bmatcuk/doublestar/v4 for full ** / alternate /
// class correctness, so a large pattern set doesn't pay a regex call per
// path when a cheaper check would do.
package globset

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mjkoo/rgx/internal/rgerror"
)

// Strategy names the fast path chosen for a compiled Glob.
type Strategy int

const (
	StrategyRegex Strategy = iota
	StrategyLiteral
	StrategyBasenameLiteral
	StrategyExtension
	StrategyPrefix
	StrategySuffix
	StrategyRequiredExtension
)

// Options control how a pattern is compiled.
type Options struct {
	CaseInsensitive bool
	// LiteralSeparator disallows '*'/'?'/classes from matching the path
	// separator, which is doublestar's default behavior for '/'-containing
	// patterns already; kept here for parity with ripgrep's glob options.
	LiteralSeparator bool
}

// Glob is a single compiled pattern plus its candidate matching strategy.
type Glob struct {
	source   string
	opts     Options
	strategy Strategy
	fast     string // literal/extension/prefix/suffix payload, already case-folded if needed
	suffixComponent bool
	negate   bool
}

// Parse compiles pat into a Glob. A leading '!' marks the pattern as a
// negation (meaningful only inside a Set).
func Parse(pat string, opts Options) (*Glob, error) {
	negate := false
	if strings.HasPrefix(pat, "!") && len(pat) > 1 {
		negate = true
		pat = pat[1:]
	}
	if !doublestar.ValidatePattern(pat) {
		return nil, &rgerror.GlobCompileError{Pattern: pat, Cause: errInvalidPattern}
	}
	g := &Glob{source: pat, opts: opts, negate: negate}
	g.strategy, g.fast, g.suffixComponent = classify(pat, opts)
	return g, nil
}

var errInvalidPattern = strErr("unclosed class, alternate, or dangling escape")

type strErr string

func (e strErr) Error() string { return string(e) }

// Negate reports whether the pattern was '!'-prefixed.
func (g *Glob) Negate() bool { return g.negate }

// Source returns the original pattern text (without a leading '!').
func (g *Glob) Source() string { return g.source }

// Strategy returns the fast path chosen for this pattern.
func (g *Glob) Strategy() Strategy { return g.strategy }

// classify inspects the token shape of pat (without compiling a regex) to
// pick the cheapest strategy that is still equivalent to a full glob match.
// Order goes cheapest to most general: basename-literal, literal, extension,
// prefix, suffix, required-extension, regex.
func classify(pat string, opts Options) (Strategy, string, bool) {
	if opts.CaseInsensitive {
		// Case-insensitivity disables all literal/fast strategies.
		return StrategyRegex, "", false
	}
	if !containsMeta(pat) {
		return StrategyLiteral, pat, false
	}

	// "*.ext" with no other meta characters and no separators.
	if strings.HasPrefix(pat, "*.") {
		rest := pat[2:]
		if !containsMeta(rest) && !strings.Contains(rest, "/") && rest != "" {
			return StrategyExtension, rest, false
		}
	}

	// "**/literal" basename form.
	if strings.HasPrefix(pat, "**/") {
		rest := pat[3:]
		if !containsMeta(rest) {
			if strings.HasPrefix(rest, "*.") && !containsMeta(rest[2:]) && rest[2:] != "" {
				return StrategyExtension, rest[2:], false
			}
			if !strings.Contains(rest, "/") {
				return StrategyBasenameLiteral, rest, false
			}
		}
	}

	// "prefix*" with a single trailing star and no other meta.
	if strings.HasSuffix(pat, "*") && !strings.HasSuffix(pat, "**") {
		prefix := pat[:len(pat)-1]
		if !containsMeta(prefix) {
			return StrategyPrefix, prefix, false
		}
	}

	// "*suffix" or "**/suffix"-shaped patterns.
	if strings.HasPrefix(pat, "*") && !strings.HasPrefix(pat, "**") {
		suffix := pat[1:]
		if !containsMeta(suffix) {
			return StrategySuffix, suffix, false
		}
	}
	if strings.HasPrefix(pat, "**/") || strings.HasPrefix(pat, "**") {
		trimmed := strings.TrimPrefix(strings.TrimPrefix(pat, "**/"), "**")
		if !containsMeta(trimmed) && trimmed != "" {
			return StrategySuffix, trimmed, true
		}
	}

	// Necessary-but-not-sufficient extension hint: pattern contains a
	// literal "*.ext" anywhere, still needs a full regex match.
	if idx := strings.LastIndex(pat, "*."); idx >= 0 {
		rest := pat[idx+2:]
		if !containsMeta(rest) && !strings.Contains(rest, "/") && rest != "" {
			return StrategyRequiredExtension, rest, false
		}
	}

	return StrategyRegex, "", false
}

func containsMeta(s string) bool {
	return strings.ContainsAny(s, "*?[{\\")
}

// Matches reports whether path matches the glob. path should use '/'
// separators regardless of OS, as returned by filepath.ToSlash.
func (g *Glob) Matches(path string) bool {
	basename := path
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		basename = path[idx+1:]
	}
	switch g.strategy {
	case StrategyBasenameLiteral:
		return basename == g.fast
	case StrategyLiteral:
		return path == g.fast
	case StrategyExtension:
		return !strings.Contains(path, "/") && strings.HasSuffix(path, "."+g.fast)
	case StrategyPrefix:
		return strings.HasPrefix(path, g.fast) && !strings.Contains(path[len(g.fast):], "/")
	case StrategySuffix:
		if g.suffixComponent {
			return path == g.fast || strings.HasSuffix(path, "/"+g.fast)
		}
		return strings.HasSuffix(path, g.fast) && !strings.Contains(path[:len(path)-len(g.fast)], "/")
	case StrategyRequiredExtension:
		if !strings.HasSuffix(basename, "."+g.fast) {
			return false
		}
		return g.regexMatch(path)
	default:
		return g.regexMatch(path)
	}
}

func (g *Glob) regexMatch(path string) bool {
	ok, _ := doublestar.Match(g.source, path)
	return ok
}

// entry pairs a compiled Glob with the order it was added, for
// last-match-wins semantics.
type entry struct {
	glob  *Glob
	order int
}

// Set composes multiple Globs where the last-added matching glob wins,
// with '!'-prefixed patterns expressing negation.
type Set struct {
	entries []entry
}

// NewSet compiles every pattern in pats (in order) into a Set.
func NewSet(pats []string, opts Options) (*Set, error) {
	s := &Set{}
	for i, p := range pats {
		g, err := Parse(p, opts)
		if err != nil {
			return nil, err
		}
		s.entries = append(s.entries, entry{glob: g, order: i})
	}
	return s, nil
}

// Add compiles and appends one more pattern to the set.
func (s *Set) Add(pat string, opts Options) error {
	g, err := Parse(pat, opts)
	if err != nil {
		return err
	}
	s.entries = append(s.entries, entry{glob: g, order: len(s.entries)})
	return nil
}

// Matches reports whether path is matched by the set: the last pattern
// (by addition order) that matches path determines the verdict — true
// unless that pattern is a negation.
func (s *Set) Matches(path string) bool {
	matched := false
	didMatch := false
	for _, e := range s.entries {
		if e.glob.Matches(path) {
			didMatch = true
			matched = !e.glob.Negate()
		}
	}
	return didMatch && matched
}

// MatchedBy returns the last pattern (in addition order) that matched path,
// and whether it was a negation, or (nil, false, false) if none matched.
func (s *Set) MatchedBy(path string) (glob *Glob, negated bool, ok bool) {
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if e.glob.Matches(path) {
			return e.glob, e.glob.Negate(), true
		}
	}
	return nil, false, false
}

// Len reports the number of compiled patterns in the set.
func (s *Set) Len() int { return len(s.entries) }
