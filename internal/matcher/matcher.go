// Package matcher defines the "find next match in byte slice" capability
// consumed by internal/search, and two concrete builders: a stdlib regexp
// (RE2) engine and a github.com/dlclark/regexp2 engine for patterns that
// need backreferences or lookaround. The core only
// *consumes* matching; it never implements regex compilation itself.
package matcher

// Match is a half-open byte interval [Start, End) into whatever haystack
// it was found in.
type Match struct {
	Start, End int
}

// Matcher is the capability every regex engine implementation exposes to
// the searcher. Implementations must
// be safe for concurrent FindAt/FindIterAt calls from multiple goroutines
// (the matcher is immutable after construction and shared by reference).
type Matcher interface {
	// FindAt returns the earliest match at or after byte offset from in
	// haystack, or ok=false if there is none.
	FindAt(haystack []byte, from int) (m Match, ok bool)
	// FindIterAt calls visit for each successive non-overlapping match at
	// or after from, stopping when visit returns false or the haystack is
	// exhausted.
	FindIterAt(haystack []byte, from int, visit func(Match) bool)
	// ReplaceWithCapturesAt interpolates $N / ${name} references in
	// template against the capture groups of the match at position m,
	// appending the result to dest and returning it.
	ReplaceWithCapturesAt(haystack []byte, m Match, template []byte, dest []byte) []byte
	// LineTerminatorHint reports a line terminator this matcher is known
	// to require (e.g. a matcher built with "multi-line dot-all off" keyed
	// to '\n'), or ok=false if unknown/not applicable.
	LineTerminatorHint() (b byte, ok bool)
	// NonMatchingBytes returns a set of bytes this matcher is known to
	// never match, used to decide whether multi-line mode can be
	// downgraded to line-by-line.
	NonMatchingBytes() (set [256]bool, ok bool)
	// CaptureCount returns the number of capture groups (including group 0).
	CaptureCount() int
	// CaptureIndex returns the group index for a named capture, or -1.
	CaptureIndex(name string) int
}

// Options are the builder-time capabilities each engine supports:
// word boundary, whole-line, case-insensitive, multi-line dot-all,
// line-terminator awareness, and size limits.
type Options struct {
	CaseInsensitive  bool
	WholeLine        bool
	WordBoundary     bool
	MultilineDotAll  bool
	LineTerminator   byte // 0 means '\n'
	Unicode          bool
	SizeLimit        int // compiled-program size cap; 0 = engine default
	DFASizeLimit     int
}

func (o Options) lineTerm() byte {
	if o.LineTerminator == 0 {
		return '\n'
	}
	return o.LineTerminator
}

// Engine names which concrete builder produced a Matcher.
type Engine string

const (
	EngineDefault Engine = "default"
	EnginePCRE2   Engine = "pcre2"
	EngineAuto    Engine = "auto"
)
