// Package rgargs turns a validated bag of low-level CLI options into the
// concrete collaborators (and their defaults) the driver wires up.
package rgargs

import (
	"runtime"

	"github.com/mjkoo/rgx/internal/linebuf"
)

// Mode names the top-level operation the driver performs.
type Mode int

const (
	ModeSearchStandard Mode = iota
	ModeSearchFilesWithMatches
	ModeSearchFilesWithoutMatch
	ModeSearchCount
	ModeSearchCountMatches
	ModeSearchJSON
	ModeFiles
	ModeTypes
	ModeGenerate
)

// MmapMode mirrors ripgrep's --mmap tri-state.
type MmapMode int

const (
	MmapAuto MmapMode = iota
	MmapAlways
	MmapNever
)

// Options is the validated low-level option bag the caller (cmd/rgx)
// builds from CLI flags and/or a config file.
type Options struct {
	Pattern        string
	Paths          []string
	PathsAreImplicit bool // true when paths came from "search cwd", not argv

	Invert        bool
	CaseInsensitive bool
	CaseSmart     bool
	WordRegexp    bool
	LineRegexp    bool
	FixedStrings  bool
	MultilineDotAll bool
	Multiline     bool

	BeforeContext int
	AfterContext  int
	Context       int
	Passthru      bool

	MaxCount      int
	StatsEnabled  bool
	Quiet         bool

	Sort          string // "", "path", "modified", "accessed", "created"
	SortReverse   bool

	Vimgrep       bool
	JSON          bool
	FilesWithMatches bool
	FilesWithoutMatch bool
	Count         bool
	CountMatches  bool

	Heading       *bool // nil means "use default"
	Column        *bool
	LineNumber    *bool
	NoFilename    bool

	Mmap          MmapMode
	Threads       int

	Text          bool
	Binary        bool
	// CRLF is accepted for CLI compatibility but needs no resolution of its
	// own: the line-splitting terminator byte is always '\n' (see
	// internal/linebuf.Config.LineTerminator), and a '\r' immediately
	// preceding it is already preserved as ordinary line content, so CRLF
	// line endings round-trip correctly with no separate code path.
	CRLF bool
	Null bool

	StdinInteractive bool // false when stdout is piped/redirected
	SingleThreadedRequested bool

	Trim          bool
	NoUnicode     bool
}

func (o Options) isInteractiveStdout() bool {
	return o.StdinInteractive
}

func (o Options) isStdinSearch() bool {
	return len(o.Paths) == 1 && o.Paths[0] == "-"
}

// Resolved is the fully-resolved set of decisions derived from the raw
// flag bag: thread count, display defaults, mmap eligibility, and so on.
type Resolved struct {
	Mode Mode

	QuitAfterMatch bool
	Threads        int
	Heading        bool
	Column         bool
	LineNumber     bool
	Mmap           MmapMode
	BinaryMode     linebuf.BinaryMode
	StripLeadingDotSlash bool
	LineTerminator byte
}

// Resolve applies the argument-resolution decision table to opts.
func Resolve(opts Options) *Resolved {
	r := &Resolved{}
	r.Mode = resolveMode(opts)
	r.QuitAfterMatch = !opts.StatsEnabled && opts.Quiet
	r.Threads = resolveThreads(opts)
	r.Heading = resolveHeading(opts)
	r.Column = resolveColumn(opts)
	r.LineNumber = resolveLineNumber(opts, r.Column)
	r.Mmap = resolveMmap(opts)
	r.BinaryMode, r.LineTerminator = resolveBinaryMode(opts)
	r.StripLeadingDotSlash = opts.PathsAreImplicit
	return r
}

func resolveMode(opts Options) Mode {
	switch {
	case opts.JSON:
		return ModeSearchJSON
	case opts.FilesWithMatches:
		return ModeSearchFilesWithMatches
	case opts.FilesWithoutMatch:
		return ModeSearchFilesWithoutMatch
	case opts.CountMatches:
		return ModeSearchCountMatches
	case opts.Count:
		return ModeSearchCount
	default:
		return ModeSearchStandard
	}
}

// resolveThreads implements "1 if sorting is requested or only one file is
// being searched, else min(12, available_parallelism) unless explicitly
// overridden".
func resolveThreads(opts Options) int {
	if opts.Threads > 0 {
		return opts.Threads
	}
	if opts.Sort != "" || opts.SingleThreadedRequested {
		return 1
	}
	if len(opts.Paths) <= 1 && !opts.PathsAreImplicit {
		return 1
	}
	n := runtime.GOMAXPROCS(0)
	if n > 12 {
		n = 12
	}
	if n < 1 {
		n = 1
	}
	return n
}

// resolveHeading implements "true in single-threaded interactive-stdout
// mode and when not in vimgrep mode".
func resolveHeading(opts Options) bool {
	if opts.Heading != nil {
		return *opts.Heading
	}
	if opts.Vimgrep {
		return false
	}
	return resolveThreads(opts) == 1 && opts.isInteractiveStdout()
}

// resolveColumn implements "true iff vimgrep".
func resolveColumn(opts Options) bool {
	if opts.Column != nil {
		return *opts.Column
	}
	return opts.Vimgrep
}

// resolveLineNumber implements "true if interactive-stdout-and-not-stdin,
// or vimgrep, or column".
func resolveLineNumber(opts Options, column bool) bool {
	if opts.LineNumber != nil {
		return *opts.LineNumber
	}
	if opts.Vimgrep || column {
		return true
	}
	return opts.isInteractiveStdout() && !opts.isStdinSearch()
}

// resolveMmap returns Auto when 1 to 10 paths were given, else Never. It
// does not check whether the paths are regular files; haystack.Open checks
// that per file before mapping.
func resolveMmap(opts Options) MmapMode {
	if opts.Mmap != MmapAuto {
		return opts.Mmap
	}
	if len(opts.Paths) > 0 && len(opts.Paths) <= 10 {
		return MmapAuto
	}
	return MmapNever
}

// resolveBinaryMode implements: "Quit(0x00) for implicit (walker-discovered)
// files; Convert(0x00) for explicitly named files and stdin; None when
// --text is set or line terminator is NUL".
func resolveBinaryMode(opts Options) (linebuf.BinaryMode, byte) {
	term := byte('\n')
	if opts.Null {
		term = 0
	}
	if opts.Text || term == 0 {
		return linebuf.BinaryNone, term
	}
	if opts.PathsAreImplicit {
		return linebuf.BinaryQuit, term
	}
	return linebuf.BinaryConvert, term
}
