package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/mjkoo/rgx/internal/driver"
	"github.com/mjkoo/rgx/internal/haystack"
	"github.com/mjkoo/rgx/internal/ignore"
	"github.com/mjkoo/rgx/internal/matcher"
	"github.com/mjkoo/rgx/internal/printer"
	"github.com/mjkoo/rgx/internal/rgargs"
	"github.com/mjkoo/rgx/internal/search"
	"github.com/mjkoo/rgx/internal/stats"
	"github.com/mjkoo/rgx/internal/walk"
)

var version = "dev" // overridden by -ldflags "-X main.version=..."

func versionInfo() string {
	if version != "dev" {
		return version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	for _, kv := range info.Settings {
		if kv.Key == "vcs.revision" && len(kv.Value) >= 12 {
			return "dev-" + kv.Value[:12]
		}
	}
	return "dev"
}

// VersionFlag implements kong's BeforeApply hook to print version and exit.
type VersionFlag bool

func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

// CLI defines the command-line interface via kong struct tags, mirroring
// ripgrep's own flag surface where it maps onto this module's scope.
type CLI struct {
	Version VersionFlag `help:"Print version and exit."`

	Pattern string   `arg:"" optional:"" help:"Pattern to search for."`
	Paths   []string `arg:"" optional:"" help:"Files or directories to search."`

	IgnoreCase    bool   `help:"Case insensitive search." short:"i"`
	SmartCase     bool   `help:"Case insensitive unless pattern has uppercase." short:"S"`
	WordRegexp    bool   `help:"Only match whole words." short:"w"`
	LineRegexp    bool   `help:"Only match whole lines." short:"x"`
	FixedStrings  bool   `help:"Treat pattern as a literal string." short:"F"`
	InvertMatch   bool   `help:"Select non-matching lines." short:"v"`
	Multiline     bool   `help:"Allow matches to span multiple lines." short:"U"`
	MultilineDotAll bool `help:"Make '.' match newlines in multiline mode."`

	Context       int  `help:"Show N lines before and after each match." short:"C"`
	BeforeContext int  `help:"Show N lines before each match." short:"B"`
	AfterContext  int  `help:"Show N lines after each match." short:"A"`
	Passthru      bool `help:"Print all lines, highlighting matches."`

	MaxCount int  `help:"Stop after N matches per file." short:"m"`
	Quiet    bool `help:"Suppress normal output." short:"q"`
	Stats    bool `help:"Print aggregated statistics after searching."`

	Count            bool `help:"Only show the count of matching lines per file." short:"c"`
	CountMatches     bool `help:"Only show the count of matches per file."`
	FilesWithMatches bool `help:"Only show paths with at least one match." short:"l"`
	FilesWithoutMatch bool `help:"Only show paths with no matches."`
	JSON             bool `help:"Emit newline-delimited JSON messages."`
	Vimgrep          bool `help:"Print path:line:column:content without headings. A line with several matches is printed once."`

	Heading    bool `help:"Print the file name above matches, once per file."`
	NoHeading  bool `help:"Never print the file name as a heading."`
	LineNumber bool `help:"Show line numbers." short:"n"`
	NoLineNumber bool `help:"Never show line numbers." short:"N"`
	Column     bool `help:"Show column numbers."`
	ByteOffset bool `help:"Show the byte offset of each match."`
	OnlyMatching bool `help:"Print only the matched parts of a line." short:"o"`
	Replace    string `help:"Replace each match with the given template."`
	NullData   bool   `help:"Separate filenames with NUL instead of newline." short:"0"`
	MaxColumns int    `help:"Truncate printed lines longer than this many bytes." short:"M"`
	MaxColumnsPreview bool `help:"Show a truncated preview instead of omitting long lines entirely."`

	Color    string `help:"When to use color: auto, always, never." default:"auto" enum:"auto,always,never"`
	NoIgnore bool   `help:"Read gitignore files even outside a git repository. Ignore rules are still applied."`
	Hidden   bool   `help:"Search hidden files and directories."`
	Glob     []string `help:"Include/exclude paths matching this glob (repeatable)." short:"g"`
	Type     []string `help:"Only search files of this type (repeatable)." short:"t"`
	TypeNot  []string `help:"Don't search files of this type (repeatable)." short:"T"`
	OneFileSystem bool `help:"Accepted but not enforced: the walk crosses filesystem boundaries."`
	Follow   bool   `help:"Follow symbolic links." short:"L"`
	MaxDepth int    `help:"Limit directory recursion depth."`

	Text bool `help:"Treat binary files as text."`
	CRLF bool `help:"Treat the line terminator as CRLF."`
	Null bool `help:"Treat the line terminator as NUL."`

	Encoding string `help:"Text encoding of searched files, or 'auto' to sniff a BOM." default:"auto"`

	Threads int    `help:"Number of worker threads (0 = auto)." short:"j"`
	Sort    string `help:"Sort results by path. Every accepted value sorts by path; modified, accessed and created do not sort by time." enum:",path,modified,accessed,created"`
	SortReverse bool `help:"Accepted but ignored: the order is never reversed."`

	Engine     string `help:"Regex engine: default, pcre2, auto." default:"default" enum:"default,pcre2,auto"`
	Mmap       string `help:"Memory map mode: auto, always, never." default:"auto" enum:"auto,always,never"`

	SearchZip bool     `help:"Search inside compressed files." short:"z"`
	Pre       string   `help:"Pipe each file through this command before searching."`
	PreGlob   string   `help:"Only pipe files matching this glob through --pre."`
}

func (c *CLI) Validate() error {
	if c.Heading && c.NoHeading {
		return fmt.Errorf("--heading and --no-heading are mutually exclusive")
	}
	if c.LineNumber && c.NoLineNumber {
		return fmt.Errorf("--line-number and --no-line-number are mutually exclusive")
	}
	if c.Pattern == "" && len(os.Args) > 1 {
		return fmt.Errorf("a pattern is required")
	}
	return nil
}

func main() {
	var cli CLI
	parser := kong.Must(&cli,
		kong.Name("rgx"),
		kong.Description("Recursive, filter-aware, parallel text search."),
		kong.Vars{"version": versionInfo()},
	)

	args := os.Args[1:]
	if extra := configFileArgs(); len(extra) > 0 {
		args = append(extra, args...)
	}
	if _, err := parser.Parse(args); err != nil {
		parser.FatalIfErrorf(err)
	}

	logger := newLogger()
	defer logger.Sync()

	if err := run(cli, logger); err != nil {
		logger.Error("search failed", zap.Error(err))
		os.Exit(2)
	}
}

// newLogger builds a zap logger writing structured diagnostics to stderr,
// keeping stdout reserved for search results.
func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// configFileArgs implements RIPGREP_CONFIG_PATH: a newline-delimited file
// of extra arguments, prepended ahead of argv so explicit flags still win
// on conflicts kong resolves last-flag-wins.
func configFileArgs() []string {
	path := os.Getenv("RIPGREP_CONFIG_PATH")
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var args []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args = append(args, line)
	}
	return args
}

func run(cli CLI, logger *zap.Logger) error {
	opts := toOptions(cli)
	resolved := rgargs.Resolve(opts)

	eng := matcher.EngineDefault
	switch cli.Engine {
	case "pcre2":
		eng = matcher.EnginePCRE2
	case "auto":
		eng = matcher.EngineAuto
	}

	pattern := cli.Pattern
	if cli.FixedStrings {
		pattern = quoteMetaBytes(pattern)
	}

	matchOpts := matcher.Options{
		CaseInsensitive: resolveCase(cli),
		WholeLine:       cli.LineRegexp,
		WordBoundary:    cli.WordRegexp,
		MultilineDotAll: cli.MultilineDotAll,
	}

	var m matcher.Matcher
	var err error
	switch eng {
	case matcher.EnginePCRE2:
		m, err = matcher.NewRegexp2(pattern, matchOpts)
	case matcher.EngineAuto:
		m, _, err = matcher.NewAuto(pattern, matchOpts)
	default:
		m, err = matcher.NewRE2(pattern, matchOpts)
	}
	if err != nil {
		return err
	}

	overrides := cli.Glob
	typeSet := ignore.NewTypeSet()

	walkOpts := walk.Options{
		Roots:          resolvePaths(cli.Paths),
		FollowSymlinks: cli.Follow,
		MaxDepth:       cli.MaxDepth,
		SortByPath:     cli.Sort != "",
		IgnoreConfig: ignore.Config{
			Hidden:        cli.Hidden,
			OneFileSystem: cli.OneFileSystem,
			Overrides:     overrides,
			Types:         typeSet,
			TypeList:      cli.Type,
			TypeNot:       cli.TypeNot,
		},
	}
	if cli.NoIgnore {
		walkOpts.IgnoreConfig.NoRequireGit = true
	}

	searchCfg := search.Config{
		Invert:         cli.InvertMatch,
		BeforeContext:  contextOf(cli.BeforeContext, cli.Context),
		AfterContext:   contextOf(cli.AfterContext, cli.Context),
		Passthru:       cli.Passthru,
		MaxMatches:     cli.MaxCount,
		BinaryMode:     resolved.BinaryMode,
		LineTerminator: resolved.LineTerminator,
	}

	var preCommand []string
	if cli.Pre != "" {
		preCommand = strings.Fields(cli.Pre)
	}
	explicitEncoding := cli.Encoding
	if explicitEncoding == "auto" {
		explicitEncoding = ""
	}
	haystackOpts := haystack.Options{
		MultiLine:      cli.Multiline,
		Encoding:       explicitEncoding,
		BOMSniff:       true,
		MmapAllowed:    resolved.Mmap != rgargs.MmapNever,
		SmallFileCount: len(cli.Paths) <= 10,
		SearchZip:      cli.SearchZip,
		PreCommand:     preCommand,
		PreGlob:        cli.PreGlob,
	}

	st := &stats.Stats{}

	newPrinter := buildPrinterFactory(cli, resolved)

	cfg := driver.Config{
		Threads:        resolved.Threads,
		SearchCfg:      searchCfg,
		HaystackOpts:   haystackOpts,
		WalkOpts:       walkOpts,
		Matcher:        m,
		NewPrinter:     newPrinter,
		Stdout:         os.Stdout,
		Stats:          st,
		QuitAfterMatch: resolved.QuitAfterMatch,
	}

	err = driver.Run(cfg)

	if cli.Stats {
		printStats(os.Stderr, st.Snapshot())
	}
	return err
}

func buildPrinterFactory(cli CLI, resolved *rgargs.Resolved) func(w io.Writer) driver.Printer {
	pcfg := printer.Config{
		Heading:         resolved.Heading,
		LineNumber:      resolved.LineNumber,
		Column:          resolved.Column,
		ByteOffset:      cli.ByteOffset,
		OnlyMatching:    cli.OnlyMatching,
		NullData:        cli.NullData,
		InvertMatch:     cli.InvertMatch,
		UseColor:        cli.Color == "always" || (cli.Color == "auto" && isTerminal(os.Stdout)),
		Replacement:     []byte(cli.Replace),
		MaxColumns:        cli.MaxColumns,
		MaxColumnsPreview: cli.MaxColumnsPreview,
	}

	switch {
	case cli.JSON:
		return func(w io.Writer) driver.Printer { return printer.NewJSON(w) }
	case cli.FilesWithMatches:
		return func(w io.Writer) driver.Printer {
			return printer.NewSummary(w, printer.SummaryFilesWithMatches, false, cli.NullData)
		}
	case cli.FilesWithoutMatch:
		return func(w io.Writer) driver.Printer {
			return printer.NewSummary(w, printer.SummaryFilesWithoutMatch, false, cli.NullData)
		}
	case cli.Count:
		return func(w io.Writer) driver.Printer {
			return printer.NewSummary(w, printer.SummaryCount, false, cli.NullData)
		}
	case cli.CountMatches:
		return func(w io.Writer) driver.Printer {
			return printer.NewSummary(w, printer.SummaryCountMatches, false, cli.NullData)
		}
	case cli.Quiet:
		return func(w io.Writer) driver.Printer {
			return printer.NewSummary(w, printer.SummaryQuiet, false, cli.NullData)
		}
	default:
		return func(w io.Writer) driver.Printer { return printer.NewStandard(w, pcfg) }
	}
}

func printStats(w io.Writer, s stats.Stats) {
	fmt.Fprintf(w, "%d matched lines\n", s.MatchedLines)
	fmt.Fprintf(w, "%d matches\n", s.Matches)
	fmt.Fprintf(w, "%d files searched\n", s.SearchesCount)
	fmt.Fprintf(w, "%d files with matches\n", s.SearchesWithMatch)
	fmt.Fprintf(w, "%s elapsed\n", s.Elapsed)
}

func toOptions(cli CLI) rgargs.Options {
	var heading, column, lineNumber *bool
	if cli.Heading || cli.NoHeading {
		v := cli.Heading
		heading = &v
	}
	if cli.Column {
		v := true
		column = &v
	}
	if cli.LineNumber || cli.NoLineNumber {
		v := cli.LineNumber
		lineNumber = &v
	}

	mmap := rgargs.MmapAuto
	switch cli.Mmap {
	case "always":
		mmap = rgargs.MmapAlways
	case "never":
		mmap = rgargs.MmapNever
	}

	return rgargs.Options{
		Pattern:          cli.Pattern,
		Paths:            cli.Paths,
		PathsAreImplicit: len(cli.Paths) == 0,
		Invert:           cli.InvertMatch,
		CaseInsensitive:  cli.IgnoreCase,
		CaseSmart:        cli.SmartCase,
		WordRegexp:       cli.WordRegexp,
		LineRegexp:       cli.LineRegexp,
		FixedStrings:     cli.FixedStrings,
		MultilineDotAll:  cli.MultilineDotAll,
		Multiline:        cli.Multiline,
		BeforeContext:    contextOf(cli.BeforeContext, cli.Context),
		AfterContext:     contextOf(cli.AfterContext, cli.Context),
		Context:          cli.Context,
		Passthru:         cli.Passthru,
		MaxCount:         cli.MaxCount,
		StatsEnabled:     cli.Stats,
		Quiet:            cli.Quiet,
		Sort:             cli.Sort,
		SortReverse:      cli.SortReverse,
		Vimgrep:          cli.Vimgrep,
		JSON:             cli.JSON,
		FilesWithMatches: cli.FilesWithMatches,
		FilesWithoutMatch: cli.FilesWithoutMatch,
		Count:            cli.Count,
		CountMatches:     cli.CountMatches,
		Heading:          heading,
		Column:           column,
		LineNumber:       lineNumber,
		Mmap:             mmap,
		Threads:          cli.Threads,
		Text:             cli.Text,
		CRLF:             cli.CRLF,
		Null:             cli.Null,
		StdinInteractive: isTerminal(os.Stdout),
		Trim:             false,
		NoUnicode:        false,
	}
}

func resolveCase(cli CLI) bool {
	if cli.IgnoreCase {
		return true
	}
	if cli.SmartCase {
		return !hasUpper(cli.Pattern)
	}
	return false
}

func hasUpper(s string) bool {
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			return true
		}
	}
	return false
}

func contextOf(specific, shared int) int {
	if specific > 0 {
		return specific
	}
	return shared
}

func resolvePaths(paths []string) []string {
	if len(paths) == 0 {
		return []string{"."}
	}
	return paths
}

func quoteMetaBytes(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// parseSize parses a human-readable size string (e.g. "10MB", "1GB"),
// used for --dfa-size-limit/--regex-size-limit once those flags are wired.
func parseSize(s string) (int64, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		upper = strings.TrimSuffix(upper, "GB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "B"):
		upper = strings.TrimSuffix(upper, "B")
	}
	val, err := strconv.ParseInt(upper, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse %q as size", s)
	}
	return val * multiplier, nil
}
