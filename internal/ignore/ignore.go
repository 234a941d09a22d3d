// Package ignore implements the gitignore-style filtering engine that
// decides, per path during recursive traversal, whether to search it.
// Each directory's ignore files are compiled with
// github.com/sabhiram/go-gitignore; results are combined with user globs
// (github.com/mjkoo/rgx/internal/globset) and file-type selection per a
// fixed precedence order.
package ignore

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	gogitignore "github.com/sabhiram/go-gitignore"

	"github.com/mjkoo/rgx/internal/globset"
)

// Origin names which ignore-file tier a decision came from, highest
// precedence first.
type Origin int

const (
	OriginCLIOverride Origin = iota
	OriginFileType
	OriginRGIgnore
	OriginIgnore
	OriginGitignore
	OriginGlobal
	OriginVCSExclude
)

// Verdict is the outcome of a path query.
type Verdict int

const (
	VerdictNeutral Verdict = iota
	VerdictAccept
	VerdictReject
)

// Config holds the user-facing toggles that shape ignore decisions.
type Config struct {
	// Hidden, when false, causes dot-prefixed entries to be rejected
	// regardless of what the ignore files say.
	Hidden bool
	// RequireGit causes gitignore files outside a git repository to be
	// ignored unless NoRequireGit is set.
	RequireGit   bool
	NoRequireGit bool
	// OneFileSystem is carried but not read: neither Tree nor the walker
	// stops at filesystem boundaries.
	OneFileSystem bool
	// ExtraIgnoreFiles are additional gitignore-formatted files layered at
	// the "user-specified files" precedence tier (between --glob overrides
	// and .rgignore).
	ExtraIgnoreFiles []string
	// Overrides are --glob/--iglob patterns, highest precedence.
	Overrides []string
	// IgnoreCase makes Overrides case-insensitive (--iglob).
	IgnoreCase bool
	// Types selects which file-type globs are required to match, and
	// TypesNot which are forbidden.
	Types    *TypeSet
	TypeList []string
	TypeNot  []string
}

// node holds the compiled matchers contributed by one directory level.
type node struct {
	dir         string
	rgignore    *gogitignore.GitIgnore
	ignore      *gogitignore.GitIgnore
	gitignore   *gogitignore.GitIgnore
	vcsExclude  *gogitignore.GitIgnore
	isGitRepo   bool
}

// Tree is a read-only-after-push ignore decision engine for one directory
// hierarchy. It is shared by all walker goroutines; nodes are pushed and
// popped in a stack discipline matching the walker's recursion, so no
// locking is required as long as each goroutine owns a disjoint subtree
// (the default walker in internal/walk recurses single-threaded per root).
type Tree struct {
	cfg       Config
	overrides *globset.Set
	global    *gogitignore.GitIgnore
	extra     *gogitignore.GitIgnore
	stack     []*node
}

// NewTree constructs a Tree. globalIgnoreFile is the path to the user's
// global gitignore (e.g. core.excludesFile), empty if none.
func NewTree(cfg Config, globalIgnoreFile string) (*Tree, error) {
	t := &Tree{cfg: cfg}

	if len(cfg.Overrides) > 0 {
		opts := globset.Options{CaseInsensitive: cfg.IgnoreCase}
		set, err := globset.NewSet(cfg.Overrides, opts)
		if err != nil {
			return nil, err
		}
		t.overrides = set
	}

	if globalIgnoreFile != "" {
		if gi, err := compileFile(globalIgnoreFile); err == nil {
			t.global = gi
		}
	}

	if len(cfg.ExtraIgnoreFiles) > 0 {
		var lines []string
		for _, f := range cfg.ExtraIgnoreFiles {
			data, err := os.ReadFile(f)
			if err != nil {
				continue
			}
			lines = append(lines, splitLines(string(data))...)
		}
		if len(lines) > 0 {
			t.extra = gogitignore.CompileIgnoreLines(lines...)
		}
	}

	return t, nil
}

// Push loads dir's ignore files and pushes a new tree level. Pop must be
// called once traversal of dir (and its children) completes.
func (t *Tree) Push(dir string) {
	n := &node{dir: dir}
	n.rgignore, _ = compileFile(filepath.Join(dir, ".rgignore"))
	n.ignore, _ = compileFile(filepath.Join(dir, ".ignore"))
	n.gitignore, _ = compileFile(filepath.Join(dir, ".gitignore"))
	n.vcsExclude, _ = compileFile(filepath.Join(dir, ".git", "info", "exclude"))
	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		n.isGitRepo = true
	}
	t.stack = append(t.stack, n)
}

// Pop removes the most recently pushed level.
func (t *Tree) Pop() {
	if len(t.stack) > 0 {
		t.stack = t.stack[:len(t.stack)-1]
	}
}

func compileFile(path string) (*gogitignore.GitIgnore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := splitLines(string(data))
	if len(lines) == 0 {
		return nil, nil
	}
	return gogitignore.CompileIgnoreLines(lines...), nil
}

func splitLines(s string) []string {
	var out []string
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		out = append(out, sc.Text())
	}
	return out
}

// Decide evaluates entryPath (an absolute path, or one relative to the
// process's cwd — anything filepath.Rel can work with) and returns whether
// it should be searched/descended into. rootRelPath is entryPath relative
// to the search root, '/'-separated, used for --glob override matching.
//
// Precedence, highest wins: CLI --glob/--iglob overrides >
// file-type selection > .rgignore > .ignore > .gitignore > parent-directory
// inherited versions (outer to inner, so an inner file overrides an outer
// one of the same kind — the loop below scans the stack innermost-first) >
// global gitignore > vcs info/exclude.
func (t *Tree) Decide(entryPath, rootRelPath, name string, isDir bool) (Verdict, Origin) {
	if !t.cfg.Hidden && strings.HasPrefix(name, ".") && name != "." {
		return VerdictReject, OriginIgnore
	}

	if t.overrides != nil {
		if _, negated, ok := t.overrides.MatchedBy(filepath.ToSlash(rootRelPath)); ok {
			if negated {
				return VerdictAccept, OriginCLIOverride
			}
			return VerdictReject, OriginCLIOverride
		}
	}

	if t.cfg.Types != nil {
		switch t.cfg.Types.Decide(name, t.cfg.TypeList, t.cfg.TypeNot) {
		case VerdictReject:
			return VerdictReject, OriginFileType
		case VerdictAccept:
			return VerdictAccept, OriginFileType
		}
	}

	requireGit := t.cfg.RequireGit && !t.cfg.NoRequireGit
	anyGitRoot := false
	for _, n := range t.stack {
		if n.isGitRepo {
			anyGitRoot = true
			break
		}
	}

	for i := len(t.stack) - 1; i >= 0; i-- {
		n := t.stack[i]
		rel, err := filepath.Rel(n.dir, entryPath)
		if err != nil {
			rel = name
		}
		rel = filepath.ToSlash(rel)
		if n.rgignore != nil && n.rgignore.MatchesPath(rel) {
			return VerdictReject, OriginRGIgnore
		}
		if n.ignore != nil && n.ignore.MatchesPath(rel) {
			return VerdictReject, OriginIgnore
		}
		if (!requireGit || anyGitRoot) && n.gitignore != nil && n.gitignore.MatchesPath(rel) {
			return VerdictReject, OriginGitignore
		}
	}

	if t.extra != nil && t.extra.MatchesPath(rootRelPath) {
		return VerdictReject, OriginIgnore
	}
	if t.global != nil && t.global.MatchesPath(rootRelPath) {
		return VerdictReject, OriginGlobal
	}
	if !requireGit || anyGitRoot {
		for _, n := range t.stack {
			if n.vcsExclude != nil {
				rel, err := filepath.Rel(n.dir, entryPath)
				if err == nil && n.vcsExclude.MatchesPath(filepath.ToSlash(rel)) {
					return VerdictReject, OriginVCSExclude
				}
			}
		}
	}

	return VerdictNeutral, OriginGitignore
}
