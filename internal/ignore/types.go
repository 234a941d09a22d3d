package ignore

import (
	"sort"

	"github.com/mjkoo/rgx/internal/globset"
)

// TypeSet holds the built-in and user-extended file-type-to-glob tables
// that back --type/--type-not/--type-add/--type-clear.
type TypeSet struct {
	globs map[string][]string
}

// defaultTypeGlobs is the built-in file-type-to-glob table, extended with
// a few more common types that ripgrep itself ships built in.
func defaultTypeGlobs() map[string][]string {
	return map[string][]string{
		"c":          {"*.c", "*.h"},
		"cpp":        {"*.cpp", "*.cc", "*.cxx", "*.hpp", "*.hh", "*.hxx", "*.h", "*.inl"},
		"css":        {"*.css", "*.scss"},
		"go":         {"*.go"},
		"html":       {"*.html", "*.htm"},
		"java":       {"*.java"},
		"js":         {"*.js", "*.mjs", "*.cjs", "*.jsx"},
		"json":       {"*.json"},
		"markdown":   {"*.md", "*.markdown", "*.mdx"},
		"py":         {"*.py", "*.pyi"},
		"rust":       {"*.rs"},
		"ts":         {"*.ts", "*.tsx", "*.mts", "*.cts"},
		"yaml":       {"*.yml", "*.yaml"},
		"toml":       {"*.toml"},
		"proto":      {"*.proto"},
		"shell":      {"*.sh", "*.bash", "*.zsh"},
		"make":       {"Makefile", "makefile", "*.mk"},
		"dockerfile": {"Dockerfile", "*.dockerfile"},
	}
}

// NewTypeSet returns a TypeSet seeded with the built-in table.
func NewTypeSet() *TypeSet {
	return &TypeSet{globs: defaultTypeGlobs()}
}

// Clear removes every built-in glob for name, keeping the name present
// (with no patterns) so a subsequent Add still attaches to it. Matches
// ripgrep's --type-clear semantics.
func (s *TypeSet) Clear(name string) {
	s.globs[name] = nil
}

// Add appends one more glob pattern to name's set (--type-add NAME:GLOB).
func (s *TypeSet) Add(name, glob string) {
	s.globs[name] = append(s.globs[name], glob)
}

// Names returns the sorted list of known type names.
func (s *TypeSet) Names() []string {
	names := make([]string, 0, len(s.globs))
	for n := range s.globs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Globs returns the glob patterns registered for name.
func (s *TypeSet) Globs(name string) []string { return s.globs[name] }

// Decide reports whether name (a file's base name) should be
// force-accepted or force-rejected by the selected/excluded type lists.
// A neutral verdict means "no type filter applies; fall through".
func (s *TypeSet) Decide(name string, selected, excluded []string) Verdict {
	for _, t := range excluded {
		if s.matchesType(name, t) {
			return VerdictReject
		}
	}
	if len(selected) == 0 {
		return VerdictNeutral
	}
	for _, t := range selected {
		if s.matchesType(name, t) {
			return VerdictAccept
		}
	}
	return VerdictReject
}

func (s *TypeSet) matchesType(name, typeName string) bool {
	for _, pat := range s.globs[typeName] {
		g, err := globset.Parse(pat, globset.Options{})
		if err != nil {
			continue
		}
		if g.Matches(name) {
			return true
		}
	}
	return false
}
