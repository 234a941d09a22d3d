package globset

import (
	"testing"

	"github.com/bmatcuk/doublestar/v4"
)

// TestStrategyEquivalence checks the invariant that for every glob g
// and every path p, strategy(g).matches(p) == regex(g).matches(p).
func TestStrategyEquivalence(t *testing.T) {
	patterns := []string{
		"*.go",
		"**/*.go",
		"main.go",
		"src/*",
		"**/testdata/*",
		"*.min.js",
		"foo/**/bar.txt",
		"README*",
		"*ignore",
	}
	paths := []string{
		"main.go",
		"src/main.go",
		"src/sub/main.go",
		"a/b/testdata/x",
		"x.min.js",
		"foo/a/b/bar.txt",
		"foo/bar.txt",
		"README.md",
		"README",
		".gitignore",
		"pkg/.gitignore",
	}
	for _, p := range patterns {
		g, err := Parse(p, Options{})
		if err != nil {
			t.Fatalf("parse %q: %v", p, err)
		}
		for _, path := range paths {
			got := g.Matches(path)
			want, _ := doublestar.Match(p, path)
			if got != want {
				t.Errorf("pattern %q path %q: strategy=%v got %v want %v", p, path, g.Strategy(), got, want)
			}
		}
	}
}

func TestSetLastMatchWinsWithNegation(t *testing.T) {
	s, err := NewSet([]string{"*.go", "!main.go"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Matches("main.go") {
		t.Error("main.go should be excluded by negation")
	}
	if !s.Matches("other.go") {
		t.Error("other.go should match *.go")
	}
}

func TestSetOrderDependentOverride(t *testing.T) {
	s, err := NewSet([]string{"!main.go", "*.go"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !s.Matches("main.go") {
		t.Error("later *.go should override earlier negation")
	}
}

func TestCaseInsensitiveDisablesFastPaths(t *testing.T) {
	g, err := Parse("*.GO", Options{CaseInsensitive: true})
	if err != nil {
		t.Fatal(err)
	}
	if g.Strategy() != StrategyRegex {
		t.Errorf("expected regex fallback for case-insensitive pattern, got %v", g.Strategy())
	}
}

func TestInvalidPatternRejected(t *testing.T) {
	if _, err := Parse("a[unclosed", Options{}); err == nil {
		t.Error("expected error for unclosed class")
	}
}

func TestRecursiveGlobMatchesDotfiles(t *testing.T) {
	g, err := Parse("**", Options{})
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"a", ".hidden", "a/b/.c"} {
		if !g.Matches(p) {
			t.Errorf("** should match %q", p)
		}
	}
}
