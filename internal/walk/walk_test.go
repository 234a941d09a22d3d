package walk

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/mjkoo/rgx/internal/ignore"
)

func TestWalkVisitsFilesRecursively(t *testing.T) {
	dir := t.TempDir()
	os.MkdirAll(filepath.Join(dir, "sub"), 0o755)
	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0o644)
	os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0o644)

	var got []string
	err := Walk(Options{Roots: []string{dir}, SortByPath: true}, func(e Entry) error {
		if e.Err == nil {
			got = append(got, filepath.Base(e.Path))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(got)
	if len(got) != 2 || got[0] != "a.txt" || got[1] != "b.txt" {
		t.Errorf("got %v", got)
	}
}

func TestWalkRespectsGitignore(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("skip.txt\n"), 0o644)
	os.WriteFile(filepath.Join(dir, "skip.txt"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("x"), 0o644)

	var got []string
	err := Walk(Options{
		Roots:        []string{dir},
		SortByPath:   true,
		IgnoreConfig: ignore.Config{Hidden: true},
	}, func(e Entry) error {
		if e.Err == nil {
			got = append(got, filepath.Base(e.Path))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range got {
		if g == "skip.txt" {
			t.Errorf("expected skip.txt to be ignored, got %v", got)
		}
	}
}
