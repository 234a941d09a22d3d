package rgargs

import (
	"testing"

	"github.com/mjkoo/rgx/internal/linebuf"
)

func TestQuitAfterMatchRequiresQuietAndNoStats(t *testing.T) {
	r := Resolve(Options{Quiet: true})
	if !r.QuitAfterMatch {
		t.Error("expected quit-after-match when quiet and stats disabled")
	}
	r2 := Resolve(Options{Quiet: true, StatsEnabled: true})
	if r2.QuitAfterMatch {
		t.Error("expected no quit-after-match when stats are enabled")
	}
}

func TestThreadsSingleWhenSorting(t *testing.T) {
	r := Resolve(Options{Sort: "path", Paths: []string{"a", "b", "c"}})
	if r.Threads != 1 {
		t.Errorf("expected 1 thread when sorting, got %d", r.Threads)
	}
}

func TestThreadsSingleForOneFile(t *testing.T) {
	r := Resolve(Options{Paths: []string{"a"}})
	if r.Threads != 1 {
		t.Errorf("expected 1 thread for a single file, got %d", r.Threads)
	}
}

func TestColumnDefaultsTrueUnderVimgrep(t *testing.T) {
	r := Resolve(Options{Vimgrep: true})
	if !r.Column {
		t.Error("expected column=true under vimgrep")
	}
	if !r.LineNumber {
		t.Error("expected line-number=true when column is true")
	}
}

func TestMmapNeverWhenManyPaths(t *testing.T) {
	paths := make([]string, 11)
	for i := range paths {
		paths[i] = "f"
	}
	r := Resolve(Options{Paths: paths})
	if r.Mmap != MmapNever {
		t.Errorf("expected mmap disabled for >10 paths, got %v", r.Mmap)
	}
}

func TestBinaryModeQuitForImplicitPaths(t *testing.T) {
	r := Resolve(Options{PathsAreImplicit: true})
	if r.BinaryMode != linebuf.BinaryQuit {
		t.Errorf("expected BinaryQuit for implicit (walker-discovered) paths, got %v", r.BinaryMode)
	}
}

func TestBinaryModeConvertForExplicitPaths(t *testing.T) {
	r := Resolve(Options{Paths: []string{"a.txt"}})
	if r.BinaryMode != linebuf.BinaryConvert {
		t.Errorf("expected BinaryConvert for explicitly named paths, got %v", r.BinaryMode)
	}
}

func TestBinaryModeNoneWhenTextSet(t *testing.T) {
	r := Resolve(Options{Text: true})
	if r.BinaryMode != linebuf.BinaryNone {
		t.Errorf("expected BinaryNone when --text is set, got %v", r.BinaryMode)
	}
}

func TestHeadingFalseUnderVimgrep(t *testing.T) {
	r := Resolve(Options{Vimgrep: true})
	if r.Heading {
		t.Error("expected heading=false under vimgrep")
	}
}
