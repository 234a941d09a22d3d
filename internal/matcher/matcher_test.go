package matcher

import "testing"

func TestRE2FindAt(t *testing.T) {
	m, err := NewRE2(`\d+`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	mm, ok := m.FindAt([]byte("abc 123 def 456"), 0)
	if !ok || mm.Start != 4 || mm.End != 7 {
		t.Errorf("got %+v, %v", mm, ok)
	}
	mm2, ok2 := m.FindAt([]byte("abc 123 def 456"), mm.End)
	if !ok2 || mm2.Start != 12 || mm2.End != 15 {
		t.Errorf("got %+v, %v", mm2, ok2)
	}
}

func TestRE2FindIterAtCollectsAll(t *testing.T) {
	m, err := NewRE2(`\d+`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	m.FindIterAt([]byte("a1 b22 c333"), 0, func(mm Match) bool {
		got = append(got, "")
		_ = mm
		return true
	})
	if len(got) != 3 {
		t.Errorf("expected 3 matches, got %d", len(got))
	}
}

func TestRE2WholeLineOption(t *testing.T) {
	m, err := NewRE2(`foo`, Options{WholeLine: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.FindAt([]byte("foo"), 0); !ok {
		t.Error("expected exact line match")
	}
	if _, ok := m.FindAt([]byte("foobar"), 0); ok {
		t.Error("expected no match when line has trailing content")
	}
}

func TestRE2CaseInsensitive(t *testing.T) {
	m, err := NewRE2(`HELLO`, Options{CaseInsensitive: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.FindAt([]byte("say hello world"), 0); !ok {
		t.Error("expected case-insensitive match")
	}
}

func TestRE2ReplaceWithCaptures(t *testing.T) {
	m, err := NewRE2(`(\w+)@(\w+)`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	haystack := []byte("user@host")
	mm, ok := m.FindAt(haystack, 0)
	if !ok {
		t.Fatal("expected match")
	}
	got := m.ReplaceWithCapturesAt(haystack, mm, []byte("$2:$1"), nil)
	if string(got) != "host:user" {
		t.Errorf("got %q", got)
	}
}

func TestRegexp2Backreference(t *testing.T) {
	m, err := NewRegexp2(`(\w+) \1`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := m.FindAt([]byte("the the fox"), 0); !ok {
		t.Error("expected backreference match")
	}
	if _, ok := m.FindAt([]byte("the fox"), 0); ok {
		t.Error("expected no match without repeated word")
	}
}

func TestAutoFallsBackToRegexp2ForBackreference(t *testing.T) {
	_, engine, err := NewAuto(`(\w+) \1`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if engine != EnginePCRE2 {
		t.Errorf("expected fallback to pcre2, got %v", engine)
	}
}

func TestAutoUsesRE2WhenPossible(t *testing.T) {
	_, engine, err := NewAuto(`\d+`, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if engine != EngineDefault {
		t.Errorf("expected default engine, got %v", engine)
	}
}

func TestAutoSurfacesPlainSyntaxError(t *testing.T) {
	_, _, err := NewAuto(`(unclosed`, Options{})
	if err == nil {
		t.Fatal("expected error for unclosed group")
	}
}
