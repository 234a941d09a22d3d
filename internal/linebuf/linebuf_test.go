package linebuf

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func drainLines(t *testing.T, b *Buffer) []string {
	t.Helper()
	var lines []string
	for {
		if err := b.Fill(); err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("fill: %v", err)
		}
		for {
			buf := b.Buffer()
			idx := bytes.IndexByte(buf, '\n')
			if idx < 0 {
				break
			}
			lines = append(lines, string(buf[:idx+1]))
			b.Consume(idx + 1)
		}
	}
	if len(b.Buffer()) > 0 {
		lines = append(lines, string(b.Buffer()))
		b.Consume(len(b.Buffer()))
	}
	return lines
}

func TestBasicLineSplitting(t *testing.T) {
	r := strings.NewReader("one\ntwo\nthree\n")
	b := New(r, Config{})
	lines := drainLines(t, b)
	want := []string{"one\n", "two\n", "three\n"}
	if len(lines) != len(want) {
		t.Fatalf("got %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d: got %q want %q", i, lines[i], want[i])
		}
	}
}

func TestPartialFinalLine(t *testing.T) {
	r := strings.NewReader("abc\ndef")
	b := New(r, Config{})
	lines := drainLines(t, b)
	if len(lines) != 2 || lines[1] != "def" {
		t.Fatalf("got %v", lines)
	}
}

func TestGrowthUpToHeapLimit(t *testing.T) {
	longLine := strings.Repeat("x", 200*1024) + "\n"
	r := strings.NewReader(longLine)
	b := New(r, Config{HeapLimit: 1024 * 1024})
	lines := drainLines(t, b)
	if len(lines) != 1 || len(lines[0]) != len(longLine) {
		t.Fatalf("got %d lines, first len %d", len(lines), len(lines[0]))
	}
}

func TestHeapLimitExceeded(t *testing.T) {
	longLine := strings.Repeat("x", 100) + "\n"
	r := strings.NewReader(longLine)
	b := New(r, Config{HeapLimit: 32})
	err := b.Fill()
	for err == nil {
		err = b.Fill()
	}
	if !ErrHeapLimit(err) {
		t.Fatalf("expected heap limit error, got %v", err)
	}
}

func TestBinaryQuitTruncatesAtLineBoundary(t *testing.T) {
	data := "line one\nline\x00two\nline three\n"
	r := strings.NewReader(data)
	b := New(r, Config{BinaryMode: BinaryQuit, BinaryByte: 0})
	if err := b.Fill(); err != nil && err != io.EOF {
		t.Fatalf("fill: %v", err)
	}
	if off, ok := b.BinaryByteOffset(); !ok || off != strings.IndexByte(data, 0) {
		t.Fatalf("binary offset = %v, %v", off, ok)
	}
	got := string(b.Buffer())
	if got != "line one\n" {
		t.Fatalf("got %q, want truncation at first line boundary", got)
	}
}

func TestBinaryConvertReplacesBytes(t *testing.T) {
	data := "ab\x00cd\n"
	r := strings.NewReader(data)
	b := New(r, Config{BinaryMode: BinaryConvert, BinaryByte: 0})
	if err := b.Fill(); err != nil && err != io.EOF {
		t.Fatalf("fill: %v", err)
	}
	got := string(b.Buffer())
	if got != "ab\ncd\n" {
		t.Fatalf("got %q", got)
	}
}

func TestEmptyReaderYieldsEOF(t *testing.T) {
	b := New(strings.NewReader(""), Config{})
	if err := b.Fill(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
	if len(b.Buffer()) != 0 {
		t.Fatalf("expected empty buffer")
	}
}
