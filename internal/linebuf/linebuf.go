// Package linebuf implements the bounded, growable line buffer that feeds
// the core searcher's ReadByLine strategy: it turns an arbitrary io.Reader
// into a sequence of complete lines while applying binary-data detection,
// growing only as far as a configured heap limit allows.
package linebuf

import (
	"bytes"
	"fmt"
	"io"
)

// DefaultCapacity is the buffer's starting size.
const DefaultCapacity = 64 * 1024

// BinaryMode controls how the buffer reacts to NUL (or another configured)
// bytes appearing in freshly-read data.
type BinaryMode int

const (
	// BinaryNone disables binary detection entirely.
	BinaryNone BinaryMode = iota
	// BinaryQuit truncates the filled region at the line terminator at or
	// before the offending byte and signals EOF to the caller.
	BinaryQuit
	// BinaryConvert replaces every occurrence of the offending byte with
	// the line terminator.
	BinaryConvert
)

// Config configures a Buffer's growth policy and binary detection.
type Config struct {
	// LineTerminator is the byte that ends a line (default '\n'). When CRLF
	// is in effect this is still '\n'; the '\r' is treated as ordinary
	// content by the buffer itself.
	LineTerminator byte
	// HeapLimit caps how large the buffer may grow, in bytes. Zero means
	// unbounded (bounded only by available memory).
	HeapLimit int
	// BinaryMode selects the detection behavior.
	BinaryMode BinaryMode
	// BinaryByte is the byte binary detection looks for (0x00 by default).
	BinaryByte byte
}

func (c Config) lineTerm() byte {
	if c.LineTerminator == 0 {
		return '\n'
	}
	return c.LineTerminator
}

func (c Config) binaryByte() byte {
	if c.BinaryMode == BinaryNone {
		return 0
	}
	return c.BinaryByte
}

// Buffer is a bounded ring-like byte buffer over an io.Reader. It is not
// safe for concurrent use; a Buffer is owned exclusively by one searcher
// which is owned by one sink which is owned by one worker goroutine.
type Buffer struct {
	cfg    Config
	r      io.Reader
	buf    []byte
	pos    int // absolute byte offset of buf[0] in the source stream
	end    int // filled length
	eof    bool
	lastLT int  // index just past the last line terminator within buf[:end]
	binOff *int // first detected binary byte offset, absolute, if any
}

// New wraps r in a Buffer using cfg. If cfg.HeapLimit is non-zero and below
// DefaultCapacity, the initial capacity is lowered to cfg.HeapLimit.
func New(r io.Reader, cfg Config) *Buffer {
	cap0 := DefaultCapacity
	if cfg.HeapLimit > 0 && cfg.HeapLimit < cap0 {
		cap0 = cfg.HeapLimit
	}
	return &Buffer{
		cfg: cfg,
		r:   r,
		buf: make([]byte, cap0),
	}
}

// Pos returns the absolute byte offset of the buffer's first byte in the
// source stream.
func (b *Buffer) Pos() int { return b.pos }

// Buffer returns the currently filled, not-yet-consumed prefix.
func (b *Buffer) Buffer() []byte { return b.buf[:b.end] }

// BinaryByteOffset returns the absolute offset of the first detected
// binary byte, if any.
func (b *Buffer) BinaryByteOffset() (int, bool) {
	if b.binOff == nil {
		return 0, false
	}
	return *b.binOff, true
}

// Consume logically drops the first n bytes of the current buffer. The next
// Fill call shifts the remaining bytes to the head before reading more.
// Consuming past the filled length is a programming error.
func (b *Buffer) Consume(n int) {
	if n > b.end {
		panic(fmt.Sprintf("linebuf: consume(%d) exceeds filled length %d", n, b.end))
	}
	copy(b.buf, b.buf[n:b.end])
	b.pos += n
	b.end -= n
	b.lastLT -= n
	if b.lastLT < 0 {
		b.lastLT = 0
	}
}

// Fill reads more bytes from the underlying reader into the free tail of
// the buffer, growing it if necessary. It returns io.EOF once the
// underlying reader (or binary-quit detection) has signalled end of
// input and there is nothing more to deliver.
func (b *Buffer) Fill() error {
	if b.eof {
		return io.EOF
	}

	for {
		if b.end == len(b.buf) {
			if !b.grow() {
				// A single pending line exceeds the heap limit.
				return errHeapLimit
			}
		}

		n, err := b.r.Read(b.buf[b.end:])
		if n > 0 {
			start := b.end
			b.end += n
			b.applyBinaryDetection(start, b.end)
			b.updateLastLineTerm(start)
		}
		if err != nil {
			if err == io.EOF {
				b.eof = true
				if b.end == 0 {
					return io.EOF
				}
				return nil
			}
			return err
		}
		if n == 0 {
			continue
		}

		// Enough once we have a complete line, or we've hit binary EOF.
		if b.eof || b.hasCompleteLine() {
			return nil
		}
		if b.end < len(b.buf) {
			// Reader under-filled (common for small reads); try again so
			// callers reliably see a complete line per Fill when available.
			continue
		}
	}
}

var errHeapLimit = fmt.Errorf("linebuf: configured heap limit exceeded")

// ErrHeapLimit reports whether err is the heap-limit-exceeded sentinel.
func ErrHeapLimit(err error) bool { return err == errHeapLimit }

func (b *Buffer) hasCompleteLine() bool {
	return b.lastLT > 0
}

func (b *Buffer) updateLastLineTerm(searchFrom int) {
	term := b.cfg.lineTerm()
	if idx := bytes.LastIndexByte(b.buf[searchFrom:b.end], term); idx >= 0 {
		abs := searchFrom + idx + 1
		if abs > b.lastLT {
			b.lastLT = abs
		}
	}
}

func (b *Buffer) applyBinaryDetection(start, end int) {
	if b.cfg.BinaryMode == BinaryNone {
		return
	}
	bb := b.cfg.binaryByte()
	region := b.buf[start:end]

	switch b.cfg.BinaryMode {
	case BinaryQuit:
		if idx := bytes.IndexByte(region, bb); idx >= 0 {
			absOffset := b.pos + start + idx
			if b.binOff == nil {
				o := absOffset
				b.binOff = &o
			}
			// Truncate at the last line terminator at or before absOffset.
			term := b.cfg.lineTerm()
			cut := start + idx
			if j := bytes.LastIndexByte(b.buf[:cut+1], term); j >= 0 {
				b.end = j + 1
			} else {
				b.end = start
			}
			b.eof = true
		}
	case BinaryConvert:
		if b.binOff == nil {
			if idx := bytes.IndexByte(region, bb); idx >= 0 {
				o := b.pos + start + idx
				b.binOff = &o
			}
		}
		term := b.cfg.lineTerm()
		for i, c := range region {
			if c == bb {
				region[i] = term
			}
		}
	}
}

// grow doubles the buffer's capacity, up to the heap limit. It returns
// false if growth is not possible (limit reached with no progress).
func (b *Buffer) grow() bool {
	newCap := len(b.buf) * 2
	if newCap == 0 {
		newCap = DefaultCapacity
	}
	if b.cfg.HeapLimit > 0 && newCap > b.cfg.HeapLimit {
		newCap = b.cfg.HeapLimit
	}
	if newCap <= len(b.buf) {
		return false
	}
	grown := make([]byte, newCap)
	copy(grown, b.buf[:b.end])
	b.buf = grown
	return true
}
