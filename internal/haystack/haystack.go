// Package haystack implements the search-worker that, for one discovered
// path, picks the cheapest viable way to get its bytes in front of the
// core searcher (mmap, whole-file read, or streaming read), optionally
// wrapping the result in a decompressor or preprocessor command.
package haystack

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"golang.org/x/sys/unix"

	"github.com/mjkoo/rgx/internal/rgerror"
)

// Strategy names which of the three search-worker paths Open
// selects for one haystack.
type Strategy int

const (
	StrategySlice    Strategy = iota // mmap'd into memory; SliceByLine/MultiLine
	StrategyMultiLine                // whole-file read for multi-line mode
	StrategyStream                   // generic reader; ReadByLine
)

// Options configures how a Haystack is opened.
type Options struct {
	MultiLine      bool
	Encoding       string // "" or "auto": BOM-sniff only; otherwise an explicit charset name
	BOMSniff       bool
	MmapAllowed    bool
	SmallFileCount bool // caller already knows this is one of ≤10 regular paths
	SearchZip      bool
	PreCommand     []string
	PreGlob        string
}

// Haystack is an opened search target: a byte source plus metadata the
// driver and searcher need.
type Haystack struct {
	Path     string
	Strategy Strategy
	Reader   io.Reader // set for StrategyStream
	Data     []byte    // set for StrategySlice / StrategyMultiLine
	Size     int64

	closer func() error
}

// Close releases any resources (mmap region, spawned subprocess) the
// haystack holds.
func (h *Haystack) Close() error {
	if h.closer != nil {
		return h.closer()
	}
	return nil
}

// Open picks a search strategy for path and returns a ready
// Haystack. path == "-" means stdin.
func Open(path string, opts Options) (*Haystack, error) {
	if path == "-" {
		r, _, terr := maybeTranscode(os.Stdin, opts.Encoding, opts.BOMSniff)
		if terr != nil {
			return nil, terr
		}
		return openStream(path, r, opts)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &rgerror.IOError{Path: path, Cause: err}
	}

	if decompressed, ok, derr := maybeDecompress(path, f, opts); ok {
		if derr != nil {
			f.Close()
			return nil, &rgerror.IOError{Path: path, Cause: derr}
		}
		return openStream(path, decompressed, opts)
	}

	if pre, ok := maybePreprocess(path, opts); ok {
		f.Close()
		return pre, nil
	}

	if opts.Encoding != "" || opts.BOMSniff {
		transcoded, forced, terr := maybeTranscode(f, opts.Encoding, opts.BOMSniff)
		if terr != nil {
			f.Close()
			return nil, terr
		}
		if forced {
			return openStream(path, transcoded, opts)
		}
		// BOM sniffing peeked ahead without finding one; rewind so the
		// mmap/slice/stream paths below see the file from byte zero.
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			f.Close()
			return nil, &rgerror.IOError{Path: path, Cause: err}
		}
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &rgerror.IOError{Path: path, Cause: err}
	}

	if opts.MmapAllowed && opts.SmallFileCount && info.Mode().IsRegular() && info.Size() > 0 {
		if h, err := openMmap(path, f, info.Size()); err == nil {
			return h, nil
		}
		// mmap failed (e.g. unsupported filesystem); fall through to a
		// regular read of the same already-open file.
		if _, serr := f.Seek(0, io.SeekStart); serr != nil {
			f.Close()
			return nil, &rgerror.IOError{Path: path, Cause: serr}
		}
	}

	if opts.MultiLine {
		data := make([]byte, 0, info.Size())
		buf := bytes.NewBuffer(data)
		if _, err := io.Copy(buf, f); err != nil {
			f.Close()
			return nil, &rgerror.IOError{Path: path, Cause: err}
		}
		f.Close()
		return &Haystack{Path: path, Strategy: StrategyMultiLine, Data: buf.Bytes(), Size: info.Size()}, nil
	}

	return &Haystack{
		Path: path, Strategy: StrategyStream, Reader: f, Size: info.Size(),
		closer: f.Close,
	}, nil
}

func openStream(path string, r io.Reader, opts Options) (*Haystack, error) {
	if opts.MultiLine {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, &rgerror.IOError{Path: path, Cause: err}
		}
		return &Haystack{Path: path, Strategy: StrategyMultiLine, Data: data}, nil
	}
	return &Haystack{Path: path, Strategy: StrategyStream, Reader: r}, nil
}

func openMmap(path string, f *os.File, size int64) (*Haystack, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &Haystack{
		Path: path, Strategy: StrategySlice, Data: data, Size: size,
		closer: func() error {
			err := unix.Munmap(data)
			f.Close()
			return err
		},
	}, nil
}

// maybeDecompress detects a compressed stream by file extension only (the
// content is not inspected for a signature) and wraps f in the matching
// streaming decompressor.
// gzip/bzip2/zstd are handled with
// github.com/klauspost/compress and the stdlib; xz/lz4/lzma/brotli are
// delegated to an external tool since no such decoder is wired into this
// module's dependency set.
func maybeDecompress(path string, f *os.File, opts Options) (io.Reader, bool, error) {
	if !opts.SearchZip {
		return nil, false, nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gz", ".tgz":
		r, err := gzip.NewReader(f)
		return r, true, err
	case ".bz2":
		return bzip2.NewReader(f), true, nil
	case ".zst":
		r, err := zstd.NewReader(f)
		if err != nil {
			return nil, true, err
		}
		return r.IOReadCloser(), true, nil
	case ".xz", ".lz4", ".lzma", ".br":
		tool := externalToolFor(ext)
		if tool == "" {
			return nil, true, &rgerror.IOError{Path: path, Cause: io.ErrUnexpectedEOF}
		}
		cmd := exec.Command(tool, "-dc", path)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, true, err
		}
		if err := cmd.Start(); err != nil {
			return nil, true, err
		}
		return stdout, true, nil
	}
	return nil, false, nil
}

func externalToolFor(ext string) string {
	switch ext {
	case ".xz":
		return "xz"
	case ".lz4":
		return "lz4"
	case ".lzma":
		return "xz"
	case ".br":
		return "brotli"
	}
	return ""
}

// maybePreprocess spawns opts.PreCommand with path appended when --pre is
// on and, if a pre-glob is configured, path matches it.
func maybePreprocess(path string, opts Options) (*Haystack, bool) {
	if len(opts.PreCommand) == 0 {
		return nil, false
	}
	if opts.PreGlob != "" {
		matched, err := filepath.Match(opts.PreGlob, filepath.Base(path))
		if err != nil || !matched {
			return nil, false
		}
	}
	args := append(append([]string{}, opts.PreCommand[1:]...), path)
	cmd := exec.Command(opts.PreCommand[0], args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, false
	}
	if err := cmd.Start(); err != nil {
		return nil, false
	}
	return &Haystack{
		Path: path, Strategy: StrategyStream, Reader: stdout,
		closer: cmd.Wait,
	}, true
}
