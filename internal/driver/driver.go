// Package driver implements the two execution paths a search run can take:
// single-threaded sequential search, and a parallel worker pool with an
// ordered serializer so output stays contiguous per haystack regardless of
// completion order.
package driver

import (
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/mjkoo/rgx/internal/haystack"
	"github.com/mjkoo/rgx/internal/matcher"
	"github.com/mjkoo/rgx/internal/search"
	"github.com/mjkoo/rgx/internal/sink"
	"github.com/mjkoo/rgx/internal/stats"
	"github.com/mjkoo/rgx/internal/walk"
)

// Printer is the subset of internal/printer's interface the driver needs:
// bind to a haystack and receive its event stream.
type Printer interface {
	sink.Sink
	Bind(path string, m matcher.Matcher)
}

// Config wires together everything one run needs.
type Config struct {
	Threads       int
	SearchCfg     search.Config
	HaystackOpts  haystack.Options
	WalkOpts      walk.Options
	Matcher       matcher.Matcher
	NewPrinter    func(w io.Writer) Printer
	Stdout        io.Writer
	Stats         *stats.Stats
	QuitAfterMatch bool
	SearchSeparator func(w io.Writer) error
}

// Run executes the walk + search + print pipeline per cfg, choosing the
// single-threaded or parallel path based on cfg.Threads.
func Run(cfg Config) error {
	if cfg.Threads <= 1 {
		return runSingleThreaded(cfg)
	}
	return runParallel(cfg)
}

func runSingleThreaded(cfg Config) error {
	p := cfg.NewPrinter(cfg.Stdout)
	first := true
	quit := false

	err := walk.Walk(cfg.WalkOpts, func(e walk.Entry) error {
		if quit {
			return errStop
		}
		if e.Err != nil {
			return nil // per-path errors are non-fatal to the overall walk
		}
		if !first && cfg.SearchSeparator != nil {
			cfg.SearchSeparator(cfg.Stdout)
		}
		first = false

		matched, err := searchOne(cfg, p, e.Path)
		if err != nil {
			return err
		}
		if matched && cfg.QuitAfterMatch {
			quit = true
		}
		return nil
	})
	if err == errStop {
		err = nil
	}
	return err
}

var errStop = errOf("driver: stop walking")

type errString string

func (e errString) Error() string { return string(e) }
func errOf(s string) error        { return errString(s) }

// searchOne opens, searches, and prints one haystack, returning whether it
// produced at least one match.
func searchOne(cfg Config, p Printer, path string) (bool, error) {
	h, err := haystack.Open(path, cfg.HaystackOpts)
	if err != nil {
		return false, nil // the haystack is skipped; the open error is not reported
	}
	defer h.Close()

	p.Bind(path, cfg.Matcher)

	s, err := search.New(cfg.SearchCfg, cfg.Matcher)
	if err != nil {
		return false, err
	}

	tracker := &matchTracker{Sink: p}

	switch h.Strategy {
	case haystack.StrategySlice:
		if cfg.HaystackOpts.MultiLine {
			err = s.SearchMultiLine(h.Data, tracker)
		} else {
			err = s.SearchSlice(h.Data, tracker)
		}
	case haystack.StrategyMultiLine:
		err = s.SearchMultiLine(h.Data, tracker)
	default:
		err = s.SearchReader(h.Reader, tracker)
	}
	if err != nil {
		return tracker.matched, err
	}
	if cfg.Stats != nil {
		cfg.Stats.AddHaystack(tracker.finishStats)
	}
	return tracker.matched, nil
}

// matchTracker wraps a sink.Sink to observe whether any Matched event
// passed through, without requiring every Printer implementation to track
// it itself.
type matchTracker struct {
	sink.Sink
	matched     bool
	finishStats sink.FinishStats
}

func (t *matchTracker) Send(ev sink.Event) (bool, error) {
	if ev.Kind == sink.Matched {
		t.matched = true
	}
	if ev.Kind == sink.Finish {
		t.finishStats = ev.Stats
	}
	return t.Sink.Send(ev)
}

// job is one unit of parallel work: a discovered path plus its position in
// walker emission order, used by the serializer to flush output in order
// rather than completion order.
type job struct {
	seq  int
	path string
}

type result struct {
	seq     int
	buf     []byte
	matched bool
	err     error
}

// runParallel runs the parallel path: each worker
// searches into its own buffer; a serializer flushes buffers to stdout in
// walker emission order.
func runParallel(cfg Config) error {
	jobs := make(chan job, cfg.Threads*2)
	results := make(chan result, cfg.Threads*2)

	var eg errgroup.Group
	for i := 0; i < cfg.Threads; i++ {
		eg.Go(func() error {
			return worker(cfg, jobs, results)
		})
	}

	var walkErr error
	go func() {
		seq := 0
		walkErr = walk.Walk(cfg.WalkOpts, func(e walk.Entry) error {
			if e.Err != nil {
				return nil
			}
			jobs <- job{seq: seq, path: e.Path}
			seq++
			return nil
		})
		close(jobs)
	}()

	go func() {
		eg.Wait()
		close(results)
	}()

	serializerErr := serialize(cfg, results)

	if walkErr != nil {
		return walkErr
	}
	return serializerErr
}

func worker(cfg Config, jobs <-chan job, results chan<- result) error {
	for j := range jobs {
		var buf writeBuffer
		p := cfg.NewPrinter(&buf)
		matched, err := searchOne(cfg, p, j.path)
		results <- result{seq: j.seq, buf: buf.Bytes(), matched: matched, err: err}
	}
	return nil
}

// serialize receives results (possibly out of order) and flushes them to
// stdout strictly in seq order, so the inter-haystack search-separator
// decision observes emission order, not completion order.
func serialize(cfg Config, results <-chan result) error {
	pending := map[int]result{}
	next := 0
	first := true

	flush := func(r result) error {
		if len(r.buf) == 0 {
			return r.err
		}
		if !first && cfg.SearchSeparator != nil {
			cfg.SearchSeparator(cfg.Stdout)
		}
		first = false
		if _, err := cfg.Stdout.Write(r.buf); err != nil {
			return err
		}
		return r.err
	}

	for r := range results {
		pending[r.seq] = r
		for {
			r2, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			if err := flush(r2); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeBuffer is a minimal growable io.Writer, avoiding a bytes.Buffer
// dependency edge the driver doesn't otherwise need.
type writeBuffer struct {
	data []byte
}

func (w *writeBuffer) Write(p []byte) (int, error) {
	w.data = append(w.data, p...)
	return len(p), nil
}

func (w *writeBuffer) Bytes() []byte { return w.data }
