package printer

import (
	"bufio"
	"io"

	"github.com/segmentio/encoding/json"

	"github.com/mjkoo/rgx/internal/matcher"
	"github.com/mjkoo/rgx/internal/sink"
)

// JSON implements sink.Sink, emitting ripgrep's newline-delimited JSON
// message format (one object per line: begin/match/context/end). No
// summary message is written.
// Marshaling uses github.com/segmentio/encoding/json for throughput on
// large match streams.
type JSON struct {
	w    *bufio.Writer
	path string
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{w: bufio.NewWriter(w)}
}

func (p *JSON) Bind(path string, _ matcher.Matcher) { p.path = path }
func (p *JSON) Flush() error                        { return p.w.Flush() }

type jsonMsg struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type jsonPath struct {
	Text string `json:"text"`
}

type jsonSubmatch struct {
	Match jsonPath `json:"match"`
	Start int      `json:"start"`
	End   int      `json:"end"`
}

type jsonBegin struct {
	Path jsonPath `json:"path"`
}

type jsonLineData struct {
	Path           jsonPath       `json:"path"`
	Lines          jsonPath       `json:"lines"`
	LineNumber     uint64         `json:"line_number"`
	AbsoluteOffset uint64         `json:"absolute_offset"`
	Submatches     []jsonSubmatch `json:"submatches,omitempty"`
}

type jsonEnd struct {
	Path  jsonPath      `json:"path"`
	Stats jsonFinishStats `json:"stats"`
}

type jsonFinishStats struct {
	Matches      uint64 `json:"matches"`
	MatchedLines uint64 `json:"matched_lines"`
	ElapsedNanos int64  `json:"elapsed_nanos"`
}

func (p *JSON) Send(ev sink.Event) (bool, error) {
	switch ev.Kind {
	case sink.Begin:
		return true, p.write(jsonMsg{Type: "begin", Data: jsonBegin{Path: jsonPath{p.path}}})
	case sink.Matched:
		for _, l := range ev.Lines {
			if err := p.write(jsonMsg{Type: "match", Data: p.lineData(l)}); err != nil {
				return false, err
			}
		}
		return true, nil
	case sink.Context:
		for _, l := range ev.Lines {
			if err := p.write(jsonMsg{Type: "context", Data: p.lineData(l)}); err != nil {
				return false, err
			}
		}
		return true, nil
	case sink.Finish:
		if err := p.write(jsonMsg{Type: "end", Data: jsonEnd{
			Path: jsonPath{p.path},
			Stats: jsonFinishStats{
				Matches:      ev.Stats.Matches,
				MatchedLines: ev.Stats.MatchedLines,
				ElapsedNanos: ev.Stats.ElapsedNanos,
			},
		}}); err != nil {
			return false, err
		}
		return true, p.w.Flush()
	}
	return true, nil
}

func (p *JSON) lineData(l sink.Line) jsonLineData {
	sub := make([]jsonSubmatch, 0, len(l.Matches))
	for _, m := range l.Matches {
		sub = append(sub, jsonSubmatch{
			Match: jsonPath{string(l.Bytes[m.Start:m.End])},
			Start: m.Start,
			End:   m.End,
		})
	}
	return jsonLineData{
		Path:           jsonPath{p.path},
		Lines:          jsonPath{string(l.Bytes)},
		LineNumber:     l.LineNumber,
		AbsoluteOffset: l.AbsoluteOffset,
		Submatches:     sub,
	}
}

func (p *JSON) write(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := p.w.Write(b); err != nil {
		return err
	}
	return p.w.WriteByte('\n')
}
