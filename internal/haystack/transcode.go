package haystack

import (
	"bufio"
	"bytes"
	"io"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/mjkoo/rgx/internal/rgerror"
)

// utf8BOM is the three-byte UTF-8 byte-order mark. Encountering it needs no
// character-set conversion, only stripping, since the remaining bytes are
// already valid UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sniffEncoding inspects peek (the first few bytes of a haystack) for a
// byte-order mark and reports the implied encoding and the BOM's length in
// bytes. ok is false when no BOM is present.
func sniffEncoding(peek []byte) (enc encoding.Encoding, bomLen int, ok bool) {
	switch {
	case bytes.HasPrefix(peek, utf8BOM):
		return nil, len(utf8BOM), true
	case bytes.HasPrefix(peek, []byte{0xFF, 0xFE, 0x00, 0x00}):
		return unicode.UTF32(unicode.LittleEndian, unicode.IgnoreBOM), 4, true
	case bytes.HasPrefix(peek, []byte{0x00, 0x00, 0xFE, 0xFF}):
		return unicode.UTF32(unicode.BigEndian, unicode.IgnoreBOM), 4, true
	case bytes.HasPrefix(peek, []byte{0xFF, 0xFE}):
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), 2, true
	case bytes.HasPrefix(peek, []byte{0xFE, 0xFF}):
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), 2, true
	}
	return nil, 0, false
}

// maybeTranscode wraps r in a decoder that yields UTF-8 with invalid
// sequences replaced by the Unicode replacement character, when an
// explicit encoding name is set or BOM sniffing is enabled and finds a
// BOM. forced reports whether transcoding applies, which rules out the
// mmap/slice fast paths for this haystack.
func maybeTranscode(r io.Reader, explicitEncoding string, bomSniff bool) (out io.Reader, forced bool, err error) {
	if explicitEncoding != "" && explicitEncoding != "auto" {
		enc, err := htmlindex.Get(explicitEncoding)
		if err != nil {
			return nil, false, &rgerror.ConfigError{Msg: "unknown --encoding value: " + explicitEncoding}
		}
		return transform.NewReader(r, encoding.ReplaceUnsupported(enc.NewDecoder())), true, nil
	}
	if !bomSniff {
		return r, false, nil
	}

	br := bufio.NewReaderSize(r, 4)
	peek, _ := br.Peek(4)
	enc, bomLen, found := sniffEncoding(peek)
	if !found {
		return br, false, nil
	}
	if _, err := br.Discard(bomLen); err != nil && err != io.EOF {
		return nil, false, &rgerror.IOError{Cause: err}
	}
	if enc == nil { // UTF-8 BOM: strip only, no conversion needed
		return br, true, nil
	}
	return transform.NewReader(br, encoding.ReplaceUnsupported(enc.NewDecoder())), true, nil
}
