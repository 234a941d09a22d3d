package matcher

import (
	"errors"
	"strings"
)

// reUnsupportedDenylist names substrings that, when they appear in an RE2
// compile error, mean the pattern used a construct RE2 structurally cannot
// support (backreferences, lookaround) rather than a plain syntax mistake.
var reUnsupportedDenylist = []string{
	"invalid escape sequence",
	"missing argument to repetition operator",
	"invalid or unsupported Perl syntax",
}

// NewAuto tries the RE2 engine first. If compilation fails with an error
// that looks like an RE2-unsupported construct (backreferences, lookaround)
// rather than a plain syntax error, it retries with regexp2. Any other
// failure is returned as-is so the caller reports the real syntax problem.
func NewAuto(pattern string, opts Options) (Matcher, Engine, error) {
	m, err := NewRE2(pattern, opts)
	if err == nil {
		return m, EngineDefault, nil
	}
	if !looksRE2Unsupported(err) {
		return nil, EngineDefault, err
	}
	m2, err2 := NewRegexp2(pattern, opts)
	if err2 != nil {
		return nil, EnginePCRE2, errors.Join(err, err2)
	}
	return m2, EnginePCRE2, nil
}

func looksRE2Unsupported(err error) bool {
	msg := err.Error()
	for _, needle := range []string{`\1`, `\2`, `\3`, `\4`, `\5`, `\6`, `\7`, `\8`, `\9`, "(?=", "(?!", "(?<=", "(?<!"} {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	for _, needle := range reUnsupportedDenylist {
		if strings.Contains(msg, needle) {
			return true
		}
	}
	return false
}
