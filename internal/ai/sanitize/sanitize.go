// Package sanitize pulls a JSON value out of free-form model output.
//
// Models wrap JSON in markdown fences, greetings and trailing commentary. The
// extraction keeps the span from the first opening bracket of the requested
// kind to the last matching closing bracket. This is lossy: a second
// same-kind bracket pair in commentary after the payload widens the span and
// the slice no longer parses, in which case the whole text is tried once
// before giving up.
package sanitize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedAIOutput is returned when no JSON value of the requested kind
// can be recovered. Callers pick their own fallback.
var ErrMalformedAIOutput = errors.New("malformed ai output")

type Kind int

const (
	Object Kind = iota
	Array
)

func (k Kind) String() string {
	if k == Array {
		return "array"
	}
	return "object"
}

func (k Kind) brackets() (byte, byte) {
	if k == Array {
		return '[', ']'
	}
	return '{', '}'
}

// ExtractJSON returns the decoded value (map[string]any or []any).
func ExtractJSON(raw string, kind Kind) (any, error) {
	b, err := Locate(raw, kind)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAIOutput, err)
	}
	return out, nil
}

// Decode extracts a value of the given kind and unmarshals it into T.
func Decode[T any](raw string, kind Kind) (T, error) {
	var out T
	b, err := Locate(raw, kind)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("%w: decode %s: %v", ErrMalformedAIOutput, kind, err)
	}
	return out, nil
}

// Locate returns the raw bytes of the recovered JSON value.
func Locate(raw string, kind Kind) ([]byte, error) {
	text := StripFences(raw)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedAIOutput)
	}
	open, closing := kind.brackets()
	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, closing)
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no %s found", ErrMalformedAIOutput, kind)
	}
	if candidate := []byte(text[start : end+1]); json.Valid(candidate) {
		return candidate, nil
	}
	if whole := []byte(text); json.Valid(whole) {
		if k, ok := kindOf(whole); ok && k == kind {
			return whole, nil
		}
	}
	return nil, fmt.Errorf("%w: %s did not parse", ErrMalformedAIOutput, kind)
}

// StripFences trims whitespace and a surrounding ``` / ```json fence.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if len(text) >= 4 && strings.EqualFold(text[:4], "json") {
			text = text[4:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func kindOf(b []byte) (Kind, bool) {
	t := bytes.TrimSpace(b)
	if len(t) == 0 {
		return Object, false
	}
	switch t[0] {
	case '[':
		return Array, true
	case '{':
		return Object, true
	default:
		return Object, false
	}
}
