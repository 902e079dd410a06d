package reflection

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	model "github.com/ubloom/ubloom/backend/internal/model/reflection"
)

// Policy selects how much of the reflection schema Parse enforces.
type Policy int

const (
	// Permissive only requires a well-formed JSON object. Missing or extra
	// keys, odd types and unknown categories pass through untouched.
	Permissive Policy = iota
	// Strict additionally requires every field and a known growth category.
	Strict
)

func (p Policy) String() string {
	if p == Strict {
		return "strict"
	}
	return "permissive"
}

const snippetLength = 100

var (
	errNotObject    = errors.New("model output is not a JSON object")
	errTrailingData = errors.New("trailing data after JSON object")
)

// ParseError reports model output that could not be turned into a reflection.
type ParseError struct {
	Snippet string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable model output %q: %v", e.Snippet, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse checks that sanitized model output is exactly one JSON object and
// returns its bytes unchanged. Under Strict the object must also decode into
// a complete reflection with a known category.
func Parse(text string, policy Policy) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, &ParseError{Snippet: snippet(text), Err: errNotObject}
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, &ParseError{Snippet: snippet(text), Err: err}
	}
	if err := dec.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Snippet: snippet(text), Err: errTrailingData}
	}

	if policy == Strict {
		var typed model.Reflection
		if err := json.Unmarshal(raw, &typed); err != nil {
			return nil, &ParseError{Snippet: snippet(text), Err: err}
		}
		if err := typed.Validate(); err != nil {
			return nil, &ParseError{Snippet: snippet(text), Err: err}
		}
	}
	return raw, nil
}

// snippet keeps the first snippetLength runes of s for diagnostics.
func snippet(s string) string {
	if utf8.RuneCountInString(s) <= snippetLength {
		return s
	}
	n := 0
	for i := range s {
		if n == snippetLength {
			return s[:i]
		}
		n++
	}
	return s
}
