// Package llmjson turns free-text model output into validated values.
//
// Extraction and validation are separate steps: Extract only finds a
// candidate object, Parse decides whether it may be used.
package llmjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNoObject = errors.New("no JSON object found in response")


// Extract strips markdown fences and returns the span from the first '{' to
// the last '}'.
func Extract(text string) (string, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return "", ErrNoObject
	}
	return cleaned[start : end+1], nil
}

// Result is either a parsed value or the reason it was rejected.
type Result[T any] struct {
	value  T
	ok     bool
	reason string
}

func Parsed[T any](v T) Result[T] { return Result[T]{value: v, ok: true} }

func Invalid[T any](reason string) Result[T] { return Result[T]{reason: reason} }

// Get returns the value only when it passed validation.
func (r Result[T]) Get() (T, bool) { return r.value, r.ok }

func (r Result[T]) Valid() bool { return r.ok }

func (r Result[T]) Reason() string { return r.reason }

// Parse extracts an object from text, checks the required top-level keys,
// decodes it into T and runs validate (which may be nil). Decoding is
// type-checked but lenient: unknown keys are ignored and trailing commas
// outside string literals are repaired.
func Parse[T any](text string, required []string, validate func(T) error) Result[T] {
	raw, err := Extract(text)
	if err != nil {
		return Invalid[T](err.Error())
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &top); err != nil {
		// Models often leave trailing commas behind.
		raw = dropTrailingCommas(raw)
		if err := json.Unmarshal([]byte(raw), &top); err != nil {
			return Invalid[T](fmt.Sprintf("malformed JSON: %v", err))
		}
	}
	for _, key := range required {
		v, ok := top[key]
		if !ok || string(v) == "null" {
			return Invalid[T](fmt.Sprintf("missing required key %q", key))
		}
	}

	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return Invalid[T](fmt.Sprintf("schema mismatch: %v", err))
	}
	if validate != nil {
		if err := validate(out); err != nil {
			return Invalid[T](err.Error())
		}
	}
	return Parsed(out)
}

// dropTrailingCommas removes commas that directly precede a closing bracket
// or brace. String literals are copied untouched.
func dropTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			b.WriteByte(c)
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case ',':
			j := i + 1
			for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
