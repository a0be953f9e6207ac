package analysis

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrNoJSON is returned when a completion contains no JSON object at all.
var ErrNoJSON = eris.New("no JSON object found in completion")

var (
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
	bareKey       = regexp.MustCompile(`([{,]\s*)(\w+):`)
	singleQuoted  = regexp.MustCompile(`:\s*'([^']*)'`)
)

// stripFences removes every ```json and ``` marker and trims the result.
func stripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// extractCandidates returns the JSON objects a completion may hold, best
// first. Fences are stripped, then the first balanced object is taken; braces
// inside string literals do not count. The text from the first '{' to the
// last '}' follows when it differs, and is the only candidate when no object
// closes.
func extractCandidates(text string) []string {
	clean := stripFences(text)

	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start == -1 || end < start {
		return nil
	}
	greedy := clean[start : end+1]

	balanced := balancedObject(clean[start:])
	if balanced == "" || balanced == greedy {
		return []string{greedy}
	}
	return []string{balanced, greedy}
}

// balancedObject scans s, which starts with '{', and returns the prefix that
// closes the opening brace. It returns "" if the object never closes.
func balancedObject(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}

	return ""
}

// RepairJSON applies the common fixes for almost-JSON model output: trailing
// commas before '}' or ']' are removed, bare object keys are quoted, and
// single-quoted values become double-quoted. It is a heuristic, not a parser:
// an apostrophe pair inside an already valid string value can be rewritten.
func RepairJSON(s string) string {
	s = trailingComma.ReplaceAllString(s, "${1}")
	s = bareKey.ReplaceAllString(s, `${1}"${2}":`)
	s = singleQuoted.ReplaceAllString(s, `: "${1}"`)
	return s
}

// decodeCompletion parses the JSON embedded in a completion into a new T.
// Each candidate is tried as-is, then once more after RepairJSON. When every
// attempt fails the error from the first plain parse is returned.
func decodeCompletion[T any](text string) (*T, error) {
	candidates := extractCandidates(text)
	if len(candidates) == 0 {
		return nil, ErrNoJSON
	}

	var firstErr error
	for _, c := range candidates {
		var v T
		err := json.Unmarshal([]byte(c), &v)
		if err == nil {
			return &v, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	zap.L().Warn("completion is not valid JSON, attempting repair",
		zap.Error(firstErr),
		zap.String("around_error", around(candidates[0], firstErr)),
	)

	for _, c := range candidates {
		var v T
		if err := json.Unmarshal([]byte(RepairJSON(c)), &v); err == nil {
			zap.L().Info("completion JSON repaired")
			return &v, nil
		}
	}

	return nil, eris.Wrap(firstErr, "parse completion JSON")
}

// around returns up to 100 bytes either side of a syntax error offset.
func around(s string, err error) string {
	var syn *json.SyntaxError
	if !errors.As(err, &syn) {
		return truncate(s, 200)
	}

	pos := int(syn.Offset)
	end := min(len(s), pos+100)
	start := min(max(0, pos-100), end)
	return s[start:end]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
