// Package jsonutil extracts typed JSON from LLM responses. Models routinely
// wrap their JSON in ```json fences or lead with prose, so decoding goes
// through fence stripping and delimiter matching before unmarshalling.
package jsonutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripFences removes a surrounding ``` or ```json code fence, returning the
// inner content. Text without a leading fence is returned unchanged.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return text
	}
	end := len(lines) - 1
	for i := len(lines) - 1; i > 0; i-- {
		if strings.TrimSpace(lines[i]) == "```" {
			end = i
			break
		}
	}
	return strings.Join(lines[1:end], "\n")
}

// ExtractJSON returns the first JSON object or array embedded in text,
// matching the opening delimiter with the last corresponding closing one.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return "", fmt.Errorf("no JSON content found")
	}
	closing := "}"
	if text[start] == '[' {
		closing = "]"
	}
	text = text[start:]
	end := strings.LastIndex(text, closing)
	if end == -1 {
		return "", fmt.Errorf("no closing %s found", closing)
	}
	return text[:end+1], nil
}

// Parse strips fences from raw response text, extracts the embedded JSON,
// and unmarshals it into T. The error includes a truncated preview of the
// offending text so malformed provider output is debuggable from logs.
func Parse[T any](raw string) (T, error) {
	var zero T
	jsonStr, err := ExtractJSON(StripFences(raw))
	if err != nil {
		return zero, fmt.Errorf("%w (raw length: %d)", err, len(raw))
	}
	var result T
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		preview := jsonStr
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		return zero, fmt.Errorf("invalid JSON: %w (text: %s)", err, preview)
	}
	return result, nil
}
