package extractor

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON means the vendor text held no JSON object at all.
var ErrNoJSON = errors.New("no JSON object in vendor output")

// ParseError is returned when vendor output cannot be coerced into Analysis.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse vendor json: %v (raw=%q)", e.Err, truncate(e.Raw, 200))
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseVendorJSON strips markdown fences and surrounding prose from an LLM
// reply and decodes the first JSON object into Analysis.
func ParseVendorJSON(content string) (Analysis, error) {
	candidate := extractJSON(content)
	if candidate == "" {
		return Analysis{}, &ParseError{Raw: content, Err: ErrNoJSON}
	}
	var a Analysis
	if err := json.Unmarshal([]byte(candidate), &a); err != nil {
		return Analysis{}, &ParseError{Raw: content, Err: err}
	}
	return a, nil
}

// ChoicesContent reads choices[0].message.content from an OpenAI-style chat
// completion body. Empty when the shape does not match.
func ChoicesContent(body []byte) string {
	var obj struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(body, &obj); err != nil || len(obj.Choices) == 0 {
		return ""
	}
	return obj.Choices[0].Message.Content
}

// extractJSON finds the first balanced JSON object in a string and returns it.
// It strips common markdown fences first.
func extractJSON(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ReplaceAll(s, "\r\n", "\n")

	// Remove markdown fences (commonly output by LLMs)
	for _, r := range []string{"```json", "```JSON", "```text", "```"} {
		s = strings.ReplaceAll(s, r, "")
	}

	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}

	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[start : i+1])
			}
		}
	}

	// no balanced found
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
