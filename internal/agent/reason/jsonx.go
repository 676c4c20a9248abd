package reason

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// basic safety limit to avoid pathological model outputs
const maxOutputLen = 128 * 1024

var (
	fencedBlockRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")
	thinkTagRe    = regexp.MustCompile(`^<[^>]+>\s*`)
)

// ExtractJSON pulls a JSON object out of raw model output, tolerating
// markdown fences, thinking tags, and surrounding prose.
func ExtractJSON(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)
	if len(text) > maxOutputLen {
		text = text[:maxOutputLen]
	}
	text = thinkTagRe.ReplaceAllString(text, "")

	candidate := text
	if m := fencedBlockRe.FindStringSubmatch(text); m != nil {
		candidate = strings.TrimSpace(m[1])
	}

	if out, ok := tryParse(candidate); ok {
		return out, nil
	}

	// Fall back to walking the text for a balanced object.
	if out, ok := extractBalanced(text); ok {
		return out, nil
	}

	return nil, errors.New("no valid JSON object in model output")
}

func tryParse(s string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	return m, true
}

// extractBalanced walks from each opening brace looking for its matching
// close, parsing each balanced span until one succeeds.
func extractBalanced(s string) (map[string]any, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0 && start < len(s); {
		depth := 0
		inString := false
		escaped := false
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
					if out, ok := tryParse(s[start : i+1]); ok {
						return out, true
					}
					i = len(s)
				}
			}
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start = start + 1 + next
	}
	return nil, false
}

// ---- typed accessors over decoded JSON ----

func jsonString(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func jsonFloat(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case string:
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(v)), &f); err == nil {
			return f
		}
	}
	return 0
}

func jsonObject(m map[string]any, key string) map[string]any {
	if v, ok := m[key].(map[string]any); ok {
		return v
	}
	return map[string]any{}
}

func jsonStringSlice(m map[string]any, key string) []string {
	raw, ok := m[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
