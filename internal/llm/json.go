package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CleanJSONBlock removes markdown code fences that models add around JSON
// even when asked not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		lang := text[:idx]
		if len(lang) < 20 && !strings.ContainsAny(lang, " {") {
			text = text[idx+1:]
		}
	}
	if idx := strings.LastIndex(text, "```"); idx >= 0 {
		text = text[:idx]
	}
	return strings.TrimSpace(text)
}

// DecodeObject parses a model answer that must be a single JSON object
func DecodeObject(text string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(CleanJSONBlock(text)), &out); err != nil {
		return nil, fmt.Errorf("model output is not a JSON object: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("model output is null")
	}
	return out, nil
}
