package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fablecraft/storyagent/core"
)

// JSONInstruction builds a system message instructing the model to reply with
// a single JSON object conforming to schema. Providers without a native
// structured-output mode prepend this and parse the reply with ParseJSON.
func JSONInstruction(schema map[string]any) core.Message {
	raw, err := json.Marshal(schema)
	if err != nil {
		raw = []byte("{}")
	}
	return core.NewSystemMessage(
		"Respond with a single JSON object conforming to this JSON schema and nothing else. " +
			"Do not wrap the object in markdown fences or add commentary.\n\nSchema:\n" + string(raw),
	)
}

// ParseJSON decodes a model reply into out, tolerating markdown code fences
// and surrounding prose around the JSON object.
func ParseJSON(content string, out any) error {
	text := strings.TrimSpace(content)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	// Fall back to the outermost braces when the reply includes prose.
	if !strings.HasPrefix(text, "{") {
		start := strings.Index(text, "{")
		end := strings.LastIndex(text, "}")
		if start < 0 || end <= start {
			return fmt.Errorf("no JSON object found in model reply")
		}
		text = text[start : end+1]
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return fmt.Errorf("parse model JSON reply: %w", err)
	}
	return nil
}
