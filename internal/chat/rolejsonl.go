package chat

import (
	"bytes"
	"encoding/json"
	"time"
)

// roleLine is one line of a generic JSONL chat log. Gateway-style logs nest
// the turn under "message"; flat logs put role and content at the top level.
type roleLine struct {
	Type      string          `json:"type"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Timestamp string          `json:"timestamp"`
	Message   *struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	} `json:"message"`
}

// parseRoleJSONL keeps turns in file order.
func parseRoleJSONL(data []byte) ([]turn, error) {
	var turns []turn
	detected := false

	scanner := newLineScanner(data)
	for scanner.Scan() {
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 || raw[0] != '{' {
			continue
		}
		var line roleLine
		if err := json.Unmarshal(raw, &line); err != nil {
			continue
		}
		if line.Type != "" && line.Type != "message" {
			continue
		}

		role, content := line.Role, line.Content
		if line.Message != nil && line.Message.Role != "" {
			role, content = line.Message.Role, line.Message.Content
		}
		if role == "" {
			continue
		}
		detected = true

		text, isToolResult := contentText(content)
		if isToolResult {
			continue
		}
		ts, _ := time.Parse(time.RFC3339Nano, line.Timestamp)
		turns = append(turns, turn{role: role, text: text, ts: ts})
	}
	if !detected {
		return nil, errNotDetected
	}
	return turns, nil
}
