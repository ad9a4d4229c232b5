package chat

import (
	"encoding/json"
	"time"
)

var (
	roleKeys    = []string{"role", "author", "actor", "sender", "speaker", "from"}
	contentKeys = []string{"content", "text", "message", "body", "value"}
	timeKeys    = []string{"timestamp", "created_at", "createdAt", "time"}
	listKeys    = []string{"messages", "chat_messages", "conversation", "turns", "history"}
)

// parseMessagesJSON handles JSON documents holding a list of role-tagged
// messages: a bare array, an object wrapping the array under a well-known
// key, or an array of such objects (Claude.ai and Cursor exports).
func parseMessagesJSON(data []byte) ([]turn, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errNotDetected
	}

	var turns []turn
	detected := false
	for _, list := range messageLists(doc) {
		for _, item := range list {
			obj, ok := item.(map[string]any)
			if !ok {
				continue
			}
			role, ok := roleOf(obj)
			if !ok {
				continue
			}
			text, ok := textOf(obj)
			if !ok {
				continue
			}
			detected = true
			turns = append(turns, turn{role: role, text: text, ts: timeOf(obj)})
		}
	}
	if !detected {
		return nil, errNotDetected
	}
	return turns, nil
}

func messageLists(doc any) [][]any {
	switch v := doc.(type) {
	case []any:
		var nested [][]any
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				if list, ok := wrappedList(obj); ok {
					nested = append(nested, list)
				}
			}
		}
		if len(nested) > 0 {
			return nested
		}
		return [][]any{v}
	case map[string]any:
		if list, ok := wrappedList(v); ok {
			return [][]any{list}
		}
	}
	return nil
}

func wrappedList(obj map[string]any) ([]any, bool) {
	for _, k := range listKeys {
		if list, ok := obj[k].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

func roleOf(obj map[string]any) (string, bool) {
	for _, k := range roleKeys {
		switch v := obj[k].(type) {
		case string:
			if v != "" {
				return v, true
			}
		case map[string]any:
			if r, ok := v["role"].(string); ok && r != "" {
				return r, true
			}
			if n, ok := v["name"].(string); ok && n != "" {
				return n, true
			}
		}
	}
	if b, ok := obj["is_user"].(bool); ok {
		if b {
			return "user", true
		}
		return "assistant", true
	}
	return "", false
}

func textOf(obj map[string]any) (string, bool) {
	for _, k := range contentKeys {
		v, ok := obj[k]
		if !ok || v == nil {
			continue
		}
		raw, err := json.Marshal(v)
		if err != nil {
			continue
		}
		text, isToolResult := contentText(raw)
		if isToolResult {
			return "", false
		}
		if text != "" {
			return text, true
		}
	}
	return "", false
}

func timeOf(obj map[string]any) time.Time {
	for _, k := range timeKeys {
		switch v := obj[k].(type) {
		case string:
			if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
				return ts
			}
		case float64:
			if v > 1e12 {
				return time.UnixMilli(int64(v)).UTC()
			}
			return unixFloat(v)
		}
	}
	return time.Time{}
}
