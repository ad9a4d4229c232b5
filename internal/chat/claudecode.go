package chat

import (
	"bufio"
	"bytes"
	"encoding/json"
	"time"
)

// ccLine is a single line of a Claude Code session JSONL file.
type ccLine struct {
	Type       string    `json:"type"`
	UUID       string    `json:"uuid"`
	ParentUUID *string   `json:"parentUuid"`
	SessionID  string    `json:"sessionId"`
	Timestamp  string    `json:"timestamp"`
	Message    ccMessage `json:"message"`
}

type ccMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// parseClaudeCode orders turns by following parentUuid links from each root.
// Lines the chain walk misses are appended in file order.
func parseClaudeCode(data []byte) ([]turn, error) {
	byUUID := make(map[string]*ccLine)
	var fileOrder []string
	var roots []string
	children := make(map[string]string)

	scanner := newLineScanner(data)
	for scanner.Scan() {
		var line ccLine
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			continue
		}
		if line.Type != "user" && line.Type != "assistant" {
			continue
		}
		if line.UUID == "" || byUUID[line.UUID] != nil {
			continue
		}

		byUUID[line.UUID] = &line
		fileOrder = append(fileOrder, line.UUID)

		if line.ParentUUID == nil || *line.ParentUUID == "" {
			roots = append(roots, line.UUID)
		} else {
			children[*line.ParentUUID] = line.UUID
		}
	}
	if len(byUUID) == 0 {
		return nil, errNotDetected
	}

	visited := make(map[string]bool, len(byUUID))
	ordered := make([]*ccLine, 0, len(byUUID))
	for _, rootID := range roots {
		for current := rootID; current != "" && !visited[current]; current = children[current] {
			if line, ok := byUUID[current]; ok {
				visited[current] = true
				ordered = append(ordered, line)
			}
		}
	}
	for _, id := range fileOrder {
		if !visited[id] {
			ordered = append(ordered, byUUID[id])
		}
	}

	turns := make([]turn, 0, len(ordered))
	for _, line := range ordered {
		text, isToolResult := contentText(line.Message.Content)
		if isToolResult || text == "" {
			continue
		}
		ts, _ := time.Parse(time.RFC3339Nano, line.Timestamp)
		turns = append(turns, turn{role: line.Type, text: text, ts: ts})
	}
	return turns, nil
}

func newLineScanner(data []byte) *bufio.Scanner {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 1024*1024), 10*1024*1024)
	return scanner
}
