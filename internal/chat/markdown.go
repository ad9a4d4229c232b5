package chat

import (
	"regexp"
	"strings"
)

const roleWords = `user|human|me|you|assistant|agent|ai|model|bot|claude|chatgpt|gpt|cursor|copilot|gemini`

var (
	// ## User, ### Assistant (12:01), # Claude:
	headingRole = regexp.MustCompile(`(?i)^#{1,6}\s*(` + roleWords + `)\s*(?:\([^)]*\))?\s*:?\s*$`)
	// _**User**_ (SpecStory), _**Agent (claude-sonnet)**_, **Human:** text
	boldRole = regexp.MustCompile(`(?i)^_?\*\*(` + roleWords + `)\s*(?:\([^)]*\))?\s*:?\s*\*\*_?\s*:?\s*(.*)$`)
	// User: text, AI: text
	prefixRole = regexp.MustCompile(`(?i)^(` + roleWords + `)\s*:\s*(.*)$`)
)

// parseMarkdown reads conversation logs that mark each turn with a role
// heading or a role prefix. Markers inside fenced code blocks are ignored.
func parseMarkdown(data []byte) ([]turn, error) {
	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	var turns []turn
	var current *turn
	var body []string
	inFence := false

	flush := func() {
		if current != nil {
			current.text = trimSeparators(strings.Join(body, "\n"))
			turns = append(turns, *current)
		}
		body = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
		}
		if !inFence {
			if role, rest, ok := matchRoleMarker(trimmed); ok {
				flush()
				current = &turn{role: role}
				if rest != "" {
					body = append(body, rest)
				}
				continue
			}
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()

	if len(turns) == 0 {
		return nil, errNotDetected
	}
	return turns, nil
}

func matchRoleMarker(line string) (role, rest string, ok bool) {
	if m := headingRole.FindStringSubmatch(line); m != nil {
		return m[1], "", true
	}
	if m := boldRole.FindStringSubmatch(line); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	if m := prefixRole.FindStringSubmatch(line); m != nil {
		return m[1], strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

// trimSeparators drops horizontal rules exporters put between turns.
func trimSeparators(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for len(lines) > 0 && isRule(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && isRule(lines[0]) {
		lines = lines[1:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isRule(line string) bool {
	t := strings.TrimSpace(line)
	return t == "---" || t == "***" || t == "___" || t == ""
}
