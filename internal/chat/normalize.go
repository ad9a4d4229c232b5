package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// errNotDetected is returned by a format parser when the input does not have
// that format's structure.
var errNotDetected = errors.New("structure not detected")

type formatParser struct {
	format Format
	parse  func(data []byte) ([]turn, error)
}

var (
	claudeCodeParser   = formatParser{FormatClaudeCode, parseClaudeCode}
	roleJSONLParser    = formatParser{FormatRoleJSONL, parseRoleJSONL}
	chatGPTParser      = formatParser{FormatChatGPT, parseChatGPT}
	messagesJSONParser = formatParser{FormatMessagesJSON, parseMessagesJSON}
	markdownParser     = formatParser{FormatMarkdown, parseMarkdown}
)

// Normalize parses a chat export of unknown format into a transcript.
// fileName is only a hint that changes the order in which formats are tried.
func Normalize(data []byte, fileName string) (*Transcript, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Reason: "file is empty"}
	}
	if bytes.IndexByte(data, 0) >= 0 || mostlyInvalidUTF8(data) {
		return nil, &ParseError{Reason: "file is not a text export"}
	}
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), "\uFFFD"))
	}

	detected := false
	for _, p := range parserOrder(fileName) {
		turns, err := p.parse(data)
		if err != nil {
			continue
		}
		detected = true

		msgs := toMessages(turns)
		if len(msgs) == 0 {
			continue
		}
		return &Transcript{Format: p.format, Messages: msgs}, nil
	}

	if detected {
		return nil, &ParseError{Reason: "no conversation messages found"}
	}
	return nil, &ParseError{Reason: "no known chat structure detected"}
}

// maxInvalidRatio is the share of undecodable runes above which a file is
// treated as binary. Below it, stray legacy-encoded bytes are replaced.
const maxInvalidRatio = 0.1

func mostlyInvalidUTF8(data []byte) bool {
	var runes, invalid int
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			invalid++
		}
		runes++
		data = data[size:]
	}
	return float64(invalid) > float64(runes)*maxInvalidRatio
}

func parserOrder(fileName string) []formatParser {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		return []formatParser{chatGPTParser, messagesJSONParser, claudeCodeParser, roleJSONLParser, markdownParser}
	case ".md", ".markdown", ".txt":
		return []formatParser{markdownParser, claudeCodeParser, roleJSONLParser, chatGPTParser, messagesJSONParser}
	default:
		return []formatParser{claudeCodeParser, roleJSONLParser, chatGPTParser, messagesJSONParser, markdownParser}
	}
}

func toMessages(turns []turn) []Message {
	msgs := make([]Message, 0, len(turns))
	for _, t := range turns {
		text := strings.TrimSpace(t.text)
		if text == "" {
			continue
		}
		role, ok := mapRole(t.role)
		if !ok {
			continue
		}
		msgs = append(msgs, Message{
			Role:      role,
			Content:   text,
			Index:     len(msgs),
			Timestamp: t.ts,
		})
	}
	return msgs
}

// mapRole classifies an exporter's role label. Tool and system turns are not
// conversation and are dropped; any other unrecognized label is treated as
// the assistant.
func mapRole(raw string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user", "human", "me", "you", "customer", "prompt":
		return RoleUser, true
	case "system", "developer", "tool", "toolresult", "tool_result", "function", "ipython":
		return "", false
	default:
		return RoleAssistant, true
	}
}

// contentText extracts the readable text of a message content field that is
// either a plain string or an array of content blocks / parts. Returns false
// when the content is a tool result.
func contentText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil {
		return plain, false
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		var single contentBlock
		if err := json.Unmarshal(raw, &single); err == nil {
			return single.text(), single.Type == "tool_result"
		}
		return "", false
	}

	var parts []string
	for _, b := range blocks {
		var s string
		if err := json.Unmarshal(b, &s); err == nil {
			if s != "" {
				parts = append(parts, s)
			}
			continue
		}
		var cb contentBlock
		if err := json.Unmarshal(b, &cb); err != nil {
			continue
		}
		if cb.Type == "tool_result" {
			return "", true
		}
		if t := cb.text(); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n"), false
}

// contentBlock covers the block shapes used by Anthropic, OpenAI and ChatGPT
// exports. Only text blocks contribute; tool_use, thinking, images are skipped.
type contentBlock struct {
	Type    string          `json:"type"`
	Text    string          `json:"text,omitempty"`
	Parts   json.RawMessage `json:"parts,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
}

func (b contentBlock) text() string {
	switch b.Type {
	case "", "text", "input_text", "output_text":
	default:
		return ""
	}
	if b.Text != "" {
		return b.Text
	}
	if len(b.Parts) > 0 {
		t, _ := contentText(b.Parts)
		return t
	}
	return ""
}
