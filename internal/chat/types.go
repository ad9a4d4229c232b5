package chat

import (
	"fmt"
	"strings"
	"time"
)

// Role is the speaker of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Format identifies the exporter that produced a chat file.
type Format string

const (
	FormatClaudeCode   Format = "claude-code-jsonl"
	FormatRoleJSONL    Format = "role-jsonl"
	FormatChatGPT      Format = "chatgpt-json"
	FormatMessagesJSON Format = "messages-json"
	FormatMarkdown     Format = "markdown"
)

// Message is a single turn of a parsed conversation. Index is the position
// in the transcript and reflects conversation chronology.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// Transcript is the normalized form of a chat export.
type Transcript struct {
	Format   Format
	Messages []Message
}

// SupportedFormats lists every exporter format the normalizer detects.
func SupportedFormats() []string {
	return []string{
		string(FormatClaudeCode),
		string(FormatRoleJSONL),
		string(FormatChatGPT),
		string(FormatMessagesJSON),
		string(FormatMarkdown),
	}
}

// ParseError reports a chat file that could not be normalized.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unrecognized chat export: %s (supported formats: %s)",
		e.Reason, strings.Join(SupportedFormats(), ", "))
}

// turn is the raw output of a format parser before role mapping.
type turn struct {
	role string
	text string
	ts   time.Time
}
