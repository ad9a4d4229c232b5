package chat

import (
	"regexp"
	"strings"
)

var (
	diffMarker = regexp.MustCompile(`(?m)^(?:diff --git |\+\+\+ |--- |@@ )`)
	filePath   = regexp.MustCompile(`(?i)(?:^|[\s(\x60'"])(?:[\w.-]+/)*[\w-]+\.(?:go|py|js|jsx|ts|tsx|mjs|cjs|rb|rs|java|kt|kts|swift|c|cc|cpp|h|hpp|cs|php|scala|sql|sh|bash|vue|svelte|css|scss|html|proto|ex|exs|dart|lua|tf)\b`)
	inlineCall = regexp.MustCompile("`[^`\\n]*(?:\\(\\)|\\w\\(|\\s:?=\\s|=>|->|::)[^`\\n]*`")
	devKeyword = regexp.MustCompile(`(?i)\b(?:implement(?:ed|ing|ation)?|refactor(?:ed|ing)?|bug(?:s|fix)?|fix(?:ed|es|ing)?|error|exception|stack ?trace|traceback|function|method|class|endpoint|migration|deploy(?:ed|ing)?|commit(?:ted)?|tests?|testing|compile[sd]?|build(?:s|ing)?|null pointer|undefined is not|segfault)\b`)
)

// IsCodeRelevant reports whether a message plausibly discusses code.
func IsCodeRelevant(content string) bool {
	if strings.Contains(content, "```") {
		return true
	}
	return diffMarker.MatchString(content) ||
		filePath.MatchString(content) ||
		inlineCall.MatchString(content) ||
		devKeyword.MatchString(content)
}

// FilterRelevant returns the code-relevant messages in their original order.
// The result may be empty; callers decide how to fall back.
func FilterRelevant(msgs []Message) []Message {
	var out []Message
	for _, m := range msgs {
		if IsCodeRelevant(m.Content) {
			out = append(out, m)
		}
	}
	return out
}
