package correlate

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
)

const (
	maxExcerptWords = 150
	minSHAPrefix    = 4
)

var linkValidate = validator.New()

// candidate is one untrusted link proposed by the oracle.
type candidate struct {
	ChatExcerpt string            `json:"chatExcerpt" validate:"required"`
	CodeChanges []candidateChange `json:"codeChanges" validate:"required,min=1,dive"`
	Reasoning   string            `json:"reasoning" validate:"required"`
	Confidence  *float64          `json:"confidence" validate:"required,gte=0,lte=100"`
	Timestamp   string            `json:"timestamp"`
}

type candidateChange struct {
	File        string `json:"file" validate:"required"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	CommitSHA   string `json:"commitSha"`
}

// decodeResult is the outcome of decoding one oracle response. Found is false
// when the response held no list of objects at all.
type decodeResult struct {
	Links     []VibeLink
	Rejected  int
	Malformed int
	Found     bool
}

// decodeLinks extracts the first JSON array of objects from raw and validates
// every element on its own. Invalid elements are skipped and counted, and
// Malformed counts those that did not decode into the link shape at all.
// IDs are derived from runAt and the position in the validated output.
func decodeLinks(raw string, known []commits.Commit, runAt time.Time) decodeResult {
	elems, ok := extractObjectArray(raw)
	if !ok {
		return decodeResult{}
	}

	res := decodeResult{Found: true, Links: []VibeLink{}}
	for _, elem := range elems {
		var c candidate
		if err := json.Unmarshal(elem, &c); err != nil {
			res.Rejected++
			res.Malformed++
			continue
		}
		c.normalize()
		if err := linkValidate.Struct(c); err != nil {
			res.Rejected++
			continue
		}
		link := c.toLink(known, runAt)
		link.ID = fmt.Sprintf("vibe-%d-%d", runAt.UnixMilli(), len(res.Links))
		res.Links = append(res.Links, link)
	}
	return res
}

func (c *candidate) normalize() {
	c.ChatExcerpt = strings.TrimSpace(c.ChatExcerpt)
	c.Reasoning = strings.TrimSpace(c.Reasoning)
	changes := c.CodeChanges[:0]
	for _, ch := range c.CodeChanges {
		ch.File = strings.TrimSpace(ch.File)
		if ch.File == "" {
			continue
		}
		ch.Description = strings.TrimSpace(ch.Description)
		ch.CommitSHA = strings.ToLower(strings.TrimSpace(ch.CommitSHA))
		changes = append(changes, ch)
	}
	c.CodeChanges = changes
}

func (c candidate) toLink(known []commits.Commit, runAt time.Time) VibeLink {
	link := VibeLink{
		ChatExcerpt: limitWords(c.ChatExcerpt, maxExcerptWords),
		Reasoning:   c.Reasoning,
		Confidence:  int(math.Round(*c.Confidence)),
		Timestamp:   runAt,
	}
	if ts, ok := parseTime(c.Timestamp); ok {
		link.Timestamp = ts
	}

	link.CodeChanges = make([]CodeChange, 0, len(c.CodeChanges))
	for _, ch := range c.CodeChanges {
		out := CodeChange{File: ch.File, Description: ch.Description}
		commit, found := resolveSHA(ch.CommitSHA, known)
		if found {
			out.CommitSHA = commit.SHA
		}
		if ts, ok := parseTime(ch.Timestamp); ok {
			out.Timestamp = &ts
		} else if found {
			at := commit.AuthoredAt
			out.Timestamp = &at
		}
		link.CodeChanges = append(link.CodeChanges, out)
	}
	return link
}

// resolveSHA expands a full or abbreviated sha to a known commit. Ambiguous
// and unknown shas do not resolve.
func resolveSHA(sha string, known []commits.Commit) (commits.Commit, bool) {
	if len(sha) < minSHAPrefix {
		return commits.Commit{}, false
	}
	var match commits.Commit
	n := 0
	for _, c := range known {
		if strings.HasPrefix(strings.ToLower(c.SHA), sha) {
			match = c
			n++
		}
	}
	return match, n == 1
}

func parseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func limitWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return s
	}
	return strings.Join(words[:n], " ") + "..."
}

// extractObjectArray returns the elements of the first balanced [...] in raw
// that parses as a JSON array whose elements are all objects. An empty array
// qualifies.
func extractObjectArray(raw string) ([]json.RawMessage, bool) {
	for start := strings.IndexByte(raw, '['); start >= 0; {
		from := start + 1
		if end := matchBracket(raw, start); end > start {
			var elems []json.RawMessage
			if json.Unmarshal([]byte(raw[start:end+1]), &elems) == nil && allObjects(elems) {
				return elems, true
			}
			// Arrays nested inside a rejected span are never the list.
			from = end + 1
		}
		next := strings.IndexByte(raw[from:], '[')
		if next < 0 {
			break
		}
		start = from + next
	}
	return nil, false
}

// matchBracket returns the index of the ']' closing the '[' at start, or -1.
// Brackets inside JSON strings are ignored.
func matchBracket(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				if ch == ']' {
					return i
				}
				return -1
			}
			if depth < 0 {
				return -1
			}
		}
	}
	return -1
}

func allObjects(elems []json.RawMessage) bool {
	for _, e := range elems {
		t := strings.TrimSpace(string(e))
		if !strings.HasPrefix(t, "{") {
			return false
		}
	}
	return true
}
