package correlate

import (
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/vibetrace/internal/commits"
)

var (
	runAt        = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	knownCommits = []commits.Commit{
		{SHA: "a1b2c3d4e5f60718293a4b5c6d7e8f9012345678", AuthoredAt: time.Date(2026, 7, 30, 9, 0, 0, 0, time.UTC)},
		{SHA: "a1b2ffff00000000000000000000000000000000"},
		{SHA: "0f9e8d7c6b5a4938271605f4e3d2c1b0a9988776"},
	}
)

func TestExtractObjectArray_ProseWrapped(t *testing.T) {
	raw := "Here are the links I found:\n```json\n[{\"a\": 1}, {\"b\": \"x]y\"}]\n```\nLet me know."
	elems, ok := extractObjectArray(raw)
	if !ok {
		t.Fatal("expected array to be found")
	}
	if len(elems) != 2 {
		t.Errorf("expected 2 elements, got %d", len(elems))
	}
}

func TestExtractObjectArray_SkipsNonObjectArrays(t *testing.T) {
	raw := `Files [1] and [2, 3] changed. Links: [{"chatExcerpt": "see [docs]"}]`
	elems, ok := extractObjectArray(raw)
	if !ok {
		t.Fatal("expected array to be found")
	}
	if len(elems) != 1 || !strings.Contains(string(elems[0]), "see [docs]") {
		t.Errorf("unexpected elements: %s", elems)
	}
}

func TestExtractObjectArray_EmptyArray(t *testing.T) {
	elems, ok := extractObjectArray("No matches: []")
	if !ok {
		t.Fatal("expected empty array to qualify")
	}
	if len(elems) != 0 {
		t.Errorf("expected no elements, got %d", len(elems))
	}
}

func TestExtractObjectArray_NoArray(t *testing.T) {
	for _, raw := range []string{
		"",
		"I could not find any links.",
		`{"links": "none"}`,
		`[{"a": 1}`,
		`["just", "strings"]`,
	} {
		if _, ok := extractObjectArray(raw); ok {
			t.Errorf("expected no array in %q", raw)
		}
	}
}

func TestExtractObjectArray_IgnoresArraysInsideMalformedList(t *testing.T) {
	raw := `[{"chatExcerpt": "fix the retry loop", "codeChanges": [{"file": "retry.go"}], "reasoning": "same bug", "confidence": 85},]`
	if elems, ok := extractObjectArray(raw); ok {
		t.Errorf("expected malformed list to be rejected, got %s", elems)
	}
}

func TestExtractObjectArray_SkipsMalformedListBeforeValidOne(t *testing.T) {
	raw := `Draft: [{"codeChanges": [{"file": "x.go"}]},] Final: [{"chatExcerpt": "final"}]`
	elems, ok := extractObjectArray(raw)
	if !ok {
		t.Fatal("expected array to be found")
	}
	if len(elems) != 1 || !strings.Contains(string(elems[0]), "final") {
		t.Errorf("unexpected elements: %s", elems)
	}
}

func TestDecodeLinks_ValidatesEachEntry(t *testing.T) {
	raw := `[
	  {"chatExcerpt": "fix the retry loop", "codeChanges": [{"file": "retry.go", "description": "add backoff"}], "reasoning": "same bug", "confidence": 85},
	  {"chatExcerpt": "", "codeChanges": [{"file": "a.go"}], "reasoning": "r", "confidence": 50},
	  {"chatExcerpt": "x", "codeChanges": [], "reasoning": "r", "confidence": 50},
	  {"chatExcerpt": "x", "codeChanges": [{"file": "  "}], "reasoning": "r", "confidence": 50},
	  {"chatExcerpt": "x", "codeChanges": [{"file": "a.go"}], "reasoning": "r", "confidence": 101},
	  {"chatExcerpt": "x", "codeChanges": [{"file": "a.go"}], "reasoning": "r", "confidence": -1},
	  {"chatExcerpt": "x", "codeChanges": [{"file": "a.go"}], "reasoning": "r", "confidence": "high"},
	  {"chatExcerpt": "x", "codeChanges": [{"file": "a.go"}], "reasoning": "r"},
	  {"chatExcerpt": "x", "codeChanges": [{"file": "a.go"}], "reasoning": "  ", "confidence": 10},
	  {"chatExcerpt": "second", "codeChanges": [{"file": "b.go"}], "reasoning": "r", "confidence": 99.6}
	]`

	res := decodeLinks(raw, knownCommits, runAt)
	if !res.Found {
		t.Fatal("expected list to be found")
	}
	if len(res.Links) != 2 {
		t.Fatalf("expected 2 valid links, got %d", len(res.Links))
	}
	if res.Rejected != 8 {
		t.Errorf("expected 8 rejected, got %d", res.Rejected)
	}
	if res.Malformed != 1 {
		t.Errorf("expected 1 malformed, got %d", res.Malformed)
	}
	if res.Links[0].Confidence != 85 {
		t.Errorf("expected confidence 85, got %d", res.Links[0].Confidence)
	}
	if res.Links[1].Confidence != 100 {
		t.Errorf("expected rounded confidence 100, got %d", res.Links[1].Confidence)
	}
	for _, l := range res.Links {
		if l.Confidence < 0 || l.Confidence > 100 {
			t.Errorf("confidence out of range: %d", l.Confidence)
		}
	}
}

func TestDecodeLinks_AssignsUniqueIDs(t *testing.T) {
	raw := `[
	  {"id": "oracle-1", "chatExcerpt": "a", "codeChanges": [{"file": "a.go"}], "reasoning": "r", "confidence": 10},
	  {"id": "oracle-1", "chatExcerpt": "b", "codeChanges": [{"file": "b.go"}], "reasoning": "r", "confidence": 20},
	  {"id": "oracle-1", "chatExcerpt": "c", "codeChanges": [{"file": "c.go"}], "reasoning": "r", "confidence": 30}
	]`

	res := decodeLinks(raw, knownCommits, runAt)
	seen := map[string]bool{}
	for i, l := range res.Links {
		if l.ID == "oracle-1" {
			t.Errorf("link %d kept the oracle id", i)
		}
		if seen[l.ID] {
			t.Errorf("duplicate id %q", l.ID)
		}
		seen[l.ID] = true
	}
	if res.Links[0].ID != "vibe-1785585600000-0" {
		t.Errorf("unexpected id format: %q", res.Links[0].ID)
	}
}

func TestDecodeLinks_ResolvesCommitSHAs(t *testing.T) {
	raw := `[{"chatExcerpt": "a", "reasoning": "r", "confidence": 70, "codeChanges": [
	  {"file": "full.go", "commitSha": "A1B2C3D4E5F60718293A4B5C6D7E8F9012345678"},
	  {"file": "short.go", "commitSha": "0f9e8d7"},
	  {"file": "ambiguous.go", "commitSha": "a1b2"},
	  {"file": "unknown.go", "commitSha": "deadbeef"},
	  {"file": "tiny.go", "commitSha": "0f9"}
	]}]`

	res := decodeLinks(raw, knownCommits, runAt)
	if len(res.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(res.Links))
	}
	changes := res.Links[0].CodeChanges
	want := []string{knownCommits[0].SHA, knownCommits[2].SHA, "", "", ""}
	for i, w := range want {
		if changes[i].CommitSHA != w {
			t.Errorf("change %d (%s): expected sha %q, got %q", i, changes[i].File, w, changes[i].CommitSHA)
		}
	}
	if changes[0].Timestamp == nil || !changes[0].Timestamp.Equal(knownCommits[0].AuthoredAt) {
		t.Errorf("expected commit date on resolved change, got %v", changes[0].Timestamp)
	}
	if changes[3].Timestamp != nil {
		t.Errorf("expected no timestamp on unresolved change, got %v", changes[3].Timestamp)
	}
}

func TestDecodeLinks_Timestamps(t *testing.T) {
	raw := `[
	  {"chatExcerpt": "a", "codeChanges": [{"file": "a.go"}], "reasoning": "r", "confidence": 1, "timestamp": "2026-07-29T10:15:00+02:00"},
	  {"chatExcerpt": "b", "codeChanges": [{"file": "b.go"}], "reasoning": "r", "confidence": 1, "timestamp": "yesterday"},
	  {"chatExcerpt": "c", "codeChanges": [{"file": "c.go"}], "reasoning": "r", "confidence": 1}
	]`

	res := decodeLinks(raw, knownCommits, runAt)
	if len(res.Links) != 3 {
		t.Fatalf("expected 3 links, got %d", len(res.Links))
	}
	if want := time.Date(2026, 7, 29, 8, 15, 0, 0, time.UTC); !res.Links[0].Timestamp.Equal(want) {
		t.Errorf("expected %v, got %v", want, res.Links[0].Timestamp)
	}
	if !res.Links[1].Timestamp.Equal(runAt) || !res.Links[2].Timestamp.Equal(runAt) {
		t.Errorf("expected run time fallback, got %v and %v", res.Links[1].Timestamp, res.Links[2].Timestamp)
	}
}

func TestDecodeLinks_TruncatesLongExcerpt(t *testing.T) {
	excerpt := strings.TrimSpace(strings.Repeat("word ", 200))
	raw := `[{"chatExcerpt": "` + excerpt + `", "codeChanges": [{"file": "a.go"}], "reasoning": "r", "confidence": 5}]`

	res := decodeLinks(raw, knownCommits, runAt)
	if len(res.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(res.Links))
	}
	if n := len(strings.Fields(res.Links[0].ChatExcerpt)); n != maxExcerptWords {
		t.Errorf("expected %d words, got %d", maxExcerptWords, n)
	}
}

func TestDecodeLinks_MalformedListNotFound(t *testing.T) {
	raw := `[{"chatExcerpt": "fix the retry loop", "codeChanges": [{"file": "retry.go"}], "reasoning": "same bug", "confidence": 85},]`
	res := decodeLinks(raw, knownCommits, runAt)
	if res.Found {
		t.Error("expected no list")
	}
	if res.Rejected != 0 {
		t.Errorf("expected nothing rejected, got %d", res.Rejected)
	}
}

func TestDecodeLinks_NotFound(t *testing.T) {
	res := decodeLinks("Sorry, I can't help with that.", knownCommits, runAt)
	if res.Found {
		t.Error("expected no list")
	}
	if len(res.Links) != 0 {
		t.Errorf("expected no links, got %d", len(res.Links))
	}
}
