package chat

import "testing"

func TestIsCodeRelevant(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"```go\nfunc main() {}\n```", true},
		{"diff --git a/x b/x\n@@ -1 +1 @@", true},
		{"can you look at internal/api/server.go", true},
		{"call `client.Do(req)` before closing", true},
		{"we need to refactor the cache", true},
		{"The deploy failed with an exception", true},
		{"--- old/config.yaml\n+++ new/config.yaml", true},
		{"the tests pass locally now", true},
		{"can you add a test for the parser", true},
		{"the build is red again", true},
		{"Compiled fine on my machine", true},
		{"thanks!", false},
		{"latest version of the contest rules", false},
		{"I'll attest to that", false},
		{"sounds good, see you tomorrow", false},
		{"I like the blue one better", false},
	}

	for _, c := range cases {
		if got := IsCodeRelevant(c.text); got != c.want {
			t.Errorf("IsCodeRelevant(%q) = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestFilterRelevant_PreservesOrder(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "hi", Index: 0},
		{Role: RoleUser, Content: "fix the bug in main.go", Index: 1},
		{Role: RoleAssistant, Content: "ok", Index: 2},
		{Role: RoleAssistant, Content: "```\npatched\n```", Index: 3},
	}

	got := FilterRelevant(msgs)
	if len(got) != 2 {
		t.Fatalf("expected 2 relevant messages, got %d", len(got))
	}
	if got[0].Index != 1 || got[1].Index != 3 {
		t.Errorf("expected indices 1,3 got %d,%d", got[0].Index, got[1].Index)
	}
}

func TestFilterRelevant_NoneRelevant(t *testing.T) {
	got := FilterRelevant([]Message{{Role: RoleUser, Content: "hello"}})
	if len(got) != 0 {
		t.Errorf("expected no relevant messages, got %d", len(got))
	}
}
