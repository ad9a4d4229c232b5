package commits

import "testing"

func TestIsCodeFile(t *testing.T) {
	cases := map[string]bool{
		"internal/api/server.go":  true,
		"src/App.tsx":             true,
		"Makefile":                true,
		"Dockerfile":              true,
		"scripts/deploy.sh":       true,
		"README.md":               false,
		"docs/setup.go":           false,
		"go.sum":                  false,
		"web/package-lock.json":   false,
		"yarn.lock":               false,
		"config/settings.yaml":    false,
		"tsconfig.json":           false,
		"assets/logo.png":         false,
		"LICENSE":                 false,
		".gitignore":              false,
		"":                        false,
	}

	for p, want := range cases {
		if got := IsCodeFile(p); got != want {
			t.Errorf("IsCodeFile(%q) = %v, want %v", p, got, want)
		}
	}
}

func TestFilterCodeCommits(t *testing.T) {
	in := []Commit{
		{SHA: "a", Files: []ChangedFile{{Path: "main.go"}}},
		{SHA: "b", Files: []ChangedFile{{Path: "README.md"}, {Path: "go.sum"}}},
		{SHA: "c", Files: []ChangedFile{{Path: "CHANGELOG.md"}, {Path: "api/handler.py"}}},
		{SHA: "d"},
		{SHA: "e", Files: []ChangedFile{{Path: "src/index.ts"}}},
	}

	got := FilterCodeCommits(in)
	if len(got) != 3 {
		t.Fatalf("expected 3 code commits, got %d", len(got))
	}
	want := []string{"a", "c", "e"}
	for i, w := range want {
		if got[i].SHA != w {
			t.Errorf("commit[%d] = %s, want %s", i, got[i].SHA, w)
		}
	}
}

func TestCommitLineTotals(t *testing.T) {
	c := Commit{SHA: "0123456789abcdef", Files: []ChangedFile{
		{Path: "a.go", LinesAdded: 10, LinesRemoved: 2},
		{Path: "b.go", LinesAdded: 1},
	}}

	if c.LinesAdded() != 11 {
		t.Errorf("expected 11 added, got %d", c.LinesAdded())
	}
	if c.LinesRemoved() != 2 {
		t.Errorf("expected 2 removed, got %d", c.LinesRemoved())
	}
	if c.ShortSHA() != "0123456" {
		t.Errorf("expected short sha 0123456, got %s", c.ShortSHA())
	}
}

func TestParseRepository(t *testing.T) {
	r, err := ParseRepository("octo/widgets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Owner != "octo" || r.Name != "widgets" {
		t.Errorf("unexpected repository %+v", r)
	}
	if r.String() != "octo/widgets" {
		t.Errorf("expected octo/widgets, got %s", r.String())
	}

	for _, bad := range []string{"", "octo", "/widgets", "a/b/c"} {
		if _, err := ParseRepository(bad); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}
