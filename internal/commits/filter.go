package commits

import (
	"path"
	"strings"
)

var docExtensions = map[string]bool{
	".md": true, ".markdown": true, ".mdx": true, ".rst": true, ".adoc": true, ".txt": true,
	".pdf": true, ".doc": true, ".docx": true,
}

var configExtensions = map[string]bool{
	".json": true, ".yaml": true, ".yml": true, ".toml": true, ".ini": true, ".cfg": true,
	".conf": true, ".env": true, ".properties": true, ".editorconfig": true, ".xml": true,
}

var assetExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".svg": true, ".ico": true,
	".webp": true, ".bmp": true, ".mp4": true, ".mov": true, ".woff": true, ".woff2": true,
	".ttf": true, ".eot": true, ".otf": true, ".lock": true,
}

var nonCodeNames = map[string]bool{
	"package-lock.json": true, "yarn.lock": true, "pnpm-lock.yaml": true, "bun.lockb": true,
	"go.sum": true, "cargo.lock": true, "poetry.lock": true, "pipfile.lock": true,
	"gemfile.lock": true, "composer.lock": true, "mix.lock": true, "flake.lock": true,
	"license": true, "licence": true, "copying": true, "notice": true, "authors": true,
	"codeowners": true, "changelog": true, "readme": true, ".gitignore": true,
	".gitattributes": true, ".dockerignore": true, ".prettierrc": true, ".eslintignore": true,
	".npmrc": true, ".nvmrc": true, ".tool-versions": true,
}

// IsCodeFile reports whether a changed path is source code. Documentation,
// lockfiles, configuration and binary assets are not.
func IsCodeFile(p string) bool {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return false
	}
	if strings.HasPrefix(p, "docs/") || strings.HasPrefix(p, "doc/") || strings.Contains(p, "/docs/") {
		return false
	}

	base := path.Base(p)
	if nonCodeNames[base] {
		return false
	}
	ext := path.Ext(base)
	if docExtensions[ext] || configExtensions[ext] || assetExtensions[ext] {
		return false
	}
	return true
}

// IsCodeCommit reports whether at least one file in the commit is code.
func IsCodeCommit(c Commit) bool {
	for _, f := range c.Files {
		if IsCodeFile(f.Path) {
			return true
		}
	}
	return false
}

// FilterCodeCommits drops commits whose changed files are all non-code,
// preserving order.
func FilterCodeCommits(in []Commit) []Commit {
	out := make([]Commit, 0, len(in))
	for _, c := range in {
		if IsCodeCommit(c) {
			out = append(out, c)
		}
	}
	return out
}
