package scanner

import (
	"bufio"
	"io"
	"path"
	"strings"
)

// IgnorePattern represents a single gitignore-style pattern.
type IgnorePattern struct {
	raw      string
	negate   bool     // !pattern re-includes a previously ignored path
	dirOnly  bool     // pattern/ matches directories and everything under them
	anchored bool     // pattern contains a slash, so it matches from the ignore file's directory
	segments []string // slash-separated glob segments, "**" spans any number of directories
	base     string   // directory holding the ignore file, relative to the scan root
}

// ParseIgnorePattern parses a gitignore-style pattern string declared in
// the ignore file of directory base ("" for the scan root).
func ParseIgnorePattern(line, base string) IgnorePattern {
	p := IgnorePattern{raw: line, base: base}

	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimRight(line, "/")
	}
	if strings.Contains(line, "/") {
		p.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	p.segments = strings.Split(line, "/")
	return p
}

// ParseIgnoreFile reads patterns from r, skipping blank lines and comments.
func ParseIgnoreFile(r io.Reader, base string) ([]IgnorePattern, error) {
	var patterns []IgnorePattern
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, ParseIgnorePattern(line, base))
	}
	return patterns, sc.Err()
}

// IsNegation returns true if this pattern is a negation pattern.
func (p IgnorePattern) IsNegation() bool {
	return p.negate
}

func (p IgnorePattern) String() string {
	return p.raw
}

// Match reports whether relPath, a slash-separated path relative to the scan
// root, is matched by the pattern. isDir tells whether relPath is a directory.
func (p IgnorePattern) Match(relPath string, isDir bool) bool {
	if p.base != "" {
		if !strings.HasPrefix(relPath, p.base+"/") {
			return false
		}
		relPath = strings.TrimPrefix(relPath, p.base+"/")
	}
	if p.dirOnly && !isDir {
		return false
	}

	parts := strings.Split(relPath, "/")
	if p.anchored {
		return matchSegments(p.segments, parts)
	}
	// unanchored patterns match a single name at any depth
	return matchSegments(p.segments, parts[len(parts)-1:])
}

func matchSegments(pattern, parts []string) bool {
	for len(pattern) > 0 {
		if pattern[0] == "**" {
			rest := pattern[1:]
			for i := 0; i <= len(parts); i++ {
				if matchSegments(rest, parts[i:]) {
					return true
				}
			}
			return false
		}
		if len(parts) == 0 {
			return false
		}
		if ok, err := path.Match(pattern[0], parts[0]); err != nil || !ok {
			return false
		}
		pattern, parts = pattern[1:], parts[1:]
	}
	return len(parts) == 0
}

// ignored applies patterns in order so that later negations can re-include
// earlier matches, as git does.
func ignored(relPath string, isDir bool, patterns []IgnorePattern) bool {
	out := false
	for _, p := range patterns {
		if p.Match(relPath, isDir) {
			out = !p.negate
		}
	}
	return out
}
