// Package scanner finds the Python sources under a directory tree.
// It respects .gcfgignore files with gitignore-style patterns and skips
// virtualenvs, caches and VCS metadata by default.
package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// PythonExtensions are the file extensions treated as Python source.
var PythonExtensions = []string{".py", ".pyw", ".pyi"}

// FileInfo represents information about a discovered file.
type FileInfo struct {
	Path     string // Relative path from root, slash separated
	FullPath string // Absolute path
	Size     int64  // File size in bytes
}

// Options configures the scanner behavior.
type Options struct {
	SkipHidden      bool     // Skip hidden files and directories (starting with .)
	DefaultExcludes []string // Directory names never descended into
	IgnoreFileName  string   // Name of the ignore file (default: .gcfgignore)
}

// DefaultOptions returns scanner options with sensible defaults.
func DefaultOptions() Options {
	return Options{
		SkipHidden:     true,
		IgnoreFileName: ".gcfgignore",
		DefaultExcludes: []string{
			"__pycache__",
			".venv",
			"venv",
			"env",
			".tox",
			".nox",
			".mypy_cache",
			".pytest_cache",
			"site-packages",
			"build",
			"dist",
			"node_modules",
			".git",
			".hg",
			".svn",
		},
	}
}

// Scanner provides file tree scanning capabilities.
type Scanner struct {
	opts Options
}

// New creates a new Scanner with the given options.
func New(opts Options) *Scanner {
	if opts.IgnoreFileName == "" {
		opts.IgnoreFileName = ".gcfgignore"
	}
	return &Scanner{opts: opts}
}

// IsPython reports whether path has a Python source extension.
func IsPython(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range PythonExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Scan returns the Python files under root sorted by relative path. A root
// that names a single file yields just that file.
func (s *Scanner) Scan(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("getting absolute path: %w", err)
	}

	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	if !info.IsDir() {
		return []FileInfo{{Path: filepath.Base(absRoot), FullPath: absRoot, Size: info.Size()}}, nil
	}

	patterns, err := s.loadIgnoreFile(absRoot, "")
	if err != nil {
		return nil, fmt.Errorf("loading ignore patterns: %w", err)
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable entries are skipped, the rest of the tree is still scanned
			if d != nil && d.IsDir() && path != absRoot {
				return filepath.SkipDir
			}
			return nil
		}
		if path == absRoot {
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if s.opts.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if s.isDefaultExcluded(d.Name()) || ignored(rel, true, patterns) {
				return filepath.SkipDir
			}
			nested, err := s.loadIgnoreFile(path, rel)
			if err != nil {
				return fmt.Errorf("loading ignore patterns in %s: %w", rel, err)
			}
			patterns = append(patterns, nested...)
			return nil
		}

		// symlinks are not followed
		if !d.Type().IsRegular() || !IsPython(path) || ignored(rel, false, patterns) {
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, FileInfo{Path: rel, FullPath: path, Size: fi.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// isDefaultExcluded checks if the name matches default exclusion patterns.
func (s *Scanner) isDefaultExcluded(name string) bool {
	for _, exclude := range s.opts.DefaultExcludes {
		if strings.EqualFold(name, exclude) {
			return true
		}
	}
	return false
}

// loadIgnoreFile loads the ignore file of dir, whose path relative to the
// scan root is base.
func (s *Scanner) loadIgnoreFile(dir, base string) ([]IgnorePattern, error) {
	f, err := os.Open(filepath.Join(dir, s.opts.IgnoreFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()
	return ParseIgnoreFile(f, base)
}

// Scan is a convenience function that scans a directory with default options.
func Scan(root string) ([]FileInfo, error) {
	return New(DefaultOptions()).Scan(root)
}
