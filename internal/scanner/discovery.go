package scanner

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// stateDir holds propscan's own database and config and is never scanned.
const stateDir = ".propscan"

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
	// root matches files directly under the root for "**/" patterns
	root glob.Glob
}

// Discovery finds Ruby files under a root directory using include globs and
// ignore rules. Patterns are matched against slash-separated paths relative to
// the root.
type Discovery struct {
	rootDir         string
	includePatterns []compiledPattern
	ignorePatterns  []compiledPattern
}

// NewDiscovery compiles the include and ignore patterns for rootDir.
func NewDiscovery(rootDir string, includePatterns, ignorePatterns []string) (*Discovery, error) {
	d := &Discovery{
		rootDir: rootDir,
	}

	var err error
	if d.includePatterns, err = compilePatterns(includePatterns); err != nil {
		return nil, err
	}
	if d.ignorePatterns, err = compilePatterns(ignorePatterns); err != nil {
		return nil, err
	}
	return d, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, err
		}
		cp := compiledPattern{pattern: pattern, glob: g}

		// "**/*.rb" should match both "app.rb" and "lib/app.rb"
		if simplified, ok := strings.CutPrefix(pattern, "**/"); ok {
			if cp.root, err = glob.Compile(simplified, '/'); err != nil {
				return nil, err
			}
		}
		compiled = append(compiled, cp)
	}
	return compiled, nil
}

// RootDir returns the directory being discovered.
func (d *Discovery) RootDir() string {
	return d.rootDir
}

// Discover walks the directory tree and returns matching files sorted by path.
// Returned paths are joined to the root directory.
func (d *Discovery) Discover() ([]string, error) {
	files := []string{}

	err := filepath.WalkDir(d.rootDir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(d.rootDir, path)
		if err != nil {
			return err
		}
		if relPath == "." {
			return nil
		}

		// Normalize path separators for glob matching
		relPath = filepath.ToSlash(relPath)

		if entry.IsDir() {
			if d.shouldIgnore(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Matches(relPath) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// Matches reports whether a root-relative, slash-separated path is included
// and not ignored.
func (d *Discovery) Matches(relPath string) bool {
	if d.shouldIgnore(relPath) {
		return false
	}
	return matchesAnyPattern(relPath, d.includePatterns)
}

// MatchesPath is Matches for a path under the root in OS form.
func (d *Discovery) MatchesPath(path string) bool {
	relPath, err := filepath.Rel(d.rootDir, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return false
	}
	return d.Matches(filepath.ToSlash(relPath))
}

// IgnoresDir reports whether a directory under the root is skipped entirely.
func (d *Discovery) IgnoresDir(path string) bool {
	relPath, err := filepath.Rel(d.rootDir, path)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return true
	}
	if relPath == "." {
		return false
	}
	return d.shouldIgnore(filepath.ToSlash(relPath))
}

// shouldIgnore checks if a path matches any ignore pattern.
func (d *Discovery) shouldIgnore(relPath string) bool {
	if relPath == stateDir || strings.HasPrefix(relPath, stateDir+"/") {
		return true
	}

	if matchesAnyPattern(relPath, d.ignorePatterns) {
		return true
	}

	// "vendor" should match pattern "vendor/**"
	return matchesAnyPattern(relPath+"/**", d.ignorePatterns)
}

func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	rootLevel := !strings.Contains(path, "/")
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
		if rootLevel && cp.root != nil && cp.root.Match(path) {
			return true
		}
	}
	return false
}
