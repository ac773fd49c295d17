// Package fs provides file system adapters for globbing and hashing files.
package fs

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.SourceResolver = (*Resolver)(nil)

// Resolver implements ports.SourceResolver using doublestar globs.
// Patterns use forward slashes, support ** and {a,b} alternatives.
type Resolver struct{}

// NewResolver creates a new Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve expands pattern relative to the working directory.
// A pattern whose base directory does not exist matches nothing.
func (r *Resolver) Resolve(pattern string, exclude ...string) ([]ports.SourceFile, error) {
	pattern = filepath.ToSlash(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, zerr.With(domain.ErrInvalidGlob, "pattern", pattern)
	}

	base, rest := doublestar.SplitPattern(pattern)
	matches, err := doublestar.Glob(os.DirFS(filepath.FromSlash(base)), rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceResolutionFailed.Error()), "pattern", pattern)
	}

	files := make([]ports.SourceFile, 0, len(matches))
	for _, m := range matches {
		path := filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m))
		if excluded(path, exclude) {
			continue
		}
		files = append(files, ports.SourceFile{
			Path: path,
			Rel:  filepath.FromSlash(m),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// Match reports whether path is matched by pattern.
func (r *Resolver) Match(pattern, path string) bool {
	ok, err := doublestar.Match(filepath.ToSlash(pattern), filepath.ToSlash(filepath.Clean(path)))
	return err == nil && ok
}

// Base returns the literal directory prefix of pattern.
func (r *Resolver) Base(pattern string) string {
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	return filepath.FromSlash(base)
}

func excluded(path string, dirs []string) bool {
	for _, d := range dirs {
		if d != "" && domain.IsWithin(d, path) {
			return true
		}
	}
	return false
}
