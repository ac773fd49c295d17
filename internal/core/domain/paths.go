package domain

import (
	"path/filepath"
	"strings"

	"go.trai.ch/zerr"
)

// Category is a logical grouping of assets.
type Category string

const (
	// CategoryNone marks tasks that are not tied to an asset category.
	CategoryNone Category = ""
	// CategoryHTML groups markup files.
	CategoryHTML Category = "html"
	// CategoryCSS groups authored stylesheets.
	CategoryCSS Category = "css"
	// CategoryJS groups scripts.
	CategoryJS Category = "js"
	// CategoryVendors groups third-party vendor files.
	CategoryVendors Category = "vendors"
	// CategoryImages groups raster and vector images.
	CategoryImages Category = "images"
	// CategorySCSS groups stylesheet sources that need compiling.
	CategorySCSS Category = "scss"
)

// Categories returns every category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryHTML,
		CategoryCSS,
		CategoryJS,
		CategoryVendors,
		CategoryImages,
		CategorySCSS,
	}
}

// PathEntry maps a category to its source glob and destination directory.
type PathEntry struct {
	SourceGlob string
	DestDir    string
}

// PathConfig is the immutable mapping from categories to their paths.
type PathConfig struct {
	sourceRoot string
	destRoot   string
	entries    map[Category]PathEntry
}

// NewPathConfig validates and builds a PathConfig.
// Every category must have an entry and every destination directory must be
// inside destRoot.
func NewPathConfig(sourceRoot, destRoot string, entries map[Category]PathEntry) (*PathConfig, error) {
	if destRoot == "" {
		return nil, zerr.With(ErrInvalidConfig, "field", "dest_root")
	}

	pc := &PathConfig{
		sourceRoot: filepath.Clean(sourceRoot),
		destRoot:   filepath.Clean(destRoot),
		entries:    make(map[Category]PathEntry, len(entries)),
	}

	for _, c := range Categories() {
		e, ok := entries[c]
		if !ok || e.SourceGlob == "" || e.DestDir == "" {
			return nil, zerr.With(ErrUnknownCategory, "category", string(c))
		}
		e.DestDir = filepath.Clean(e.DestDir)
		if !IsWithin(pc.destRoot, e.DestDir) {
			err := zerr.With(ErrDestOutsideRoot, "category", string(c))
			return nil, zerr.With(err, "dest_dir", e.DestDir)
		}
		pc.entries[c] = e
	}

	return pc, nil
}

// Lookup returns the entry for a category.
func (p *PathConfig) Lookup(c Category) (PathEntry, error) {
	e, ok := p.entries[c]
	if !ok {
		return PathEntry{}, zerr.With(ErrUnknownCategory, "category", string(c))
	}
	return e, nil
}

// SourceRoot returns the root of authored assets. The dev loop watches it
// together with the base directory of every source glob.
func (p *PathConfig) SourceRoot() string {
	return p.sourceRoot
}

// DestRoot returns the root of generated output.
func (p *PathConfig) DestRoot() string {
	return p.destRoot
}

// IsWithin reports whether path equals root or lies below it.
func IsWithin(root, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
