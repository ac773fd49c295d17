package ports

// SourceFile is a file matched by a source glob.
type SourceFile struct {
	// Path is the file path as seen from the working directory.
	Path string
	// Rel is the path relative to the glob base. Outputs keep this structure.
	Rel string
}

// SourceResolver expands source globs.
//
//go:generate go run go.uber.org/mock/mockgen -source=resolver.go -destination=mocks/mock_resolver.go -package=mocks
type SourceResolver interface {
	// Resolve returns the files matching pattern in lexical order, skipping
	// anything under the excluded directories.
	Resolve(pattern string, exclude ...string) ([]SourceFile, error)
	// Match reports whether path is matched by pattern.
	Match(pattern, path string) bool
	// Base returns the literal directory prefix of pattern.
	Base(pattern string) string
}
