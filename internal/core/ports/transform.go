package ports

import "context"

//go:generate go run go.uber.org/mock/mockgen -source=transform.go -destination=mocks/mock_transform.go -package=mocks

// StyleCompiler compiles a stylesheet source into plain CSS.
type StyleCompiler interface {
	// Compile compiles the file at path, resolving imports against loadPaths.
	Compile(ctx context.Context, path string, loadPaths []string) ([]byte, error)
}

// Prefixer adds vendor prefixes to CSS declarations.
type Prefixer interface {
	Prefix(css []byte) ([]byte, error)
}

// Minifier minifies stylesheets, scripts and vector images.
type Minifier interface {
	MinifyCSS(src []byte) ([]byte, error)
	MinifyJS(src []byte) ([]byte, error)
	MinifySVG(src []byte) ([]byte, error)
}

// ImageCompressor compresses image content. The result is never larger than the input.
type ImageCompressor interface {
	Compress(ctx context.Context, path string, data []byte) ([]byte, error)
}

// CommandRunner runs an external command, feeding stdin and returning stdout.
type CommandRunner interface {
	Run(ctx context.Context, argv []string, stdin []byte) ([]byte, error)
}
