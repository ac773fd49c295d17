// Package sass compiles SCSS stylesheets with the sass command line compiler.
package sass

import (
	"context"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.StyleCompiler = (*Compiler)(nil)

// Compiler implements ports.StyleCompiler by running an external sass binary.
type Compiler struct {
	runner  ports.CommandRunner
	command []string
}

// NewCompiler creates a Compiler invoking command, e.g. ["sass"] or ["npx", "sass"].
func NewCompiler(runner ports.CommandRunner, command []string) *Compiler {
	cmd := make([]string, len(command))
	copy(cmd, command)
	return &Compiler{runner: runner, command: cmd}
}

// Compile compiles the stylesheet at path in expanded style and returns the CSS.
func (c *Compiler) Compile(ctx context.Context, path string, loadPaths []string) ([]byte, error) {
	out, err := c.runner.Run(ctx, c.Args(path, loadPaths), nil)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStyleCompileFailed.Error()), "file", path)
	}
	return out, nil
}

// Args returns the full command line used to compile path.
func (c *Compiler) Args(path string, loadPaths []string) []string {
	argv := make([]string, 0, len(c.command)+len(loadPaths)+4)
	argv = append(argv, c.command...)
	argv = append(argv, "--style=expanded", "--no-source-map", "--no-error-css")
	for _, p := range loadPaths {
		argv = append(argv, "--load-path="+p)
	}
	return append(argv, path)
}
