package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

// Bundle separators.
var (
	cssSeparator = []byte("\n")
	jsSeparator  = []byte(";")
)

// assets implements the actions of the asset tasks.
type assets struct {
	cfg   *domain.Config
	steps Steps
}

// output is a file waiting to be written.
type output struct {
	path string
	data []byte
}

func (a *assets) clean(_ context.Context, out io.Writer) ([]string, error) {
	root := a.cfg.Paths.DestRoot()
	if err := os.RemoveAll(root); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", root)
	}
	progress(out, "removed "+root)
	return nil, nil
}

func (a *assets) copyHTML(ctx context.Context, out io.Writer) ([]string, error) {
	return a.copyCategory(ctx, out, domain.CategoryHTML)
}

func (a *assets) vendors(ctx context.Context, out io.Writer) ([]string, error) {
	return a.copyCategory(ctx, out, domain.CategoryVendors)
}

func (a *assets) copyCategory(ctx context.Context, out io.Writer, c domain.Category) ([]string, error) {
	entry, files, err := a.sources(c)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		data, err := readFile(f.Path)
		if err != nil {
			return written, err
		}
		dest := filepath.Join(entry.DestDir, f.Rel)
		if err := writeFile(dest, data); err != nil {
			return written, err
		}
		progress(out, dest)
		written = append(written, dest)
	}
	return written, nil
}

// sass compiles every stylesheet before writing any of them, so a failing
// file leaves the destination untouched.
func (a *assets) sass(ctx context.Context, out io.Writer) ([]string, error) {
	entry, files, err := a.sources(domain.CategorySCSS)
	if err != nil {
		return nil, err
	}
	base := a.steps.Resolver.Base(entry.SourceGlob)

	var pending []output
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if IsPartial(f.Path) {
			continue
		}

		compiled, err := a.steps.Compiler.Compile(ctx, f.Path, loadPaths(filepath.Dir(f.Path), base))
		if err != nil {
			return nil, zerr.With(err, "step", "compile")
		}
		prefixed, err := a.steps.Prefixer.Prefix(compiled)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "file", f.Path), "step", "prefix")
		}

		dest := filepath.Join(entry.DestDir, strings.TrimSuffix(f.Rel, filepath.Ext(f.Rel))+".css")
		pending = append(pending, output{path: dest, data: prefixed})
	}

	return writeAll(out, pending)
}

// css minifies the compiled stylesheets and bundles them. Authored files
// under the css glob are not read.
func (a *assets) css(ctx context.Context, out io.Writer) ([]string, error) {
	entry, err := a.cfg.Paths.Lookup(domain.CategoryCSS)
	if err != nil {
		return nil, err
	}
	scss, err := a.cfg.Paths.Lookup(domain.CategorySCSS)
	if err != nil {
		return nil, err
	}

	bundle := filepath.Join(entry.DestDir, a.cfg.BundleName+".min.css")
	compiled, err := a.steps.Resolver.Resolve(path.Join(filepath.ToSlash(scss.DestDir), "*.css"))
	if err != nil {
		return nil, zerr.With(err, "category", string(domain.CategoryCSS))
	}

	inputs := make([]ports.SourceFile, 0, len(compiled))
	for _, f := range compiled {
		if filepath.Clean(f.Path) != bundle {
			inputs = append(inputs, f)
		}
	}

	return a.bundle(ctx, out, inputs, bundle, cssSeparator, "css", a.steps.Minifier.MinifyCSS)
}

func (a *assets) js(ctx context.Context, out io.Writer) ([]string, error) {
	entry, files, err := a.sources(domain.CategoryJS)
	if err != nil {
		return nil, err
	}
	bundle := filepath.Join(entry.DestDir, a.cfg.BundleName+".min.js")
	return a.bundle(ctx, out, files, bundle, jsSeparator, "js", a.steps.Minifier.MinifyJS)
}

// bundle minifies inputs in order and writes them joined by sep to dest.
// Nothing is written when there are no inputs.
func (a *assets) bundle(
	ctx context.Context,
	out io.Writer,
	inputs []ports.SourceFile,
	dest string,
	sep []byte,
	step string,
	minify func([]byte) ([]byte, error),
) ([]string, error) {
	if len(inputs) == 0 {
		progress(out, "no input for "+dest)
		return nil, nil
	}

	parts := make([][]byte, 0, len(inputs))
	for _, f := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := readFile(f.Path)
		if err != nil {
			return nil, err
		}
		minified, err := minify(data)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "file", f.Path), "step", "minify_"+step)
		}
		parts = append(parts, bytes.TrimSpace(minified))
	}

	return writeAll(out, []output{{path: dest, data: bytes.Join(parts, sep)}})
}

func (a *assets) images(ctx context.Context, out io.Writer) ([]string, error) {
	entry, files, err := a.sources(domain.CategoryImages)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		data, err := readFile(f.Path)
		if err != nil {
			return written, err
		}
		compressed, err := a.steps.Compressor.Compress(ctx, f.Path, data)
		if err != nil {
			return written, err
		}
		dest := filepath.Join(entry.DestDir, f.Rel)
		if err := writeFile(dest, compressed); err != nil {
			return written, err
		}
		progress(out, fmt.Sprintf("%s (%d → %d bytes)", dest, len(data), len(compressed)))
		written = append(written, dest)
	}
	return written, nil
}

// sources resolves the source glob of c, never matching generated output.
func (a *assets) sources(c domain.Category) (domain.PathEntry, []ports.SourceFile, error) {
	entry, err := a.cfg.Paths.Lookup(c)
	if err != nil {
		return domain.PathEntry{}, nil, err
	}
	files, err := a.steps.Resolver.Resolve(entry.SourceGlob, a.cfg.Paths.DestRoot())
	if err != nil {
		return domain.PathEntry{}, nil, zerr.With(err, "category", string(c))
	}
	return entry, files, nil
}

// IsPartial reports whether a stylesheet is only meant to be imported.
func IsPartial(path string) bool {
	return strings.HasPrefix(filepath.Base(path), "_")
}

func loadPaths(dir, base string) []string {
	if filepath.Clean(dir) == filepath.Clean(base) {
		return []string{dir}
	}
	return []string{dir, base}
}

func writeAll(out io.Writer, files []output) ([]string, error) {
	written := make([]string, 0, len(files))
	for _, f := range files {
		if err := writeFile(f.path, f.data); err != nil {
			return written, err
		}
		progress(out, f.path)
		written = append(written, f.path)
	}
	return written, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path comes from the configured source globs
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileReadFailed.Error()), "file", path)
	}
	return data, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.OutputDirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "file", path)
	}
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileWriteFailed.Error()), "file", path)
	}
	return nil
}

func progress(out io.Writer, line string) {
	_, _ = fmt.Fprintf(out, "→ %s\n", line)
}
