package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	fsadapter "go.trai.ch/press/internal/adapters/fs"
	"go.trai.ch/press/internal/adapters/imaging"
	"go.trai.ch/press/internal/adapters/minify"
	"go.trai.ch/press/internal/adapters/prefixer"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/engine/pipeline"
	"go.trai.ch/zerr"
)

// fakeCompiler inlines `@import "name";` partials found on the load paths and
// rejects any line containing "!!".
type fakeCompiler struct{}

func (fakeCompiler) Compile(_ context.Context, path string, loadPaths []string) ([]byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	for _, line := range strings.Split(string(src), "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.Contains(trimmed, "!!") {
			return nil, zerr.With(zerr.Wrap(errors.New("syntax error"), domain.ErrStyleCompileFailed.Error()), "file", path)
		}
		if name, ok := strings.CutPrefix(trimmed, "@import "); ok {
			partial, err := findPartial(strings.Trim(name, `"';`), loadPaths)
			if err != nil {
				return nil, err
			}
			out.Write(partial)
			continue
		}
		out.WriteString(line + "\n")
	}
	return out.Bytes(), nil
}

func findPartial(name string, loadPaths []string) ([]byte, error) {
	for _, dir := range loadPaths {
		if data, err := os.ReadFile(filepath.Join(dir, "_"+name+".scss")); err == nil {
			return data, nil
		}
	}
	return nil, errors.New("partial not found: " + name)
}

func writeTree(t *testing.T, files map[string]string) {
	t.Helper()
	for p, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func pngFixture(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for x := range 32 {
		for y := range 32 {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, (&png.Encoder{CompressionLevel: png.NoCompression}).Encode(&buf, img))
	return buf.String()
}

// setupProject lays out the default project in a temporary working directory.
func setupProject(t *testing.T) (*domain.Config, *pipeline.Executor) {
	t.Helper()
	t.Chdir(t.TempDir())

	writeTree(t, map[string]string{
		"public_html/index.html":                  "<html><body>home</body></html>\n",
		"public_html/blog/post.html":              "<html><body>post</body></html>\n",
		"public_html/assets/scss/main.scss":       "@import \"vars\";\n.box {\n  user-select: none;\n}\n",
		"public_html/assets/scss/_vars.scss":      "body {\n  margin: 0;\n}\n",
		"public_html/assets/css/site.css":         "a {\n  color: red;\n}\n",
		"public_html/assets/js/a.js":              "function greet(name) {\n  return \"hi \" + name\n}\n",
		"public_html/assets/js/b.js":              "greet(\"press\")\n",
		"public_html/assets/vendors/lib/lib.js":   "var lib = 1;\n",
		"public_html/assets/imgs/logo.png":        pngFixture(t),
		"public_html/assets/imgs/icons/arrow.svg": "<svg xmlns=\"http://www.w3.org/2000/svg\">  <!-- c -->  <path d=\"M 0 0 L 10 10\"/></svg>",
		"public_html/dist/stale.txt":              "left over",
		"public_html/dist/css/johndoe.min.css":    "old",
	})

	paths, err := domain.NewPathConfig(domain.DefaultSourceRoot, domain.DefaultDestRoot, domain.DefaultPathEntries())
	require.NoError(t, err)

	cfg := &domain.Config{
		Paths:      paths,
		ServeRoot:  domain.DefaultDestRoot,
		BundleName: domain.DefaultBundleName,
	}
	minifier := minify.New(domain.DefaultCompatibility)
	exec := pipeline.NewExecutor(cfg, pipeline.Steps{
		Resolver:   fsadapter.NewResolver(),
		Compiler:   fakeCompiler{},
		Prefixer:   prefixer.New(),
		Minifier:   minifier,
		Compressor: imaging.NewCompressor(minifier, nil, domain.ImageConfig{}),
	})
	return cfg, exec
}

func runTask(t *testing.T, exec *pipeline.Executor, target string) error {
	t.Helper()
	g, err := pipeline.NewGraph()
	require.NoError(t, err)
	plan, err := g.Plan(target)
	require.NoError(t, err)
	for i := range plan {
		if _, err := exec.Execute(t.Context(), &plan[i], io.Discard); err != nil {
			return err
		}
	}
	return nil
}

// snapshot returns every file under root with its content.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	files := map[string]string{}
	require.NoError(t, filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(p)] = string(data)
		return nil
	}))
	return files
}

func TestBuild_Outputs(t *testing.T) {
	_, exec := setupProject(t)
	require.NoError(t, runTask(t, exec, pipeline.TaskBuild))

	files := snapshot(t, "public_html/dist")

	assert.NotContains(t, files, "public_html/dist/stale.txt")
	assert.NotContains(t, files, "public_html/dist/css/_vars.css")
	assert.NotContains(t, files, "public_html/dist/dist/index.html")

	mainCSS := files["public_html/dist/css/main.css"]
	assert.Contains(t, mainCSS, "margin: 0;")
	assert.Contains(t, mainCSS, "-webkit-user-select: none;")
	assert.Contains(t, mainCSS, "  user-select: none;")

	bundle := files["public_html/dist/css/johndoe.min.css"]
	assert.True(t, strings.HasPrefix(bundle, "body{margin:0}"), bundle)
	assert.NotContains(t, bundle, "color:red")

	js := files["public_html/dist/js/johndoe.min.js"]
	require.NotEmpty(t, js)
	assert.NotContains(t, js, "\n")
	assert.Contains(t, js, ";greet(")

	assert.Equal(t, "<html><body>home</body></html>\n", files["public_html/dist/index.html"])
	assert.Equal(t, "<html><body>post</body></html>\n", files["public_html/dist/blog/post.html"])
	assert.Equal(t, "var lib = 1;\n", files["public_html/dist/vendors/lib/lib.js"])

	logo := files["public_html/dist/imgs/logo.png"]
	require.NotEmpty(t, logo)
	assert.Less(t, len(logo), len(pngFixture(t)))
	assert.NotContains(t, files["public_html/dist/imgs/icons/arrow.svg"], "<!--")
}

func TestCSS_BundlesOnlyCompiledStylesheets(t *testing.T) {
	_, exec := setupProject(t)
	writeTree(t, map[string]string{
		"public_html/dist/css/a.css": ".a {\n  color: blue;\n}\n",
		"public_html/dist/css/b.css": ".b {\n  margin: 0;\n}\n",
	})

	require.NoError(t, runTask(t, exec, pipeline.TaskCSS))

	data, err := os.ReadFile("public_html/dist/css/johndoe.min.css")
	require.NoError(t, err)
	bundle := string(data)
	assert.Equal(t, ".a{color:blue}\n.b{margin:0}", bundle)
	assert.NotContains(t, bundle, "old")
	assert.NotContains(t, bundle, "color:red")
}

func TestBuild_Idempotent(t *testing.T) {
	_, exec := setupProject(t)

	require.NoError(t, runTask(t, exec, pipeline.TaskBuild))
	first := snapshot(t, "public_html/dist")

	require.NoError(t, runTask(t, exec, pipeline.TaskBuild))
	second := snapshot(t, "public_html/dist")

	assert.Equal(t, first, second)
}

func TestSass_InvalidStylesheetWritesNothing(t *testing.T) {
	_, exec := setupProject(t)
	writeTree(t, map[string]string{
		"public_html/assets/scss/a.scss":    ".ok {\n  color: blue;\n}\n",
		"public_html/assets/scss/main.scss": ".box {\n  !!broken\n}\n",
	})

	require.NoError(t, runTask(t, exec, pipeline.TaskClean))
	err := runTask(t, exec, pipeline.TaskSass)
	require.Error(t, err)

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, "compile", zErr.Metadata()["step"])
	assert.Equal(t, filepath.Join("public_html", "assets", "scss", "main.scss"), zErr.Metadata()["file"])

	_, statErr := os.Stat("public_html/dist/css")
	assert.True(t, os.IsNotExist(statErr), "no stylesheet may be written")
}

func TestClean_MissingDestination(t *testing.T) {
	_, exec := setupProject(t)
	require.NoError(t, os.RemoveAll("public_html/dist"))

	var out bytes.Buffer
	g, err := pipeline.NewGraph()
	require.NoError(t, err)
	task, ok := g.GetTask(pipeline.TaskClean)
	require.True(t, ok)

	written, err := exec.Execute(t.Context(), &task, &out)
	require.NoError(t, err)
	assert.Empty(t, written)
	assert.Equal(t, "→ removed public_html/dist\n", filepath.ToSlash(out.String()))
}

func TestJS_ReportsWrittenFiles(t *testing.T) {
	_, exec := setupProject(t)

	var out bytes.Buffer
	written, err := exec.Execute(t.Context(), domain.NewTask(pipeline.TaskJS, "", domain.CategoryJS), &out)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join("public_html", "dist", "js", "johndoe.min.js")}, written)
	assert.Contains(t, out.String(), "johndoe.min.js")
}

func TestExecute_Bindings(t *testing.T) {
	_, exec := setupProject(t)

	written, err := exec.Execute(t.Context(), domain.NewTask("build", "", domain.CategoryNone, "clean"), io.Discard)
	require.NoError(t, err)
	assert.Nil(t, written)

	_, err = exec.Execute(t.Context(), domain.NewTask("lint", "", domain.CategoryJS), io.Discard)
	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, domain.ErrNoActionBound.Error(), zErr.Message())
	assert.Equal(t, "lint", zErr.Metadata()["task"])

	called := false
	exec.Handle(pipeline.TaskWatch, func(context.Context, io.Writer) ([]string, error) {
		called = true
		return nil, nil
	})
	_, err = exec.Execute(t.Context(), domain.NewTask(pipeline.TaskWatch, "", domain.CategoryNone), io.Discard)
	require.NoError(t, err)
	assert.True(t, called)
}
