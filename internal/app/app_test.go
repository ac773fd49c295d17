package app_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/detector"
	"go.trai.ch/press/internal/adapters/fs"
	"go.trai.ch/press/internal/adapters/metrics"
	"go.trai.ch/press/internal/adapters/prefixer"
	"go.trai.ch/press/internal/app"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

type appTestMocks struct {
	loader   *mocks.MockConfigLoader
	logger   *mocks.MockLogger
	commands *mocks.MockCommandRunner
	hasher   *mocks.MockHasher
	store    *mocks.MockBuildInfoStore
	watcher  *mocks.MockWatcher
	tracer   *mocks.MockTracer
	renderer *mocks.MockRenderer
}

func setupApp(t *testing.T) (*app.App, appTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := appTestMocks{
		loader:   mocks.NewMockConfigLoader(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		commands: mocks.NewMockCommandRunner(ctrl),
		hasher:   mocks.NewMockHasher(ctrl),
		store:    mocks.NewMockBuildInfoStore(ctrl),
		watcher:  mocks.NewMockWatcher(ctrl),
		tracer:   mocks.NewMockTracer(ctrl),
		renderer: mocks.NewMockRenderer(ctrl),
	}

	span := mocks.NewMockSpan(ctrl)
	span.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) { return len(p), nil }).AnyTimes()
	span.EXPECT().End().AnyTimes()
	span.EXPECT().RecordError(gomock.Any()).AnyTimes()
	span.EXPECT().SetAttribute(gomock.Any(), gomock.Any()).AnyTimes()
	m.tracer.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ string, _ ...ports.SpanOption) (context.Context, ports.Span) {
			return ctx, span
		},
	).AnyTimes()
	m.tracer.EXPECT().EmitPlan(gomock.Any(), gomock.Any(), gomock.Any()).AnyTimes()
	m.renderer.EXPECT().Start(gomock.Any()).Return(nil).AnyTimes()
	m.renderer.EXPECT().Stop().Return(nil).AnyTimes()
	m.store.EXPECT().Put(gomock.Any()).Return(nil).AnyTimes()
	m.hasher.EXPECT().ComputeOutputHash(gomock.Any()).Return("0000000000000000", nil).AnyTimes()

	a := app.New(app.Deps{
		ConfigLoader: m.loader,
		Logger:       m.logger,
		Commands:     m.commands,
		Resolver:     fs.NewResolver(),
		Hasher:       m.hasher,
		Store:        m.store,
		Prefixer:     prefixer.New(),
		Watcher:      m.watcher,
		Tracer:       m.tracer,
		Renderer:     m.renderer,
		Metrics:      metrics.NewRecorder(nil),
	})
	return a, m
}

func defaultConfig(t *testing.T) *domain.Config {
	t.Helper()
	paths, err := domain.NewPathConfig(domain.DefaultSourceRoot, domain.DefaultDestRoot, domain.DefaultPathEntries())
	require.NoError(t, err)
	return &domain.Config{
		Paths:      paths,
		ServeRoot:  domain.DefaultDestRoot,
		BundleName: domain.DefaultBundleName,
		Styles:     domain.StyleConfig{Command: []string{"sass"}, Compatibility: domain.DefaultCompatibility},
		Images:     domain.ImageConfig{JPEGQuality: domain.DefaultJPEGQuality},
		Server:     domain.ServerConfig{Host: domain.DefaultHost, Port: domain.DefaultPort, LiveReload: true},
	}
}

func writeProject(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	files := map[string]string{
		"public_html/index.html":            "<html><body>home</body></html>",
		"public_html/assets/scss/main.scss": ".a {\n  color: red;\n}\n",
		"public_html/assets/js/app.js":      "console.log( 1 )\n",
	}
	for p, content := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestApp_Build(t *testing.T) {
	writeProject(t)
	a, m := setupApp(t)

	m.loader.EXPECT().Load("press.yaml").Return(defaultConfig(t), nil)
	m.commands.EXPECT().Run(gomock.Any(), gomock.Any(), nil).DoAndReturn(
		func(_ context.Context, argv []string, _ []byte) ([]byte, error) {
			assert.Equal(t, "sass", argv[0])
			assert.Equal(t, filepath.Join("public_html", "assets", "scss", "main.scss"), argv[len(argv)-1])
			return []byte(".a {\n  color: red;\n}\n"), nil
		},
	)

	require.NoError(t, a.Run(t.Context(), []string{"build"}, app.RunOptions{ConfigPath: "press.yaml"}))

	for _, p := range []string{
		"public_html/dist/index.html",
		"public_html/dist/css/main.css",
		"public_html/dist/css/johndoe.min.css",
		"public_html/dist/js/johndoe.min.js",
	} {
		assert.FileExists(t, p)
	}
}

func TestApp_BuildFailure(t *testing.T) {
	writeProject(t)
	a, m := setupApp(t)

	m.loader.EXPECT().Load(gomock.Any()).Return(defaultConfig(t), nil)
	m.commands.EXPECT().Run(gomock.Any(), gomock.Any(), nil).Return(nil, errors.New("exit status 65"))

	err := a.Run(t.Context(), []string{"build"}, app.RunOptions{})
	require.ErrorIs(t, err, domain.ErrBuildExecutionFailed)
	assert.NoFileExists(t, "public_html/dist/css/johndoe.min.css")
}

func TestApp_InteractiveBuild(t *testing.T) {
	writeProject(t)
	a, m := setupApp(t)
	var out bytes.Buffer
	a.WithTeaOptions(tea.WithOutput(&out), tea.WithoutRenderer())

	m.loader.EXPECT().Load(gomock.Any()).Return(defaultConfig(t), nil)

	require.NoError(t, a.Run(t.Context(), []string{"js"}, app.RunOptions{Output: detector.ModeTUI}))
	assert.FileExists(t, "public_html/dist/js/johndoe.min.js")
}

func TestApp_RunErrors(t *testing.T) {
	t.Run("no targets", func(t *testing.T) {
		a, _ := setupApp(t)
		require.ErrorIs(t, a.Run(t.Context(), nil, app.RunOptions{}), domain.ErrNoTargetsSpecified)
	})

	t.Run("unknown target", func(t *testing.T) {
		a, m := setupApp(t)
		m.loader.EXPECT().Load(gomock.Any()).Return(defaultConfig(t), nil)

		err := a.Run(t.Context(), []string{"deploy"}, app.RunOptions{})
		var zErr *zerr.Error
		require.ErrorAs(t, err, &zErr)
		assert.Equal(t, domain.ErrTaskNotFound.Error(), zErr.Message())
		assert.Equal(t, "deploy", zErr.Metadata()["task"])
	})

	t.Run("invalid config", func(t *testing.T) {
		a, m := setupApp(t)
		m.loader.EXPECT().Load(gomock.Any()).Return(nil, domain.ErrInvalidConfig)

		err := a.Run(t.Context(), []string{"build"}, app.RunOptions{})
		require.ErrorIs(t, err, domain.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "failed to load configuration")
	})
}

func TestApp_WatchCancelledSucceeds(t *testing.T) {
	writeProject(t)
	a, m := setupApp(t)

	cfg := defaultConfig(t)
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	m.loader.EXPECT().Load(gomock.Any()).Return(cfg, nil)
	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()

	root, err := filepath.Abs("public_html")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	m.watcher.EXPECT().Start(gomock.Any(), root, []string{filepath.Join(root, "dist")}).DoAndReturn(func(context.Context, string, []string) error {
		cancel()
		return nil
	})
	m.watcher.EXPECT().Events().Return(func(func(ports.WatchEvent) bool) {})
	m.watcher.EXPECT().Stop().Return(nil)

	require.NoError(t, a.Run(ctx, []string{"watch"}, app.RunOptions{}))
}

func TestApp_TasksAndStatus(t *testing.T) {
	a, m := setupApp(t)

	names := make([]string, 0)
	for _, task := range a.Tasks() {
		names = append(names, task.Name.String())
	}
	assert.Equal(t, []string{"clean", "copy-html", "sass", "css", "js", "img", "vendors", "build", "watch", "default"}, names)

	records := []domain.BuildInfo{{TaskName: "css"}, {TaskName: "js"}}
	m.store.EXPECT().List().Return(records, nil)
	got, err := a.Status()
	require.NoError(t, err)
	assert.Equal(t, records, got)
}
