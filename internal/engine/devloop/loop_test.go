package devloop_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/press/internal/adapters/config"
	"go.trai.ch/press/internal/adapters/fs"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/press/internal/core/ports/mocks"
	"go.trai.ch/press/internal/engine/devloop"
	"go.uber.org/mock/gomock"
)

// fakeRunner records task runs and returns one record per run.
type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
}

func (f *fakeRunner) Run(_ context.Context, _ *domain.Graph, name string) ([]domain.BuildInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if err := f.fail[name]; err != nil {
		return nil, err
	}
	return []domain.BuildInfo{{TaskName: name, OutputHash: "h-" + name}}, nil
}

func (f *fakeRunner) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

type loopTestMocks struct {
	server   *mocks.MockDevServer
	reloader *mocks.MockReloader
	watcher  *mocks.MockWatcher
	metrics  *mocks.MockMetrics
	logger   *mocks.MockLogger
	runner   *fakeRunner
}

func testConfig(t *testing.T) *domain.Config {
	t.Helper()
	paths, err := domain.NewPathConfig(domain.DefaultSourceRoot, domain.DefaultDestRoot, domain.DefaultPathEntries())
	require.NoError(t, err)
	return &domain.Config{Paths: paths, BundleName: domain.DefaultBundleName}
}

func setupLoop(t *testing.T, cfg *domain.Config, events []ports.WatchEvent) (*devloop.Loop, loopTestMocks) {
	t.Helper()
	ctrl := gomock.NewController(t)
	m := loopTestMocks{
		server:   mocks.NewMockDevServer(ctrl),
		reloader: mocks.NewMockReloader(ctrl),
		watcher:  mocks.NewMockWatcher(ctrl),
		metrics:  mocks.NewMockMetrics(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		runner:   &fakeRunner{fail: map[string]error{}},
	}

	m.server.EXPECT().Serve(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	}).AnyTimes()
	m.watcher.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	m.watcher.EXPECT().Events().Return(slices.Values(events)).AnyTimes()
	m.watcher.EXPECT().Stop().Return(nil).AnyTimes()
	m.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	m.metrics.EXPECT().ObserveChange(gomock.Any()).AnyTimes()

	l := devloop.New(devloop.Deps{
		Config:   cfg,
		Graph:    domain.NewGraph(),
		Runner:   m.runner,
		Server:   m.server,
		Reloader: m.reloader,
		Watcher:  m.watcher,
		Resolver: fs.NewResolver(),
		Metrics:  m.metrics,
		Logger:   m.logger,
	})
	return l, m
}

func runUntilCancelled(t *testing.T, l *devloop.Loop, ctx context.Context) {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestLoop_ScriptChangeRunsOnlyJS(t *testing.T) {
	events := []ports.WatchEvent{{Path: "public_html/assets/js/app.js", Kind: domain.ChangeModify}}
	l, m := setupLoop(t, testConfig(t), events)
	assert.Equal(t, devloop.StateIdle, l.State())

	ctx, cancel := context.WithCancel(t.Context())
	m.reloader.EXPECT().Notify(ports.ReloadPage, "h-js").Do(func(ports.ReloadKind, string) {
		assert.Equal(t, devloop.StateWatching, l.State())
		cancel()
	})
	m.metrics.EXPECT().ObserveReload(ports.ReloadPage)

	runUntilCancelled(t, l, ctx)
	assert.Equal(t, []string{"js"}, m.runner.Calls())
}

func TestLoop_StylesheetChangeHotSwaps(t *testing.T) {
	events := []ports.WatchEvent{{Path: "public_html/assets/scss/_vars.scss", Kind: domain.ChangeModify}}
	l, m := setupLoop(t, testConfig(t), events)

	ctx, cancel := context.WithCancel(t.Context())
	m.reloader.EXPECT().Notify(ports.ReloadStyles, "h-css").Do(func(ports.ReloadKind, string) { cancel() })
	m.metrics.EXPECT().ObserveReload(ports.ReloadStyles)

	runUntilCancelled(t, l, ctx)
	assert.Equal(t, []string{"sass", "css"}, m.runner.Calls())
}

func TestLoop_FailedRebuildKeepsWatching(t *testing.T) {
	events := []ports.WatchEvent{
		{Path: "public_html/assets/scss/main.scss", Kind: domain.ChangeModify},
		{Path: "public_html/assets/js/app.js", Kind: domain.ChangeModify},
	}
	l, m := setupLoop(t, testConfig(t), events)
	m.runner.fail["sass"] = errors.New("syntax error")

	ctx, cancel := context.WithCancel(t.Context())
	gomock.InOrder(
		m.logger.EXPECT().Error(gomock.Any()),
		m.reloader.EXPECT().Notify(ports.ReloadPage, "h-js").Do(func(ports.ReloadKind, string) {
			assert.Equal(t, devloop.StateWatching, l.State())
			cancel()
		}),
	)
	m.metrics.EXPECT().ObserveReload(ports.ReloadPage)

	runUntilCancelled(t, l, ctx)
	assert.Equal(t, []string{"sass", "js"}, m.runner.Calls())
}

func TestLoop_DebounceCoalescesBursts(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Watch.Debounce = 100 * time.Millisecond

		events := []ports.WatchEvent{
			{Path: "public_html/assets/js/app.js", Kind: domain.ChangeModify},
			{Path: "public_html/assets/js/app.js", Kind: domain.ChangeModify},
			{Path: "public_html/assets/js/app.js", Kind: domain.ChangeModify},
		}
		l, m := setupLoop(t, cfg, events)

		ctx, cancel := context.WithCancel(t.Context())
		m.reloader.EXPECT().Notify(ports.ReloadPage, "h-js").Do(func(ports.ReloadKind, string) { cancel() })
		m.metrics.EXPECT().ObserveReload(ports.ReloadPage)

		require.NoError(t, l.Run(ctx))
		assert.Equal(t, []string{"js"}, m.runner.Calls())
	})
}

func TestLoop_RunTwice(t *testing.T) {
	l, _ := setupLoop(t, testConfig(t), nil)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	require.NoError(t, l.Run(ctx))

	err := l.Run(t.Context())
	require.ErrorIs(t, err, domain.ErrAlreadyWatching)
}

func TestLoop_ServerFailureStopsLoop(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := mocks.NewMockDevServer(ctrl)
	watcher := mocks.NewMockWatcher(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	boom := errors.New("address in use")
	server.EXPECT().Serve(gomock.Any()).Return(boom)
	watcher.EXPECT().Start(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	watcher.EXPECT().Events().Return(slices.Values([]ports.WatchEvent(nil)))
	watcher.EXPECT().Stop().Return(nil)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()

	l := devloop.New(devloop.Deps{
		Config:   testConfig(t),
		Graph:    domain.NewGraph(),
		Runner:   &fakeRunner{},
		Server:   server,
		Reloader: mocks.NewMockReloader(ctrl),
		Watcher:  watcher,
		Resolver: fs.NewResolver(),
		Metrics:  mocks.NewMockMetrics(ctrl),
		Logger:   logger,
	})

	require.ErrorIs(t, l.Run(t.Context()), boom)
}

func TestLoop_Classify(t *testing.T) {
	l, _ := setupLoop(t, testConfig(t), nil)

	tests := []struct {
		name string
		ev   ports.WatchEvent
		want domain.ChangeEvent
		ok   bool
	}{
		{
			name: "partial",
			ev:   ports.WatchEvent{Path: "public_html/assets/scss/_vars.scss", Kind: domain.ChangeModify},
			want: domain.ChangeEvent{Category: domain.CategorySCSS, Path: "public_html/assets/scss/_vars.scss", Kind: domain.ChangeModify},
			ok:   true,
		},
		{
			name: "new script",
			ev:   ports.WatchEvent{Path: "./public_html/assets/js/app.js", Kind: domain.ChangeAdd},
			want: domain.ChangeEvent{Category: domain.CategoryJS, Path: "public_html/assets/js/app.js", Kind: domain.ChangeAdd},
			ok:   true,
		},
		{
			name: "removed page",
			ev:   ports.WatchEvent{Path: "public_html/about.html", Kind: domain.ChangeUnlink},
			want: domain.ChangeEvent{Category: domain.CategoryHTML, Path: "public_html/about.html", Kind: domain.ChangeUnlink},
			ok:   true,
		},
		{
			name: "renamed image",
			ev:   ports.WatchEvent{Path: "public_html/assets/imgs/logo.png", Kind: domain.ChangeUnlink},
			want: domain.ChangeEvent{Category: domain.CategoryImages, Path: "public_html/assets/imgs/logo.png", Kind: domain.ChangeUnlink},
			ok:   true,
		},
		{
			name: "generated page",
			ev:   ports.WatchEvent{Path: "public_html/dist/index.html", Kind: domain.ChangeModify},
		},
		{
			name: "unrelated",
			ev:   ports.WatchEvent{Path: "README.md", Kind: domain.ChangeModify},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := l.Classify(tt.ev)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoop_UnboundCategoryIgnored(t *testing.T) {
	l, m := setupLoop(t, testConfig(t), nil)

	err := l.Handle(t.Context(), domain.ChangeEvent{Category: domain.CategoryImages, Path: "public_html/assets/imgs/a.png"})
	require.NoError(t, err)
	assert.Empty(t, m.runner.Calls())
}

func absPath(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	require.NoError(t, err)
	return abs
}

func TestLoop_WatchesSourceTreeAndSkipsDest(t *testing.T) {
	ctrl := gomock.NewController(t)
	server := mocks.NewMockDevServer(ctrl)
	watcher := mocks.NewMockWatcher(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	server.EXPECT().Serve(gomock.Any()).Return(errors.New("stop"))
	watcher.EXPECT().Start(gomock.Any(), absPath(t, "public_html"), []string{absPath(t, "public_html/dist")}).Return(nil)
	watcher.EXPECT().Events().Return(slices.Values([]ports.WatchEvent(nil)))
	watcher.EXPECT().Stop().Return(nil)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()

	l := devloop.New(devloop.Deps{
		Config:   testConfig(t),
		Graph:    domain.NewGraph(),
		Runner:   &fakeRunner{},
		Server:   server,
		Reloader: mocks.NewMockReloader(ctrl),
		Watcher:  watcher,
		Resolver: fs.NewResolver(),
		Metrics:  mocks.NewMockMetrics(ctrl),
		Logger:   logger,
	})

	require.Error(t, l.Run(t.Context()))
}

func TestLoop_ConfigLoadedFromAnotherDirectory(t *testing.T) {
	site, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(site, "press.yaml"), []byte("bundle: site\n"), 0o600))

	tests := []struct {
		name       string
		cwd        string
		configPath string
	}{
		{name: "absolute path from the site directory", cwd: site, configPath: filepath.Join(site, "press.yaml")},
		{name: "absolute path from elsewhere", cwd: t.TempDir(), configPath: filepath.Join(site, "press.yaml")},
		{name: "relative path from a sibling", cwd: filepath.Join(site, "tools"), configPath: "../press.yaml"},
	}
	require.NoError(t, os.MkdirAll(filepath.Join(site, "tools"), 0o750))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(tt.cwd)
			ctrl := gomock.NewController(t)
			logger := mocks.NewMockLogger(ctrl)
			logger.EXPECT().Warn(gomock.Any()).AnyTimes()

			cfg, err := config.NewLoader(logger).Load(tt.configPath)
			require.NoError(t, err)

			l, _ := setupLoop(t, cfg, nil)
			assert.Equal(t, filepath.Join(site, "public_html"), l.WatchRoot())

			script := filepath.Join(site, "public_html", "assets", "js", "app.js")
			got, ok := l.Classify(ports.WatchEvent{Path: script, Kind: domain.ChangeModify})
			require.True(t, ok)
			assert.Equal(t, domain.CategoryJS, got.Category)

			if rel, err := filepath.Rel(tt.cwd, script); err == nil {
				got, ok = l.Classify(ports.WatchEvent{Path: rel, Kind: domain.ChangeModify})
				require.True(t, ok)
				assert.Equal(t, domain.CategoryJS, got.Category)
			}

			_, ok = l.Classify(ports.WatchEvent{Path: filepath.Join(site, "public_html", "dist", "index.html")})
			assert.False(t, ok)
		})
	}
}
