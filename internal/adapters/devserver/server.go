// Package devserver serves the built site and pushes live-reload signals to browsers.
package devserver

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"io"
	"net"
	"net/http"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	_ ports.DevServer = (*Server)(nil)
	_ ports.Reloader  = (*Server)(nil)
)

// Routes served next to the site.
const (
	LiveReloadPath = "/__press/livereload"
	ScriptPath     = "/__press/livereload.js"
	MetricsPath    = "/__press/metrics"
)

const shutdownTimeout = 5 * time.Second

//go:embed livereload.js
var liveReloadScript []byte

// Server serves a directory over HTTP, injecting the live-reload client into HTML pages.
type Server struct {
	cfg    domain.ServerConfig
	root   http.FileSystem
	files  http.Handler
	hub    *Hub
	router *chi.Mux
	logger ports.Logger

	mu   sync.Mutex
	addr string
}

// New creates a Server for root. metrics is mounted under MetricsPath when not nil.
func New(cfg domain.ServerConfig, root string, metrics http.Handler, logger ports.Logger) *Server {
	fsys := http.Dir(root)
	s := &Server{
		cfg:    cfg,
		root:   fsys,
		files:  http.FileServer(fsys),
		hub:    NewHub(),
		router: chi.NewRouter(),
		logger: logger,
		addr:   net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
	}
	s.routes(metrics)
	return s
}

func (s *Server) routes(metrics http.Handler) {
	s.router.Use(middleware.Recoverer)

	s.router.Get(LiveReloadPath, s.hub.ServeHTTP)
	s.router.Get(ScriptPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(liveReloadScript)
	})
	if metrics != nil {
		s.router.Handle(MetricsPath, metrics)
	}
	s.router.Handle("/*", http.HandlerFunc(s.serveSite))
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Notify forwards a reload signal to connected browsers.
func (s *Server) Notify(kind ports.ReloadKind, hash string) {
	s.hub.Notify(kind, hash)
}

// URL returns the address browsers should open.
// Once Serve is listening it reflects the bound port.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "http://" + s.addr
}

// Serve listens on the configured address and blocks until ctx is done or the server fails.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "addr", s.addr)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	srv.RegisterOnShutdown(s.hub.Shutdown)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	s.logger.Info("serving at " + s.URL())

	select {
	case <-ctx.Done():
		s.hub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrServerFailed.Error()), "addr", s.URL())
	}
}

func (s *Server) serveSite(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.LiveReload || !isHTMLPath(r.URL.Path) {
		s.files.ServeHTTP(w, r)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	if strings.HasSuffix(r.URL.Path, "/") {
		name = path.Join(name, "index.html")
	}

	f, err := s.root.Open(name)
	if err != nil {
		s.files.ServeHTTP(w, r)
		return
	}
	defer func() {
		_ = f.Close()
	}()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		s.files.ServeHTTP(w, r)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, "failed to read page", http.StatusInternalServerError)
		return
	}

	page, err := InjectScript(data, ScriptPath)
	if err != nil {
		page = data
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(page))
}

// InjectScript appends a script element loading src to the body of an HTML document.
func InjectScript(page []byte, src string) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}

	body := findElement(doc, atom.Body)
	if body == nil {
		return nil, errors.New("document has no body")
	}
	body.AppendChild(&html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Script,
		Data:     "script",
		Attr:     []html.Attribute{{Key: "src", Val: src}},
	})

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func isHTMLPath(p string) bool {
	return p == "" || p == "/" || strings.HasSuffix(p, "/") || strings.HasSuffix(p, ".html")
}
