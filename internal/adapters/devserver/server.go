// Package devserver serves the build output over HTTP and pushes livereload events.
package devserver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/gild/internal/core/domain"
	"go.trai.ch/gild/internal/core/ports"
	"go.trai.ch/zerr"
)

const readHeaderTimeout = 5 * time.Second

var _ ports.DevServer = (*Server)(nil)

// MetricsSource provides the handler mounted on domain.MetricsPath.
type MetricsSource interface {
	observer
	Handler() http.Handler
}

// Server is the development web server.
type Server struct {
	logger  ports.Logger
	metrics MetricsSource
	hub     *hub

	mu   sync.Mutex
	srv  *http.Server
	url  string
	done chan struct{}
}

// New returns a Server. metrics may be nil, which disables /metrics.
func New(logger ports.Logger, metrics MetricsSource) *Server {
	return &Server{
		logger:  logger,
		metrics: metrics,
		hub:     newHub(metrics),
	}
}

// Name identifies the server in logs.
func (s *Server) Name() string { return "webServer" }

// Serve binds host:port and serves dir in the background.
// The address is bound before Serve returns.
func (s *Server) Serve(_ context.Context, dir, host string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return zerr.With(zerr.New("development server already started"), "url", s.url)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		if errors.Is(err, syscall.EADDRINUSE) {
			return zerr.With(zerr.Wrap(domain.ErrPortInUse, addr), "addr", addr)
		}
		return zerr.With(zerr.Wrap(err, "failed to listen"), "addr", addr)
	}

	_, boundPort, _ := net.SplitHostPort(ln.Addr().String())
	urlHost := host
	if urlHost == "" || urlHost == "0.0.0.0" || urlHost == "::" {
		urlHost = "localhost"
	}
	s.url = "http://" + net.JoinHostPort(urlHost, boundPort)

	s.srv = &http.Server{
		Handler:           s.routes(dir),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	s.done = make(chan struct{})

	go s.hub.run()
	go func(srv *http.Server, done chan struct{}) {
		defer close(done)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logError(zerr.Wrap(err, "development server stopped"))
		}
	}(s.srv, s.done)

	return nil
}

func (s *Server) routes(dir string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle(domain.LiveReloadPath, s.hub)
	mux.HandleFunc(clientScriptPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write([]byte(clientScript))
	})
	if s.metrics != nil {
		mux.Handle(domain.MetricsPath, s.metrics.Handler())
	}
	mux.Handle("/", &staticHandler{root: dir})
	return mux
}

// URL returns the server address. Empty before Serve.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// NotifyReload queues a reload event for connected browsers.
// It never blocks; events are dropped while the queue is full.
func (s *Server) NotifyReload(paths []string) {
	if len(paths) == 0 || s.hub.count() == 0 {
		return
	}
	_ = s.hub.publish(slices.Clone(paths))
}

// Shutdown closes client streams and stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv, done := s.srv, s.done
	s.mu.Unlock()

	if srv == nil {
		return domain.ErrServerNotStarted
	}

	s.hub.close()
	if err := srv.Shutdown(ctx); err != nil {
		return zerr.Wrap(err, "failed to shut down development server")
	}
	<-done
	return nil
}

func (s *Server) logError(err error) {
	if s.logger != nil {
		s.logger.Error(err)
	}
}

// staticHandler serves files below root. HTML documents get the livereload client.
type staticHandler struct {
	root string
}

func (h *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	name := path.Clean("/" + r.URL.Path)
	full := filepath.Join(h.root, filepath.FromSlash(name))

	info, err := os.Stat(full)
	if err == nil && info.IsDir() {
		name = path.Join(name, "index.html")
		full = filepath.Join(full, "index.html")
		info, err = os.Stat(full)
	}
	if err != nil || info.IsDir() {
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		http.NotFound(w, r)
		return
	}

	content, err := os.ReadFile(full)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if isHTML(name) {
		content = injectClient(content)
	}

	w.Header().Set("ETag", fmt.Sprintf(`"%016x"`, xxhash.Sum64(content)))
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(content))
}

func isHTML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".html" || ext == ".htm"
}
