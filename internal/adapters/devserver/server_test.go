package devserver_test

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/gild/internal/adapters/devserver"
	"go.trai.ch/gild/internal/adapters/metrics"
	"go.trai.ch/gild/internal/core/domain"
)

const page = "<html><body><h1>gild</h1></body></html>"

func startServer(t *testing.T, m *metrics.Metrics) (*devserver.Server, string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "css"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(page), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "css", "main.css"), []byte("a{color:red}"), 0o600))

	s := devserver.New(nil, nil)
	if m != nil {
		s = devserver.New(nil, m)
	}
	require.NoError(t, s.Serve(context.Background(), dir, "127.0.0.1", 0))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.Shutdown(ctx)
	})
	return s, s.URL()
}

func get(t *testing.T, url string, header http.Header) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, http.NoBody)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestServer_URL(t *testing.T) {
	s := devserver.New(nil, nil)
	assert.Empty(t, s.URL())

	_, url := startServer(t, nil)
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:"), url)
}

func TestServer_ServesIndexWithClientScript(t *testing.T) {
	_, url := startServer(t, nil)

	resp, body := get(t, url+"/", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		`<html><body><h1>gild</h1><script src="`+devserver.ClientScriptPath+`"></script></body></html>`,
		body)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
}

func TestServer_ServesAssetsUnchanged(t *testing.T) {
	_, url := startServer(t, nil)

	resp, body := get(t, url+"/css/main.css", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "a{color:red}", body)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/css")
}

func TestServer_ETag(t *testing.T) {
	_, url := startServer(t, nil)

	resp, _ := get(t, url+"/css/main.css", nil)
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	resp, body := get(t, url+"/css/main.css", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
	assert.Empty(t, body)
}

func TestServer_NotFound(t *testing.T) {
	_, url := startServer(t, nil)

	resp, _ := get(t, url+"/missing.js", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, url+"/../../etc/passwd", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ClientScript(t *testing.T) {
	_, url := startServer(t, nil)

	resp, body := get(t, url+devserver.ClientScriptPath, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `new EventSource("`+domain.LiveReloadPath+`")`)
}

func TestServer_PortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	s := devserver.New(nil, nil)
	err = s.Serve(context.Background(), t.TempDir(), "127.0.0.1", port)
	require.ErrorIs(t, err, domain.ErrPortInUse)
	assert.Empty(t, s.URL())
}

func TestServer_ShutdownBeforeServe(t *testing.T) {
	s := devserver.New(nil, nil)
	assert.ErrorIs(t, s.Shutdown(context.Background()), domain.ErrServerNotStarted)
}

func TestServer_NotifyWithoutClientsDoesNotBlock(t *testing.T) {
	s, _ := startServer(t, nil)
	for range 100 {
		s.NotifyReload([]string{"css/main.css"})
	}
}

// stream opens a livereload connection and waits for the hello event.
func stream(t *testing.T, url string) *bufio.Reader {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+domain.LiveReloadPath, http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	r := bufio.NewReader(resp.Body)
	readEvent(t, r, "hello")
	return r
}

// readEvent reads until an event named name and returns its data.
func readEvent(t *testing.T, r *bufio.Reader, name string) string {
	t.Helper()
	var current string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			current = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && current == name:
			return strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestServer_LiveReload(t *testing.T) {
	m := metrics.New()
	s, url := startServer(t, m)

	first := stream(t, url)
	second := stream(t, url)

	s.NotifyReload([]string{"css/main.css", "js/script.js"})

	want := `{"paths":["css/main.css","js/script.js"]}`
	assert.Equal(t, want, readEvent(t, first, "reload"))
	assert.Equal(t, want, readEvent(t, second, "reload"))

	assert.Eventually(t, func() bool {
		_, body := get(t, url+domain.MetricsPath, nil)
		return strings.Contains(body, "gild_livereload_reloads_total 1") &&
			strings.Contains(body, "gild_livereload_clients 2")
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServer_ShutdownClosesStreams(t *testing.T) {
	m := metrics.New()
	s, url := startServer(t, m)
	r := stream(t, url)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))

	_, err := io.ReadAll(r)
	require.NoError(t, err)

	// Notifications after shutdown are ignored.
	s.NotifyReload([]string{"index.html"})
}

func TestInjectClient(t *testing.T) {
	tag := `<script src="` + devserver.ClientScriptPath + `"></script>`
	tests := map[string]struct {
		in   string
		want string
	}{
		"before body": {
			in:   "<body><p>x</p></body>",
			want: "<body><p>x</p>" + tag + "</body>",
		},
		"uppercase body": {
			in:   "<BODY>x</BODY>",
			want: "<BODY>x" + tag + "</BODY>",
		},
		"last body wins": {
			in:   "<body><pre></body></pre></body>",
			want: "<body><pre></body></pre>" + tag + "</body>",
		},
		"no body": {
			in:   "<p>fragment</p>",
			want: "<p>fragment</p>" + tag,
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(devserver.InjectClient([]byte(tt.in))))
		})
	}
}
