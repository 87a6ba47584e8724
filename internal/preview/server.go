// Package preview serves the compiled output tree during watch mode, with
// SSE-based live reload on successful recompiles, a health endpoint and
// Prometheus metrics.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const reloadScript = `(() => {
  if (window.__MDSITE_LR__) return;
  window.__MDSITE_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let current = null;
    es.onmessage = (e) => {
      if (current === null) { current = e.data; return; }
      if (e.data !== current) { location.reload(); }
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();`

// Server serves the output directory with live reload.
type Server struct {
	outputDir string
	hub       *ReloadHub
	httpSrv   *http.Server
}

// NewServer builds a preview server for the output tree. registry may be nil
// to omit the /metrics endpoint.
func NewServer(outputDir string, addr string, registry *prom.Registry) *Server {
	s := &Server{
		outputDir: outputDir,
		hub:       NewReloadHub(),
	}

	mux := http.NewServeMux()
	mux.Handle("/livereload", s.hub)
	mux.HandleFunc("/livereload.js", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		_, _ = w.Write([]byte(reloadScript))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	mux.HandleFunc("/", s.servePage)

	// No write timeout: /livereload holds long-lived SSE connections.
	s.httpSrv = &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 300 * time.Second,
	}
	return s
}

// NotifyReload broadcasts a change token to connected browsers.
func (s *Server) NotifyReload() {
	s.hub.Broadcast(fmt.Sprintf("%d", time.Now().UnixNano()))
}

// Start runs the server until it fails or Stop is called.
func (s *Server) Start() error {
	slog.Info("Preview server listening", slog.String("addr", s.httpSrv.Addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("preview server: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.hub.Close()
	return s.httpSrv.Shutdown(ctx)
}

// servePage serves files from the output tree. HTML pages get the live
// reload client script appended before </body>.
func (s *Server) servePage(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		rel += "index.html"
	}
	clean := filepath.Clean(filepath.FromSlash(rel))
	if strings.HasPrefix(clean, "..") {
		http.NotFound(w, r)
		return
	}
	full := filepath.Join(s.outputDir, clean)

	if strings.HasSuffix(clean, ".html") {
		data, err := os.ReadFile(full) // #nosec G304 -- confined to the output tree above
		if err != nil {
			http.NotFound(w, r)
			return
		}
		data = injectReloadScript(data)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
		return
	}
	http.ServeFile(w, r, full)
}

// injectReloadScript inserts the client script tag before </body>, or
// appends it when the page has no body close tag.
func injectReloadScript(page []byte) []byte {
	tag := []byte(`<script src="/livereload.js"></script>`)
	if idx := bytes.LastIndex(page, []byte("</body>")); idx >= 0 {
		out := make([]byte, 0, len(page)+len(tag)+1)
		out = append(out, page[:idx]...)
		out = append(out, tag...)
		out = append(out, '\n')
		out = append(out, page[idx:]...)
		return out
	}
	return append(page, tag...)
}
