package preview

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// ReloadHub manages SSE clients for build-change broadcasts. It remembers
// the last broadcast token and replays it to each client on connect as that
// client's baseline, so the first rebuild after a connect still produces a
// differing token and triggers a reload.
type ReloadHub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*reloadClient
	lastToken string
	closed    bool
}

type reloadClient struct {
	ch   chan string
	done chan struct{}
}

// NewReloadHub returns an empty hub. The zero token is the baseline for
// clients that connect before any build completes.
func NewReloadHub() *ReloadHub {
	return &ReloadHub{clients: map[int]*reloadClient{}, lastToken: "0"}
}

// Broadcast pushes a token to every connected client. Clients reload when
// the token changes between messages.
func (h *ReloadHub) Broadcast(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastToken = token
	for _, c := range h.clients {
		select {
		case c.ch <- token:
		default: // slow client; it will catch up on the next broadcast
		}
	}
}

// Close disconnects all clients and rejects new ones.
func (h *ReloadHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, c := range h.clients {
		close(c.done)
	}
	h.clients = map[int]*reloadClient{}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *ReloadHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		http.Error(w, "livereload shutting down", http.StatusServiceUnavailable)
		return
	}
	client := &reloadClient{ch: make(chan string, 8), done: make(chan struct{})}
	id := h.nextID
	h.nextID++
	h.clients[id] = client
	last := h.lastToken
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	flusher.Flush()

	// Baseline replay. Without it a client's first-ever message would be the
	// first rebuild, which the client script swallows as its baseline.
	if _, err := fmt.Fprintf(w, "data: %s\n\n", last); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-client.done:
			return
		case token := <-client.ch:
			if _, err := fmt.Fprintf(w, "data: %s\n\n", token); err != nil {
				slog.Debug("Livereload client write failed", slog.String("error", err.Error()))
				return
			}
			flusher.Flush()
		}
	}
}
