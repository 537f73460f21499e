package devserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

const (
	notifyBuffer = 16
	clientBuffer = 4
	retryMillis  = 1000
)

// reloadEvent is the payload of a "reload" server-sent event.
type reloadEvent struct {
	Paths []string `json:"paths"`
}

type client struct {
	id     uuid.UUID
	events chan []string
}

// observer receives hub activity. *metrics.Metrics implements it.
type observer interface {
	ClientConnected()
	ClientDisconnected()
	ReloadSent()
}

// hub fans reload notifications out to every connected browser.
// Delivery is one-way and best effort: a client that falls behind misses events.
type hub struct {
	observer observer

	mu      sync.Mutex
	clients map[uuid.UUID]*client

	notify chan []string
	done   chan struct{}
	once   sync.Once
}

func newHub(obs observer) *hub {
	return &hub{
		observer: obs,
		clients:  make(map[uuid.UUID]*client),
		notify:   make(chan []string, notifyBuffer),
		done:     make(chan struct{}),
	}
}

// publish queues paths without blocking. It reports whether the event was queued.
func (h *hub) publish(paths []string) bool {
	select {
	case <-h.done:
		return false
	default:
	}
	select {
	case h.notify <- paths:
		return true
	default:
		return false
	}
}

func (h *hub) run() {
	for {
		select {
		case paths := <-h.notify:
			h.broadcast(paths)
		case <-h.done:
			return
		}
	}
}

func (h *hub) broadcast(paths []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clients) == 0 {
		return
	}
	for _, c := range h.clients {
		select {
		case c.events <- paths:
		default:
		}
	}
	if h.observer != nil {
		h.observer.ReloadSent()
	}
}

func (h *hub) close() {
	h.once.Do(func() { close(h.done) })
}

func (h *hub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *hub) add() *client {
	c := &client{id: uuid.New(), events: make(chan []string, clientBuffer)}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	if h.observer != nil {
		h.observer.ClientConnected()
	}
	return c
}

func (h *hub) remove(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
	if h.observer != nil {
		h.observer.ClientDisconnected()
	}
}

// ServeHTTP streams reload events to one browser until it disconnects or the hub closes.
func (h *hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	select {
	case <-h.done:
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	default:
	}

	c := h.add()
	defer h.remove(c)

	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	_, _ = fmt.Fprintf(w, "retry: %d\nevent: hello\ndata: %s\n\n", retryMillis, c.id)
	flusher.Flush()

	for {
		select {
		case paths := <-c.events:
			data, err := json.Marshal(reloadEvent{Paths: paths})
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: reload\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		}
	}
}
