package devserver

import (
	"bufio"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.trai.ch/press/internal/core/ports"
)

var _ ports.Reloader = (*Hub)(nil)

const (
	heartbeatInterval = 30 * time.Second
	clientBuffer      = 8
)

// Message is the payload of one reload event.
type Message struct {
	Kind ports.ReloadKind `json:"kind"`
	Seq  uint64           `json:"seq"`
	Hash string           `json:"hash,omitempty"`
}

// Hub fans reload messages out to browsers connected over server-sent events.
type Hub struct {
	mu      sync.Mutex
	nextID  int
	seq     uint64
	clients map[int]*client
	closed  bool
}

type client struct {
	id   int
	ch   chan []byte
	done chan struct{}
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[int]*client)}
}

// ServeHTTP streams reload messages until the client disconnects or the hub shuts down.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	c, ok := h.addClient()
	if !ok {
		http.Error(w, "live reload shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.removeClient(c.id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	bw := bufio.NewWriter(w)
	send := func(s string) bool {
		if _, err := bw.WriteString(s); err != nil {
			return false
		}
		if err := bw.Flush(); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !send(": connected\n\n") {
		return
	}

	hb := time.NewTicker(heartbeatInterval)
	defer hb.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-c.done:
			return
		case <-hb.C:
			if !send(": ping\n\n") {
				return
			}
		case msg := <-c.ch:
			if !send("data: " + string(msg) + "\n\n") {
				return
			}
		}
	}
}

// Notify broadcasts a message to every connected client.
// Each call gets a new sequence number, so identical hashes still reach the browser.
// Clients that cannot keep up are dropped.
func (h *Hub) Notify(kind ports.ReloadKind, hash string) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.seq++
	msg, err := json.Marshal(Message{Kind: kind, Seq: h.seq, Hash: hash})
	if err != nil {
		h.mu.Unlock()
		return
	}
	snapshot := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	for _, c := range snapshot {
		select {
		case c.ch <- msg:
		default:
			h.removeClient(c.id)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown disconnects every client and rejects new ones.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = make(map[int]*client)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.done)
	}
}

func (h *Hub) addClient() (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &client{
		id:   h.nextID,
		ch:   make(chan []byte, clientBuffer),
		done: make(chan struct{}),
	}
	h.nextID++
	h.clients[c.id] = c
	return c, true
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}
