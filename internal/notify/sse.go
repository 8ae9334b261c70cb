package notify

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"transflow/pkg/logger"

	"github.com/google/uuid"
)

// Event is one server-sent event pushed to a web dashboard client watching a
// job through Broadcaster.ServeHTTP.
type Event struct {
	Type    string `json:"type"` // "status", "result", "error"
	Payload any    `json:"payload"`
}

type subscription struct {
	jobID   uint
	channel chan Event
}

// Broadcaster fans job lifecycle events out to any number of SSE clients,
// keyed by job id. It carries no transcription domain knowledge of its own;
// Tee calls Broadcast after every notification it forwards to the gateway
// adapter, whether or not that delivery succeeded.
type Broadcaster struct {
	subscribers map[uint]map[chan Event]bool
	register    chan subscription
	unregister  chan subscription
	broadcast   chan struct {
		jobID uint
		event Event
	}
	shutdown chan struct{}
	mu       sync.RWMutex
}

// NewBroadcaster starts the broadcaster's dispatch loop.
func NewBroadcaster() *Broadcaster {
	b := &Broadcaster{
		subscribers: make(map[uint]map[chan Event]bool),
		register:    make(chan subscription),
		unregister:  make(chan subscription),
		broadcast: make(chan struct {
			jobID uint
			event Event
		}),
		shutdown: make(chan struct{}),
	}
	go b.listen()
	return b
}

func (b *Broadcaster) listen() {
	for {
		select {
		case sub := <-b.register:
			b.mu.Lock()
			if b.subscribers[sub.jobID] == nil {
				b.subscribers[sub.jobID] = make(map[chan Event]bool)
			}
			b.subscribers[sub.jobID][sub.channel] = true
			b.mu.Unlock()
			logger.Debug("New dashboard client registered", "job_id", sub.jobID)

		case sub := <-b.unregister:
			b.mu.Lock()
			if clients, ok := b.subscribers[sub.jobID]; ok {
				delete(clients, sub.channel)
				close(sub.channel)
				if len(clients) == 0 {
					delete(b.subscribers, sub.jobID)
				}
			}
			b.mu.Unlock()

		case msg := <-b.broadcast:
			b.mu.RLock()
			if clients, ok := b.subscribers[msg.jobID]; ok {
				for ch := range clients {
					select {
					case ch <- msg.event:
					default:
						logger.Warn("Skipping slow dashboard client", "job_id", msg.jobID)
					}
				}
			}
			b.mu.RUnlock()

		case <-b.shutdown:
			b.mu.Lock()
			for _, clients := range b.subscribers {
				for ch := range clients {
					close(ch)
				}
			}
			b.subscribers = nil
			b.mu.Unlock()
			return
		}
	}
}

// Shutdown stops the dispatch loop and closes every client connection.
func (b *Broadcaster) Shutdown() {
	close(b.shutdown)
}

// Broadcast pushes an event to every dashboard client watching jobID.
func (b *Broadcaster) Broadcast(jobID uint, eventType string, payload any) {
	select {
	case b.broadcast <- struct {
		jobID uint
		event Event
	}{jobID, Event{Type: eventType, Payload: payload}}:
	case <-b.shutdown:
	}
}

// ServeHTTP streams SSE events for the job named by the job_id query
// parameter. The control surface's router does not mount it.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("job_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if raw == "" || err != nil {
		http.Error(w, "job_id is required", http.StatusBadRequest)
		return
	}
	jobID := uint(id)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	clientID := uuid.NewString()
	ch := make(chan Event)
	sub := subscription{jobID: jobID, channel: ch}
	b.register <- sub
	logger.Debug("Dashboard client connected", "job_id", jobID, "client_id", clientID)
	defer func() {
		select {
		case b.unregister <- sub:
		case <-b.shutdown:
		}
		logger.Debug("Dashboard client disconnected", "job_id", jobID, "client_id", clientID)
	}()

	fmt.Fprintf(w, "data: {\"type\":\"connected\",\"job_id\":%d}\n\n", jobID)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				logger.Error("Failed to marshal dashboard event", "error", err)
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		case <-time.After(30 * time.Second):
			fmt.Fprintf(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}
