// Package status carries the human readable progress lines and the task
// completion events from the workers to whoever is listening.
package status

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/marcopiovanello/twitch-clip-dl/server/internal/kv"
)

const (
	TopicStatus = "status"
	TopicTask   = "task"
)

// listener buffer; a listener that falls further behind loses events
const defaultBuffer = 64

type Event struct {
	Type    string   `json:"type"`
	Message string   `json:"message,omitempty"`
	Task    *kv.Task `json:"task,omitempty"`
}

type Hub struct {
	bus EventBus.Bus

	mu        sync.RWMutex
	listeners map[uint64]chan Event
	next      uint64
	buffer    int
}

func NewHub() *Hub {
	h := &Hub{
		bus:       EventBus.New(),
		listeners: make(map[uint64]chan Event),
		buffer:    defaultBuffer,
	}

	h.bus.Subscribe(TopicStatus, h.fanOut)
	h.bus.Subscribe(TopicTask, h.fanOut)

	return h
}

// fanOut runs on the publisher goroutine and never blocks it.
func (h *Hub) fanOut(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.listeners {
		select {
		case ch <- e:
		default:
			slog.Debug("dropping event for slow listener", slog.Uint64("listener", id), slog.String("type", e.Type))
		}
	}
}

// Status publishes a progress line.
func (h *Hub) Status(msg string) {
	slog.Info("status", slog.String("message", msg))
	h.bus.Publish(TopicStatus, Event{Type: TopicStatus, Message: msg})
}

// TaskDone publishes the final snapshot of a task.
func (h *Hub) TaskDone(t kv.Task) {
	h.bus.Publish(TopicTask, Event{Type: TopicTask, Task: &t})
}

// Subscribe registers a listener. The returned function unregisters it and
// closes the channel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	id := h.next
	h.next++
	h.listeners[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.listeners, id)
			close(ch)
			h.mu.Unlock()
		})
	}
}

func (h *Hub) Listeners() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebSocket streams every event to the connected client as JSON.
func (h *Hub) WebSocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Error("websocket upgrade failed", slog.Any("err", err))
			return
		}
		defer conn.Close()

		events, unsubscribe := h.Subscribe()
		defer unsubscribe()

		// the client never sends anything; reading only detects the close
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-closed:
				return
			case e := <-events:
				if err := conn.WriteJSON(e); err != nil {
					slog.Debug("websocket write failed", slog.Any("err", err))
					return
				}
			}
		}
	}
}

func ApplyRouter(h *Hub) func(chi.Router) {
	return func(r chi.Router) {
		r.Get("/", h.WebSocket())
	}
}
