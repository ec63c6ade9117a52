package server

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"cashlab/internal/domain"
	"cashlab/internal/observability"
	"cashlab/internal/storage"
)

// Event is one run status update pushed to WebSocket subscribers.
type Event struct {
	RunID   string    `json:"run_id"`
	Status  string    `json:"status"`
	Phase   string    `json:"phase,omitempty"`
	Verdict string    `json:"verdict,omitempty"`
	Error   string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// subscriber events are buffered; a subscriber that falls this far
// behind loses the connection rather than blocking the publisher.
const subscriberBuffer = 16

type subscriber struct {
	ch chan Event
}

// Hub fans run events out to per-run subscriber sets. It keeps no
// per-run state beyond the live subscribers; finished runs are served
// from the run store instead.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[string]map[*subscriber]struct{}),
	}
}

// Subscribe registers for a run's events. The returned channel is
// closed once the run finishes. The caller decides whether the run is
// still live; subscribing to a finished run yields a channel that
// never receives.
func (h *Hub) Subscribe(runID string) *subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}
	if h.subs[runID] == nil {
		h.subs[runID] = make(map[*subscriber]struct{})
	}
	h.subs[runID][sub] = struct{}{}
	return sub
}

// Unsubscribe removes a subscriber; safe to call after Close.
func (h *Hub) Unsubscribe(runID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if set, ok := h.subs[runID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, runID)
		}
	}
}

// Publish delivers an event to every subscriber of the run. A full
// subscriber buffer drops the event for that subscriber only.
func (h *Hub) Publish(runID string, ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[runID] {
		select {
		case sub.ch <- ev:
		default:
		}
	}
}

// Close closes every subscriber channel of the run and forgets it.
// The run row carries the terminal state for anyone arriving later.
func (h *Hub) Close(runID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subs[runID] {
		close(sub.ch)
	}
	delete(h.subs, runID)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API carries no credentials and events are not sensitive.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleRunEvents upgrades to WebSocket and streams a run's status
// events until the run finishes or the client goes away.
func (s *Server) handleRunEvents(c *gin.Context) {
	runID := c.Param("id")

	// Subscribe before checking the run so no event published between
	// the check and the stream loop is missed.
	sub := s.hub.Subscribe(runID)
	defer s.hub.Unsubscribe(runID, sub)

	// A run submitted moments ago may not be persisted yet; stream in
	// that case, the pipeline's events will arrive through the hub.
	run, err := s.stores.Runs.GetByID(c.Request.Context(), runID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.abortStoreError(c, err)
		return
	}
	if run != nil && (run.Status == domain.RunStatusCompleted || run.Status == domain.RunStatusFailed) {
		// Run already finished; report its terminal state once.
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteJSON(Event{
			RunID:  run.RunID,
			Status: run.Status,
			Error:  run.Error,
			Time:   run.CompletedAt,
		})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	observability.DefaultMetrics.WSClients.Inc()
	defer observability.DefaultMetrics.WSClients.Dec()

	// Reader goroutine detects client disconnects; the server never
	// expects inbound messages.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, open := <-sub.ch:
			if !open {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Debug("ws write failed", zap.String("run_id", runID), zap.Error(err))
				return
			}
		case <-clientGone:
			return
		}
	}
}
