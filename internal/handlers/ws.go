package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/maxharris/polymono/internal/engine"
)

const (
	// sendBuffer is the per-connection queue of pending event frames. A client
	// that falls this far behind is disconnected rather than allowed to block
	// the game flow.
	sendBuffer = 64

	writeTimeout = 5 * time.Second
)

// Hub fans engine events out to every connected websocket observer. It
// implements engine.Publisher; writes happen on per-connection goroutines so
// the engine never blocks on a slow client.
type Hub struct {
	logger *logrus.Logger

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub builds an empty hub.
func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{logger: logger, subs: make(map[*subscriber]struct{})}
}

// Publish marshals the event once and queues it on every subscriber.
// Subscribers whose queue is full are dropped.
func (h *Hub) Publish(ev engine.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Errorf("marshal event %s: %v", ev.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.send <- data:
		default:
			h.logger.Warn("dropping slow websocket subscriber")
			h.removeLocked(sub)
		}
	}
}

func (h *Hub) subscribe(conn *websocket.Conn) *subscriber {
	sub := &subscriber{conn: conn, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	go sub.writeLoop()
	return sub
}

func (h *Hub) unsubscribe(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		h.removeLocked(sub)
	}
}

// removeLocked detaches a subscriber and ends its write loop. Assumes lock is
// held.
func (h *Hub) removeLocked(sub *subscriber) {
	delete(h.subs, sub)
	close(sub.send)
}

// enqueue queues a frame for a single subscriber, unless it has already been
// detached.
func (h *Hub) enqueue(sub *subscriber, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; !ok {
		return
	}
	select {
	case sub.send <- data:
	default:
		h.removeLocked(sub)
	}
}

func (s *subscriber) writeLoop() {
	for data := range s.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := s.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			// The read loop notices the broken connection and unsubscribes;
			// keep draining so the channel close is reached.
			continue
		}
	}
	s.conn.Close(websocket.StatusNormalClosure, "")
}

// WSHandler upgrades the connection and streams the event feed. The first
// frame is a full state snapshot so clients need no separate fetch to sync.
func (a *API) WSHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := a.authenticate(r); err != nil {
		http.Error(w, "invalid or missing auth token", http.StatusForbidden)
		return
	}

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"}, // tighten for production deployments
	})
	if err != nil {
		a.Logger.Warnf("websocket accept: %v", err)
		return
	}

	sub := a.Hub.subscribe(c)
	defer a.Hub.unsubscribe(sub)

	st, err := a.Engine.State(r.Context())
	if err != nil {
		a.Logger.Errorf("state snapshot for websocket: %v", err)
		c.Close(websocket.StatusInternalError, "failed to load state")
		return
	}
	snapshot, err := json.Marshal(map[string]any{"type": "full_state", "state": st})
	if err != nil {
		a.Logger.Errorf("marshal state snapshot: %v", err)
		c.Close(websocket.StatusInternalError, "failed to load state")
		return
	}
	a.Hub.enqueue(sub, snapshot)

	// Observers only receive; commands arrive over the HTTP API. The read
	// loop exists to detect disconnects and honor pings.
	for {
		if _, _, err := c.Read(r.Context()); err != nil {
			a.Logger.WithFields(logrus.Fields{
				"remote": r.RemoteAddr,
			}).Info("websocket closed")
			return
		}
	}
}
