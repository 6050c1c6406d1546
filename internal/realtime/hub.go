package realtime

import (
	"context"
	"sync"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// Hub fans messages from the Redis update channel out to every connected
// websocket client.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	logger  *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub creates an idle hub. Run must be called to start consuming.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// Run subscribes to the update channel and relays payloads until Stop is
// called or the context ends.
func (h *Hub) Run(ctx context.Context, rdb *persistence.Redis) {
	ctx, h.cancel = context.WithCancel(ctx)
	sub := Subscribe(ctx, rdb)

	go func() {
		defer close(h.done)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				h.fanOut([]byte(msg.Payload))
			}
		}
	}()
}

// Stop halts the relay loop and waits for it to finish.
func (h *Hub) Stop() {
	if h.cancel != nil {
		h.cancel()
		<-h.done
	}
}

func (h *Hub) fanOut(payload []byte) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.logger.Debug("dropping unreachable websocket client", zap.Error(err))
			h.remove(conn)
			_ = conn.Close()
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

// ClientCount reports the number of connected dashboards.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handler returns the websocket endpoint handler. The connection is held
// open until the client goes away; inbound frames are discarded.
func (h *Hub) Handler() func(*websocket.Conn) {
	return func(conn *websocket.Conn) {
		h.add(conn)
		defer func() {
			h.remove(conn)
			_ = conn.Close()
		}()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}
}
