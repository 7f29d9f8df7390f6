package websocket

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"studytrack-backend/internal/middleware"
	"studytrack-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans the session event feed out to every connected dashboard. All
// clients see the same single-user feed, so there is one connection set and
// one Redis subscription, held open while at least one client is connected.
type Hub struct {
	mu          sync.RWMutex
	connections []*websocket.Conn
	redisClient *redis.Client
	auth        *middleware.JWTAuth
	cancel      context.CancelFunc
}

func NewHub(redisClient *redis.Client, auth *middleware.JWTAuth) *Hub {
	return &Hub{
		redisClient: redisClient,
		auth:        auth,
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// The upgrade request cannot carry an Authorization header, so the
	// token rides a query param.
	if h.auth.Enabled() {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" || h.auth.VerifyToken(tokenStr) != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	h.register(conn)

	// Keep connection alive and handle disconnect
	go func() {
		defer h.unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.connections = append(h.connections, conn)

	// First client opens the Redis subscription.
	if len(h.connections) == 1 {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		go h.subscribe(ctx)
	}

	log.Printf("WebSocket connected (total: %d)", len(h.connections))
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	for i, c := range h.connections {
		if c == conn {
			h.connections = append(h.connections[:i], h.connections[i+1:]...)
			break
		}
	}

	if len(h.connections) == 0 && h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}

	log.Printf("WebSocket disconnected (total: %d)", len(h.connections))
}

func (h *Hub) subscribe(ctx context.Context) {
	pubsub := h.redisClient.Subscribe(ctx, services.EventChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast([]byte(msg.Payload))
		}
	}
}

func (h *Hub) broadcast(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, conn := range h.connections {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}
