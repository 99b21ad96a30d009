package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"rideshare/internal/general/contracts"
	"rideshare/internal/general/jwt"
	"rideshare/internal/general/logger"

	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
	readIdleTimeout  = 60 * time.Second
	pingInterval     = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Feed pushes new ride requests to connected captains over WebSocket.
// Authentication happens before the upgrade via the regular JWT middleware,
// so every connection arriving here already carries captain claims.
type Feed struct {
	logger     *logger.Logger
	writeLocks sync.Map // *websocket.Conn -> *sync.Mutex
	conns      sync.Map // captainID(string) -> *websocket.Conn
}

// NewFeed creates an empty captain feed.
func NewFeed(log *logger.Logger) *Feed {
	return &Feed{logger: log}
}

// HandleConnect upgrades an authenticated captain request to a WebSocket and
// keeps the connection registered until it closes.
func (feed *Feed) HandleConnect(w http.ResponseWriter, r *http.Request) {
	claims := jwt.RequireClaims(r)
	if claims == nil {
		http.Error(w, "missing auth claims", http.StatusUnauthorized)
		return
	}
	captainID := claims.Subject

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		feed.logger.Error(r.Context(), "websocket_upgrade_failed", "Failed to upgrade to WebSocket", err, nil)
		return
	}
	defer conn.Close()
	defer feed.writeLocks.Delete(conn)

	conn.SetReadLimit(1 << 20) // 1 MiB
	_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	conn.SetPongHandler(func(_ string) error {
		return conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
	})

	feed.register(captainID, conn)
	defer feed.remove(captainID)

	feed.logger.Info(r.Context(), "ws_connected", "Captain WebSocket connected",
		map[string]any{"captain_id": captainID})

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			mu := feed.lockOf(conn)
			mu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
			mu.Unlock()
			if err != nil {
				// Close socket to unblock the reader; goroutine exits.
				_ = conn.Close()
				feed.logger.Error(r.Context(), "ws_ping_failed", "Failed to send ping", err,
					map[string]any{"captain_id": captainID})
				return
			}
		}
	}()

	// The feed is push-only; the read loop exists to detect closes and keep
	// the deadline fresh.
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readIdleTimeout))
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				feed.logger.Error(r.Context(), "ws_unexpected_close", "Captain connection closed unexpectedly", err,
					map[string]any{"captain_id": captainID})
				feed.writeClose(conn, websocket.CloseInternalServerErr, "internal error")
			} else {
				feed.logger.Info(r.Context(), "ws_connection_closed", "Captain connection closed normally",
					map[string]any{"captain_id": captainID})
				feed.writeClose(conn, websocket.CloseNormalClosure, "bye")
			}
			return
		}
	}
}

// Broadcast fans a new ride request out to every connected captain. Send
// failures drop only the failing connection.
func (feed *Feed) Broadcast(ctx context.Context, msg contracts.RideRequestedMessage) {
	payload, err := json.Marshal(map[string]any{
		"type": "new_ride",
		"data": msg,
	})
	if err != nil {
		feed.logger.Error(ctx, "ride_request_marshal_failed", "Failed to marshal ride request", err,
			map[string]any{"ride_id": msg.RideID})
		return
	}

	delivered := 0
	feed.conns.Range(func(key, value any) bool {
		captainID := key.(string)
		conn := value.(*websocket.Conn)
		if err := feed.writeMessage(conn, websocket.TextMessage, payload); err != nil {
			feed.logger.Error(ctx, "ride_request_send_failed", "Failed to push ride request to captain", err,
				map[string]any{"captain_id": captainID, "ride_id": msg.RideID})
			feed.remove(captainID)
			_ = conn.Close()
			return true
		}
		delivered++
		return true
	})

	feed.logger.Debug(ctx, "ride_request_broadcast", "Ride request pushed to connected captains",
		map[string]any{"ride_id": msg.RideID, "delivered": delivered})
}

// Connected reports whether a captain currently holds an open feed connection.
func (feed *Feed) Connected(captainID string) bool {
	_, ok := feed.conns.Load(captainID)
	return ok
}

func (feed *Feed) register(captainID string, conn *websocket.Conn) {
	feed.conns.Store(captainID, conn)
}

func (feed *Feed) remove(captainID string) {
	feed.conns.Delete(captainID)
}

// lockOf returns the writer mutex for a specific connection.
func (feed *Feed) lockOf(conn *websocket.Conn) *sync.Mutex {
	if v, ok := feed.writeLocks.Load(conn); ok {
		if mu, ok := v.(*sync.Mutex); ok && mu != nil {
			return mu
		}
	}
	mu := &sync.Mutex{}
	actual, _ := feed.writeLocks.LoadOrStore(conn, mu)
	return actual.(*sync.Mutex)
}

// writeMessage sets a short write deadline and writes a single message.
func (feed *Feed) writeMessage(conn *websocket.Conn, mt int, payload []byte) error {
	mu := feed.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(mt, payload)
}

// writeClose sends a close control frame with the given code and reason.
func (feed *Feed) writeClose(conn *websocket.Conn, code int, reason string) {
	mu := feed.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
	feed.writeLocks.Delete(conn)
}
