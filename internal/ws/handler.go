package ws

import (
	"context"
	"log/slog"
	"net/http"

	"chat-server/internal/auth"
	"chat-server/internal/presence"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	nanoid "github.com/matoous/go-nanoid/v2"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the client origin list is settled
		return true
	},
}

// Handler upgrades authenticated HTTP requests to websocket sessions and
// runs the connection lifecycle around the hub, presence and typing state.
type Handler struct {
	hub        *Hub
	tokens     *auth.Tokens
	tracker    *presence.Tracker
	typing     *TypingTracker
	dispatcher *Dispatcher
	log        *slog.Logger
}

func NewHandler(hub *Hub, tokens *auth.Tokens, tracker *presence.Tracker, typing *TypingTracker, dispatcher *Dispatcher, log *slog.Logger) *Handler {
	return &Handler{
		hub:        hub,
		tokens:     tokens,
		tracker:    tracker,
		typing:     typing,
		dispatcher: dispatcher,
		log:        log,
	}
}

// HandleWebSocket is the handshake. The bearer credential is verified before
// the upgrade; a missing or invalid token never reaches a handler.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token, err := auth.FromRequest(c.Request)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	claims, err := h.tokens.Validate(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	connID, err := nanoid.New(12)
	if err != nil {
		_ = conn.Close()
		return
	}

	client := newClient(connID, claims.UserID, claims.Username, conn)
	h.hub.Register(client)
	h.log.Info("connection opened", "conn", connID, "user", claims.UserID)

	// Presence before the pumps so the snapshot is the first frame queued.
	h.tracker.HandleConnect(context.Background(), client.userID, client.id)

	go client.writePump()
	go client.readPump(h.dispatcher, func() {
		h.onDisconnect(client)
	})
}

// onDisconnect runs once per connection. Typing cleanup goes first so the
// typing_stop broadcasts still see the room; the hub removal guarantees no
// dangling delivery; the tracker decides whether the identity went offline.
func (h *Handler) onDisconnect(client *Client) {
	h.typing.HandleDisconnect(client.userID, client.id)
	h.hub.Unregister(client)
	h.tracker.HandleDisconnect(context.Background(), client.userID, client.id)
	h.log.Info("connection closed", "conn", client.id, "user", client.userID)
}
