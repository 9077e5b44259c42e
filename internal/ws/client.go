package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/driftchat/drift/internal/auth"
	"github.com/driftchat/drift/internal/bridge"
	"github.com/driftchat/drift/internal/chat"
	"github.com/driftchat/drift/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// command is one inbound frame from the UI. Attachments go over the
// REST endpoint; the socket carries text sends and navigation only.
type command struct {
	Op      string    `json:"op"` // refresh | select | deselect | send | search
	PeerID  uuid.UUID `json:"peer_id,omitempty"`
	Content string    `json:"content,omitempty"`
	Query   string    `json:"query,omitempty"`
}

type frame struct {
	Type  string        `json:"type"` // state | users | error
	State *chat.State   `json:"state,omitempty"`
	Users []models.User `json:"users,omitempty"`
	Error string        `json:"error,omitempty"`
}

type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{} // closed by the hub when the client is dropped
	session *chat.Session
	sub     *bridge.Subscription
	logger  *zap.Logger
}

// Handler upgrades authenticated requests into live sessions.
type Handler struct {
	hub       *Hub
	svc       *chat.Service
	bridge    *bridge.Bridge
	jwtSecret string
	logger    *zap.Logger
}

func NewHandler(hub *Hub, svc *chat.Service, b *bridge.Bridge, jwtSecret string, logger *zap.Logger) *Handler {
	return &Handler{hub: hub, svc: svc, bridge: b, jwtSecret: jwtSecret, logger: logger}
}

// Serve handles GET /v1/ws?token=...
//
// The token rides a query parameter because browser WebSocket clients
// cannot set an Authorization header on the upgrade request.
func (h *Handler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
		return
	}
	claims, err := auth.ParseToken(token, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		return
	}

	self := models.User{
		ID:       claims.UserID,
		Username: claims.Username,
		IsAdmin:  claims.IsAdmin,
	}

	// The subscription outlives the HTTP request, so it gets its own
	// context tied to the connection lifetime, not the upgrade request.
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		hub:     h.hub,
		conn:    conn,
		send:    make(chan []byte, 16),
		done:    make(chan struct{}),
		session: chat.NewSession(h.svc, self, h.logger),
		sub:     h.bridge.Subscribe(ctx, self.ID),
		logger:  h.logger.With(zap.String("user_id", self.ID.String())),
	}
	h.hub.register <- client

	go client.writePump()
	go client.inboxPump(ctx)
	go client.readPump(ctx, cancel)

	// Initial snapshot so the UI renders without issuing a command.
	if st, err := client.session.Refresh(ctx); err == nil {
		client.pushState(st)
	} else {
		client.pushError(err)
	}
}

// readPump consumes UI commands until the connection dies, then tears
// everything down: the bridge subscription, the hub registration, and
// the socket.
func (c *Client) readPump(ctx context.Context, cancel context.CancelFunc) {
	defer func() {
		cancel()
		c.sub.Close()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("ws read failed", zap.Error(err))
			}
			return
		}

		var cmd command
		if err := json.Unmarshal(raw, &cmd); err != nil {
			c.pushError(&chat.ValidationError{Field: "command", Reason: "malformed frame"})
			continue
		}
		c.dispatch(ctx, cmd)
	}
}

func (c *Client) dispatch(ctx context.Context, cmd command) {
	switch cmd.Op {
	case "refresh":
		st, err := c.session.Refresh(ctx)
		if err != nil {
			c.pushError(err)
			return
		}
		c.pushState(st)

	case "select":
		peer, err := c.session.ResolvePeer(ctx, cmd.PeerID)
		if err != nil {
			c.pushError(err)
			return
		}
		st, err := c.session.Select(ctx, *peer)
		if err != nil {
			c.pushError(err)
			return
		}
		c.pushState(st)

	case "deselect":
		c.pushState(c.session.Deselect())

	case "send":
		st, err := c.session.Send(ctx, cmd.PeerID, cmd.Content, nil, nil)
		if err != nil {
			c.pushError(err)
			return
		}
		c.pushState(st)

	case "search":
		users, err := c.session.Search(ctx, cmd.Query)
		if err != nil {
			c.pushError(err)
			return
		}
		c.push(frame{Type: "users", Users: users})

	default:
		c.pushError(&chat.ValidationError{Field: "op", Reason: "unknown operation"})
	}
}

// inboxPump merges live-pushed messages into the session and streams
// the resulting snapshots out.
func (c *Client) inboxPump(ctx context.Context) {
	for m := range c.sub.Events() {
		c.pushState(c.session.HandleInbound(ctx, m))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) push(f frame) {
	raw, err := json.Marshal(f)
	if err != nil {
		c.logger.Error("failed to marshal ws frame", zap.Error(err))
		return
	}
	select {
	case <-c.done:
		// The hub already dropped this client; discard the frame.
	case c.send <- raw:
	default:
		// Slow consumer; drop the frame rather than block the engine.
		c.logger.Warn("ws send buffer full, dropping frame")
	}
}

func (c *Client) pushState(st chat.State) {
	c.push(frame{Type: "state", State: &st})
}

func (c *Client) pushError(err error) {
	c.push(frame{Type: "error", Error: err.Error()})
}
