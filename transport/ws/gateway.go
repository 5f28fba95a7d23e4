// Package ws is the session gateway: it upgrades HTTP requests to websocket
// connections, binds each connection to a user identity and shuttles wire
// events between the client and the presence/delivery core.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"lovefindme/contract"
	"lovefindme/domain"
	"lovefindme/domain/event"
	"lovefindme/errors"
	"lovefindme/services"
	"lovefindme/sink"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

type Gateway struct {
	log      *slog.Logger
	registry contract.IRegistry
	chat     services.IChatService

	bufferSize int
	upgrader   websocket.Upgrader
}

func NewGateway(log *slog.Logger, registry contract.IRegistry,
	chat services.IChatService, bufferSize int) *Gateway {
	return &Gateway{
		log:        log,
		registry:   registry,
		chat:       chat,
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser client is served from another origin, as with the
			// permissive CORS policy on the REST side.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Handle upgrades one request and runs the connection until it closes.
// It blocks for the lifetime of the connection.
func (g *Gateway) Handle(w http.ResponseWriter, r *http.Request) {
	wsConn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Warn("Websocket upgrade failed", "error", err)
		return
	}

	c := &connection{
		id:      contract.SessionID(uuid.NewString()),
		ws:      wsConn,
		sink:    sink.NewConnection(g.bufferSize),
		gateway: g,
		done:    make(chan struct{}),
	}

	g.log.Debug("Connection opened", "session_id", c.id)
	go c.writePump()
	c.readLoop(r.Context())
}

// connection is one live session. Its state machine is
// connected -> identified -> closed: events arriving before a successful
// join are answered with an error and otherwise ignored, and closing —
// explicit or abnormal — deregisters the session exactly once.
type connection struct {
	id      contract.SessionID
	ws      *websocket.Conn
	sink    *sink.Connection
	gateway *Gateway

	user       domain.UserID
	identified bool

	done      chan struct{}
	leaveOnce sync.Once
}

// readLoop handles the inbound event stream. Any read error — clean close or
// crashed client — funnels into the same cleanup, so an abandoned session
// never leaks a stale presence entry.
func (c *connection) readLoop(ctx context.Context) {
	defer c.close()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gateway.log.Debug("Connection dropped", "session_id", c.id, "error", err)
			}
			return
		}

		inbound, err := Decode(raw)
		if err != nil {
			c.reply(ctx, event.Failure{Message: err.Error()})
			continue
		}

		switch e := inbound.(type) {
		case event.Join:
			c.handleJoin(ctx, e)
		case event.SendMessage:
			c.handleSend(ctx, e)
		}
	}
}

func (c *connection) handleJoin(ctx context.Context, e event.Join) {
	if c.identified {
		c.reply(ctx, event.Failure{Message: "already identified"})
		return
	}

	userID := domain.UserID(e.UserID)
	// An unresolvable identity is terminal for this join attempt: the
	// registry logs it and the connection simply stays unidentified.
	if err := c.gateway.registry.Join(ctx, userID, c.id, c.sink); err != nil {
		return
	}
	c.user = userID
	c.identified = true
}

func (c *connection) handleSend(ctx context.Context, e event.SendMessage) {
	if !c.identified {
		c.reply(ctx, event.Failure{Message: errors.ErrNotIdentified.Error()})
		return
	}

	_, err := c.gateway.chat.Send(ctx, domain.UserID(e.Sender), domain.UserID(e.Receiver), e.Content)
	if err != nil {
		// Validation and storage errors go back to the originating
		// connection only; the router already pushed to both ends on
		// success.
		c.reply(ctx, event.Failure{Message: err.Error()})
	}
}

// reply queues an event for this connection only.
func (c *connection) reply(ctx context.Context, e event.Outbound) {
	_ = c.sink.Consume(ctx, e)
}

// close runs the terminal transition. Leave fires exactly once however the
// connection dies.
func (c *connection) close() {
	c.leaveOnce.Do(func() {
		close(c.done)
		if c.identified {
			c.gateway.registry.Leave(c.id)
		}
		_ = c.ws.Close()
		c.gateway.log.Debug("Connection closed", "session_id", c.id)
	})
}

// writePump serializes all writes to the websocket and keeps the connection
// alive with pings. A write failure closes the socket, which unblocks the
// read loop and triggers cleanup there.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case e := <-c.sink.Events:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			frame, err := Encode(e)
			if err != nil {
				c.gateway.log.Error("Failed to encode outbound event", "error", err)
				continue
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}
