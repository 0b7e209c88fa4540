package ws

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"feeledger/internal/notify"
)

const defaultWriteTimeout = 10 * time.Second

// Server upgrades HTTP connections and attaches each client as a ledger
// observer. Clients receive ledger_changed events as JSON text frames and are
// expected to re-fetch the ledger view on receipt.
type Server struct {
	hub          *notify.Hub
	logger       *zap.Logger
	pingInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewServer builds the observer endpoint.
func NewServer(hub *notify.Hub, pingInterval time.Duration, logger *zap.Logger) *Server {
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Server{
		hub:          hub,
		logger:       logger,
		pingInterval: pingInterval,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleWS is the HTTP handler for the /ws endpoint.
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	observer := s.hub.Subscribe(16)
	c := &client{
		ws:           conn,
		observer:     observer,
		hub:          s.hub,
		logger:       s.logger,
		pingInterval: s.pingInterval,
	}
	go c.writePump()
	go c.readPump()

	s.logger.Info("observer connected", zap.String("remote", r.RemoteAddr))
}

type client struct {
	ws           *websocket.Conn
	observer     *notify.Observer
	hub          *notify.Hub
	logger       *zap.Logger
	pingInterval time.Duration
}

// readPump exists only to detect the peer closing; observers never send
// meaningful frames.
func (c *client) readPump() {
	defer c.cleanup()
	c.ws.SetReadLimit(1024)
	c.ws.SetReadDeadline(time.Now().Add(2 * c.pingInterval))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(2 * c.pingInterval))
		return nil
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-c.observer.Events():
			if !ok {
				_ = c.write(websocket.CloseMessage, nil)
				return
			}
			c.ws.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
			if err := c.ws.WriteJSON(event); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, []byte("ping")); err != nil {
				return
			}
		}
	}
}

func (c *client) write(messageType int, data []byte) error {
	c.ws.SetWriteDeadline(time.Now().Add(defaultWriteTimeout))
	return c.ws.WriteMessage(messageType, data)
}

func (c *client) cleanup() {
	c.hub.Unsubscribe(c.observer)
	_ = c.ws.Close()
}
