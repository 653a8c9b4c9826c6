package rpc

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dmaret/interp/internal/app"
	"github.com/dmaret/interp/internal/core"
	"github.com/dmaret/interp/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// Controller owns the WebSocket side of the procedure channel: it accepts
// room clients, dispatches their inbound procedures to the engine and
// tears the mapping down on disconnect.
type Controller struct {
	Engine   *app.Engine
	Notifier *Notifier
}

func NewController(engine *app.Engine, notifier *Notifier) *Controller {
	if engine == nil || notifier == nil {
		panic("rpc: nil engine or notifier")
	}
	return &Controller{Engine: engine, Notifier: notifier}
}

// WsConn is one client's leg of the channel. Sends never block: a full
// send buffer returns ErrBackpressure and the frame is dropped.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleRoom upgrades a room client connection and starts its pumps. The
// client identity is the transport token assigned by the router.
func (ctl *Controller) HandleRoom(ctx context.Context, c *gin.Context) {
	cid := domain.ClientID(c.GetString("client_token"))
	log.Info().Str("module", "rpc").Str("client", string(cid)).Msg("new room connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "rpc").Msg("ws upgrade")
		return
	}

	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	ctl.Notifier.Bind(cid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, cid, conn)
}
