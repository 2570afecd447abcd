package signal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/roomcoord/internal/adapters/auth"
	"github.com/dkeye/roomcoord/internal/app"
	"github.com/dkeye/roomcoord/internal/app/orch"
	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/dkeye/roomcoord/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Gate    *auth.Gate
	Policy  app.Policy
	Limiter *RoomRateLimiter

	SendBuffer int
	ReadLimit  int64
	PingPeriod time.Duration

	pumps sync.WaitGroup
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
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

// HandleSignal authenticates the handshake, upgrades it and starts the pumps.
// A refused handshake never reaches the upgrade.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	identity, err := ctl.Gate.Authenticate(c.Request.Context(), auth.TokenFromRequest(c))
	if err != nil {
		metrics.Refused.Inc()
		log.Warn().Err(err).Str("module", "signal").Str("remote", c.ClientIP()).Msg("handshake refused")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": err.Error(),
			"code":    domain.KindOf(err),
		})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.SendBuffer),
	}
	id := core.ConnID(uuid.NewString())
	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.BindSignal(id, identity, conn, cancel)
	metrics.Connections.Inc()
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("user", string(identity.ID)).Msg("new WS connection")

	ctl.pumps.Add(1)
	go ctl.writePump(ctx, conn)
	go func() {
		defer ctl.pumps.Done()
		ctl.readPump(ctx, id, conn)
	}()
}

// Drain closes every live connection and waits until each disconnect
// cleanup has finished, or ctx expires.
func (ctl *SignalWSController) Drain(ctx context.Context) error {
	for _, c := range ctl.Orch.Registry.All() {
		c.Signal.Close()
	}
	done := make(chan struct{})
	go func() {
		ctl.pumps.Wait()
		close(done)
	}()
	select {
	case <-done:
		log.Info().Str("module", "signal").Msg("connections drained")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain connections: %w", ctx.Err())
	}
}
