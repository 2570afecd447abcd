package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/roomcoord/internal/app/orch"
	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/dkeye/roomcoord/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeWait = 5 * time.Second

// Inbound topics.
const (
	TopicRoomJoin           = "room:join"
	TopicRoomLeave          = "room:leave"
	TopicScreenAvailability = "screen:availability"
	TopicScreenRequest      = "screen:request"
	TopicScreenOffer        = "screen:offer"
	TopicScreenAnswer       = "screen:answer"
	TopicScreenICE          = "screen:ice-candidate"
	TopicScreenEnd          = "screen:end"
	TopicScreenStateRequest = "screen:state:request"
	TopicMessageSend        = "message:send"
	TopicPing               = "ping"
	TopicWhoAmI             = "whoami"
)

type envelope struct {
	Type    string          `json:"type"`
	ID      json.RawMessage `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type ackFrame struct {
	Type    string           `json:"type"`
	ID      json.RawMessage  `json:"id,omitempty"`
	Topic   string           `json:"topic"`
	Status  string           `json:"status"`
	Message string           `json:"message,omitempty"`
	Code    domain.ErrorKind `json:"code,omitempty"`
	State   any              `json:"state,omitempty"`
}

type eventFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func (ctl *SignalWSController) pongWait() time.Duration {
	return ctl.PingPeriod * 10 / 9
}

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

// readPump handles one event at a time for its connection; the disconnect
// cleanup runs exactly once when it exits.
func (ctl *SignalWSController) readPump(ctx context.Context, id core.ConnID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(id)).Msg("readPump closing")
		conn, known := ctl.Orch.Registry.Get(id)
		ctl.Emit(ctl.Orch.Disconnect(context.Background(), id))
		if known && len(ctl.Orch.Registry.OfUser(conn.Identity.ID)) == 0 {
			ctl.Limiter.Forget(conn.Identity.ID)
		}
		c.Close()
		metrics.Connections.Dec()
	}()

	c.conn.SetReadLimit(ctl.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.pongWait()))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(ctx, id, c, data)
	}
}

func (ctl *SignalWSController) handleSignal(ctx context.Context, id core.ConnID, c *WsSignalConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json")
		ctl.ack(c, env, orch.Result{}, orch.ErrInvalidPayload)
		return
	}

	var (
		res orch.Result
		err error
	)
	switch env.Type {
	case TopicRoomJoin:
		res, err = ctl.handleJoin(ctx, id, env.Payload)
	case TopicRoomLeave:
		res, err = ctl.handleLeave(ctx, id, env.Payload)
	case TopicScreenAvailability:
		res, err = ctl.handleAvailability(ctx, id, env.Payload)
	case TopicScreenRequest:
		res, err = ctl.handleScreenRequest(ctx, id, env.Payload)
	case TopicScreenEnd:
		res, err = ctl.handleScreenEnd(ctx, id, env.Payload)
	case TopicScreenStateRequest:
		res, err = ctl.handleScreenStateRequest(ctx, id, env.Payload)
	case TopicScreenOffer:
		res, err = ctl.handleOffer(ctx, id, env.Payload)
	case TopicScreenAnswer:
		res, err = ctl.handleAnswer(ctx, id, env.Payload)
	case TopicScreenICE:
		res, err = ctl.handleCandidate(ctx, id, env.Payload)
	case TopicMessageSend:
		res, err = ctl.handleMessageSend(ctx, id, env.Payload)
	case TopicPing:
		ctl.handlePing(c)
		return
	case TopicWhoAmI:
		res, err = ctl.handleWhoAmI(id)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		err = domain.NewError(domain.KindInvalidPayload, "Unknown event %q", env.Type)
	}

	ctl.Emit(res.Effects)
	ctl.ack(c, env, res, err)
}

// ack answers the invoking connection only; errors are never broadcast.
func (ctl *SignalWSController) ack(c *WsSignalConn, env envelope, res orch.Result, err error) {
	a := ackFrame{Type: "ack", ID: env.ID, Topic: env.Type, Status: "ok", State: res.State}
	if err != nil {
		kind := domain.KindOf(err)
		a.Status = "error"
		a.Code = kind
		a.State = nil
		a.Message = err.Error()
		if kind == domain.KindInternal {
			log.Error().Err(err).Str("module", "signal").Str("type", env.Type).Msg("event failed")
			a.Message = "Internal error"
		} else {
			log.Warn().Err(err).Str("module", "signal").Str("type", env.Type).Msg("event rejected")
		}
	}
	metrics.Events.WithLabelValues(metricTopic(env.Type), a.Status).Inc()
	ctl.sendJSON(c, a)
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func metricTopic(topic string) string {
	switch topic {
	case TopicRoomJoin, TopicRoomLeave, TopicScreenAvailability, TopicScreenRequest, TopicScreenOffer,
		TopicScreenAnswer, TopicScreenICE, TopicScreenEnd, TopicScreenStateRequest, TopicMessageSend, TopicWhoAmI:
		return topic
	}
	return "unknown"
}

// decode unmarshals a payload, mapping syntax errors to InvalidPayload.
func decode(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return orch.ErrInvalidPayload
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return orch.ErrInvalidPayload
	}
	return nil
}

// decodeRoomID accepts either a bare room id string or {"roomId": "..."}.
func decodeRoomID(raw json.RawMessage) (domain.RoomID, error) {
	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		return domain.RoomID(id), nil
	}
	var req orch.RoomRequest
	if err := decode(raw, &req); err != nil {
		return "", err
	}
	return req.RoomID, nil
}
