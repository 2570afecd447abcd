package signal

import (
	"encoding/json"
	"errors"

	"github.com/dkeye/roomcoord/internal/app"
	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Emit delivers effects in order. A full send buffer is resolved by the
// controller's Policy; a closed connection is skipped.
func (ctl *SignalWSController) Emit(fx core.Effects) {
	for _, ev := range fx {
		frame, err := json.Marshal(eventFrame{Type: ev.Topic, Payload: ev.Payload})
		if err != nil {
			log.Error().Err(err).Str("module", "signal").Str("topic", ev.Topic).Msg("emit marshal")
			continue
		}
		targets := ctl.targets(ev)
		for _, conn := range targets {
			ctl.deliver(conn, ev.Topic, frame)
		}
		log.Debug().Str("module", "signal").Str("topic", ev.Topic).Str("scope", ev.Scope.String()).
			Str("room", string(ev.Room)).Int("targets", len(targets)).Msg("emit")
	}
}

func (ctl *SignalWSController) targets(ev core.Event) []*app.Connection {
	reg := ctl.Orch.Registry
	switch ev.Scope {
	case core.ScopeAll:
		return reg.All()
	case core.ScopeRoom:
		return reg.ConnectionsInRoom(ev.Room)
	case core.ScopeUser:
		return reg.OfUser(ev.User)
	case core.ScopeConn:
		if c, ok := reg.Get(ev.Conn); ok {
			return []*app.Connection{c}
		}
	}
	return nil
}

func (ctl *SignalWSController) deliver(conn *app.Connection, topic string, frame core.Frame) {
	err := conn.Signal.TrySend(frame)
	switch {
	case err == nil:
		metrics.Emitted.WithLabelValues(topic).Inc()
		return
	case errors.Is(err, ErrConnClosed):
		return
	}

	metrics.Dropped.Inc()
	action := app.DropFrame
	if ctl.Policy != nil {
		action = ctl.Policy.OnBackPressure(conn)
	}
	log.Warn().Err(err).Str("module", "signal").Str("conn", string(conn.ID)).Str("topic", topic).Msg("send failed")
	if action == app.KickConnection {
		ctl.Orch.Registry.Cancel(conn.ID)
	}
}
