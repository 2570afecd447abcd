package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/roomcoord/internal/app/orch"
	"github.com/dkeye/roomcoord/internal/core"
)

func (ctl *SignalWSController) handleJoin(ctx context.Context, id core.ConnID, payload json.RawMessage) (orch.Result, error) {
	roomID, err := decodeRoomID(payload)
	if err != nil {
		return orch.Result{}, err
	}
	if conn, ok := ctl.Orch.Registry.Get(id); ok && !ctl.Limiter.Allow(conn.Identity.ID) {
		return orch.Result{}, ErrJoinRateLimited
	}
	res, err := ctl.Orch.Join(ctx, id, roomID)
	if err == nil {
		res.State = ctl.Orch.Presence.Snapshot(roomID)
	}
	return res, err
}

func (ctl *SignalWSController) handleLeave(ctx context.Context, id core.ConnID, payload json.RawMessage) (orch.Result, error) {
	roomID, err := decodeRoomID(payload)
	if err != nil {
		return orch.Result{}, err
	}
	return ctl.Orch.Leave(ctx, id, roomID)
}
