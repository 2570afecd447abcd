package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/roomcoord/internal/app/orch"
	"github.com/dkeye/roomcoord/internal/core"
)

func (ctl *SignalWSController) handleAvailability(ctx context.Context, id core.ConnID, payload json.RawMessage) (orch.Result, error) {
	var req orch.AvailabilityRequest
	if err := decode(payload, &req); err != nil {
		return orch.Result{}, err
	}
	return ctl.Orch.SetAvailability(ctx, id, req)
}

func (ctl *SignalWSController) handleScreenRequest(ctx context.Context, id core.ConnID, payload json.RawMessage) (orch.Result, error) {
	var req orch.RoomRequest
	if err := decode(payload, &req); err != nil {
		return orch.Result{}, err
	}
	return ctl.Orch.RequestView(ctx, id, req)
}

func (ctl *SignalWSController) handleScreenEnd(ctx context.Context, id core.ConnID, payload json.RawMessage) (orch.Result, error) {
	var req orch.RoomRequest
	if err := decode(payload, &req); err != nil {
		return orch.Result{}, err
	}
	return ctl.Orch.EndScreen(ctx, id, req)
}

func (ctl *SignalWSController) handleScreenStateRequest(ctx context.Context, id core.ConnID, payload json.RawMessage) (orch.Result, error) {
	roomID, err := decodeRoomID(payload)
	if err != nil {
		return orch.Result{}, err
	}
	return ctl.Orch.ScreenState(ctx, id, roomID)
}
