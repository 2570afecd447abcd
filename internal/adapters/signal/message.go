package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/roomcoord/internal/app/orch"
	"github.com/dkeye/roomcoord/internal/core"
)

func (ctl *SignalWSController) handleMessageSend(ctx context.Context, id core.ConnID, payload json.RawMessage) (orch.Result, error) {
	var req orch.MessageRequest
	if err := decode(payload, &req); err != nil {
		return orch.Result{}, err
	}
	return ctl.Orch.SendMessage(ctx, id, req)
}
