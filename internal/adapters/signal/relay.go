package signal

import (
	"context"
	"encoding/json"

	"github.com/dkeye/roomcoord/internal/app/orch"
	"github.com/dkeye/roomcoord/internal/core"
)

type relayFunc func(ctx context.Context, id core.ConnID, req orch.NegotiationRequest) (orch.Result, error)

func (ctl *SignalWSController) relay(ctx context.Context, id core.ConnID, payload json.RawMessage, fn relayFunc) (orch.Result, error) {
	var req orch.NegotiationRequest
	if err := decode(payload, &req); err != nil {
		return orch.Result{}, err
	}
	return fn(ctx, id, req)
}

func (ctl *SignalWSController) handleOffer(ctx context.Context, id core.ConnID, payload json.RawMessage) (orch.Result, error) {
	return ctl.relay(ctx, id, payload, ctl.Orch.Offer)
}

func (ctl *SignalWSController) handleAnswer(ctx context.Context, id core.ConnID, payload json.RawMessage) (orch.Result, error) {
	return ctl.relay(ctx, id, payload, ctl.Orch.Answer)
}

func (ctl *SignalWSController) handleCandidate(ctx context.Context, id core.ConnID, payload json.RawMessage) (orch.Result, error) {
	return ctl.relay(ctx, id, payload, ctl.Orch.Candidate)
}
