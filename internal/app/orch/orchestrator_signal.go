package orch

import (
	"context"
	"encoding/json"

	"github.com/dkeye/roomcoord/internal/app"
	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/rs/zerolog/log"
)

// NegotiationRequest carries an opaque offer/answer (Description) or ICE
// candidate (Candidate) for TargetUserID.
type NegotiationRequest struct {
	RoomID       domain.RoomID   `json:"roomId"`
	TargetUserID domain.UserID   `json:"targetUserId"`
	Description  json.RawMessage `json:"description,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
}

var (
	ErrNotActivePresenter = domain.NewError(domain.KindForbidden, "You are not the active presenter")
	ErrPresenterNotPeer   = domain.NewError(domain.KindForbidden, "Negotiation must involve the active presenter")
	ErrSelfTarget         = domain.NewError(domain.KindInvalidPayload, "Cannot target yourself")
)

func blank(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// checkRelay runs the gates shared by every relayed message and returns
// the caller's id and the active presenter.
func (o *Orchestrator) checkRelay(ctx context.Context, connID core.ConnID, req NegotiationRequest, payload json.RawMessage) (from, presenter domain.UserID, err error) {
	if req.RoomID == "" || req.TargetUserID == "" || blank(payload) {
		return "", "", ErrInvalidPayload
	}
	conn, err := o.connection(connID)
	if err != nil {
		return "", "", err
	}
	from = conn.Identity.ID
	if from == req.TargetUserID {
		return "", "", ErrSelfTarget
	}
	if err := o.ensureMembership(ctx, req.RoomID, from); err != nil {
		return "", "", err
	}
	if err := o.ensureMembership(ctx, req.RoomID, req.TargetUserID); err != nil {
		return "", "", err
	}
	presenter, ok := o.Screens.State(req.RoomID).Presenter()
	if !ok {
		return "", "", app.ErrNoActiveShare
	}
	return from, presenter, nil
}

func (o *Orchestrator) forward(topic string, from domain.UserID, req NegotiationRequest) core.Event {
	return core.Event{
		Scope: core.ScopeUser,
		User:  req.TargetUserID,
		Room:  req.RoomID,
		Topic: topic,
		Payload: core.Negotiation{
			RoomID:       req.RoomID,
			FromUserID:   from,
			TargetUserID: req.TargetUserID,
			Description:  req.Description,
			Candidate:    req.Candidate,
		},
	}
}

// Offer forwards the presenter's offer to one viewer.
func (o *Orchestrator) Offer(ctx context.Context, connID core.ConnID, req NegotiationRequest) (Result, error) {
	var res Result
	from, presenter, err := o.checkRelay(ctx, connID, req, req.Description)
	if err != nil {
		return res, err
	}
	if from != presenter {
		return res, ErrNotActivePresenter
	}
	req.Candidate = nil
	res.Effects.Add(o.forward(core.TopicScreenOffer, from, req))
	log.Debug().Str("module", "orch.relay").Str("from", string(from)).Str("to", string(req.TargetUserID)).Msg("offer relayed")
	return res, nil
}

// Answer forwards an answer between presenter and viewer; a viewer answering
// joins the viewer set.
func (o *Orchestrator) Answer(ctx context.Context, connID core.ConnID, req NegotiationRequest) (Result, error) {
	var res Result
	from, presenter, err := o.checkRelay(ctx, connID, req, req.Description)
	if err != nil {
		return res, err
	}
	if from != presenter && req.TargetUserID != presenter {
		return res, ErrPresenterNotPeer
	}
	req.Candidate = nil
	state := o.Screens.AddViewer(req.RoomID, from)
	res.State = state
	res.Effects.Add(o.forward(core.TopicScreenAnswer, from, req))
	res.Effects.Screen(state)
	log.Debug().Str("module", "orch.relay").Str("from", string(from)).Str("to", string(req.TargetUserID)).Msg("answer relayed")
	return res, nil
}

// Candidate forwards an ICE candidate between presenter and viewer.
func (o *Orchestrator) Candidate(ctx context.Context, connID core.ConnID, req NegotiationRequest) (Result, error) {
	var res Result
	from, presenter, err := o.checkRelay(ctx, connID, req, req.Candidate)
	if err != nil {
		return res, err
	}
	if from != presenter && req.TargetUserID != presenter {
		return res, ErrPresenterNotPeer
	}
	req.Description = nil
	res.Effects.Add(o.forward(core.TopicScreenICE, from, req))
	return res, nil
}
