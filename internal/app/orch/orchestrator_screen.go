package orch

import (
	"context"

	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/rs/zerolog/log"
)

type AvailabilityRequest struct {
	RoomID      domain.RoomID `json:"roomId"`
	IsAvailable *bool         `json:"isAvailable"`
}

type RoomRequest struct {
	RoomID domain.RoomID `json:"roomId"`
}

var ErrInvalidPayload = domain.NewError(domain.KindInvalidPayload, "Invalid payload")

// SetAvailability toggles the caller as the room's presenter.
func (o *Orchestrator) SetAvailability(ctx context.Context, connID core.ConnID, req AvailabilityRequest) (Result, error) {
	var res Result
	if req.RoomID == "" || req.IsAvailable == nil {
		return res, ErrInvalidPayload
	}
	conn, err := o.connection(connID)
	if err != nil {
		return res, err
	}
	user := conn.Identity.ID
	if err := o.ensureMembership(ctx, req.RoomID, user); err != nil {
		return res, err
	}

	state, err := o.Screens.SetAvailability(ctx, req.RoomID, user, *req.IsAvailable)
	if err != nil {
		return res, err
	}
	res.State = state
	res.Effects.Screen(state)
	log.Info().Str("module", "orch").Str("user", string(user)).Str("room", string(req.RoomID)).
		Bool("available", *req.IsAvailable).Msg("screen availability")
	return res, nil
}

// RequestView routes a view request from the caller to the active presenter.
func (o *Orchestrator) RequestView(ctx context.Context, connID core.ConnID, req RoomRequest) (Result, error) {
	var res Result
	if req.RoomID == "" {
		return res, ErrInvalidPayload
	}
	conn, err := o.connection(connID)
	if err != nil {
		return res, err
	}
	user := conn.Identity.ID
	if err := o.ensureMembership(ctx, req.RoomID, user); err != nil {
		return res, err
	}

	presenter, err := o.Screens.RequestView(req.RoomID, user)
	if err != nil {
		return res, err
	}
	res.Effects.Add(core.Event{
		Scope: core.ScopeUser,
		User:  presenter,
		Room:  req.RoomID,
		Topic: core.TopicScreenRequest,
		Payload: core.ScreenRequest{
			RoomID:       req.RoomID,
			FromUserID:   user,
			TargetUserID: presenter,
		},
	})
	return res, nil
}

// EndScreen stops presenting, or stops viewing when the caller is not the presenter.
func (o *Orchestrator) EndScreen(ctx context.Context, connID core.ConnID, req RoomRequest) (Result, error) {
	var res Result
	if req.RoomID == "" {
		return res, ErrInvalidPayload
	}
	conn, err := o.connection(connID)
	if err != nil {
		return res, err
	}
	user := conn.Identity.ID
	if err := o.ensureMembership(ctx, req.RoomID, user); err != nil {
		return res, err
	}

	var state domain.ScreenState
	if o.Screens.IsPresenting(req.RoomID, user) {
		if state, err = o.Screens.Clear(req.RoomID, user); err != nil {
			return res, err
		}
	} else {
		state = o.Screens.RemoveViewer(req.RoomID, user)
	}
	res.State = state
	res.Effects.Screen(state)
	return res, nil
}

// ScreenState answers the caller with the room's current session.
func (o *Orchestrator) ScreenState(ctx context.Context, connID core.ConnID, roomID domain.RoomID) (Result, error) {
	conn, err := o.connection(connID)
	if err != nil {
		return Result{}, err
	}
	state, err := o.RoomScreen(ctx, conn.Identity.ID, roomID)
	if err != nil {
		return Result{}, err
	}
	return Result{State: state}, nil
}
