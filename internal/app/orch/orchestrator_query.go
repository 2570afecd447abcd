package orch

import (
	"context"

	"github.com/dkeye/roomcoord/internal/domain"
)

// RoomPresence returns the live roster of roomID to one of its members.
func (o *Orchestrator) RoomPresence(ctx context.Context, user domain.UserID, roomID domain.RoomID) (domain.PresenceState, error) {
	if roomID == "" {
		return domain.PresenceState{}, domain.ErrRoomIDRequired
	}
	if err := o.ensureMembership(ctx, roomID, user); err != nil {
		return domain.PresenceState{}, err
	}
	return o.Presence.Snapshot(roomID), nil
}

// RoomScreen returns the screen-share state of roomID to one of its members.
func (o *Orchestrator) RoomScreen(ctx context.Context, user domain.UserID, roomID domain.RoomID) (domain.ScreenState, error) {
	if roomID == "" {
		return domain.ScreenState{}, domain.ErrRoomIDRequired
	}
	if err := o.ensureMembership(ctx, roomID, user); err != nil {
		return domain.ScreenState{}, err
	}
	return o.Screens.State(roomID), nil
}
