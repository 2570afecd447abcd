package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/roomcoord/internal/app"
	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/domain"
)

var ErrUnknownConnection = domain.NewError(domain.KindAuthenticationRequired, "connection is not registered")

// Orchestrator coordinates room membership, presence, screen sharing and
// signaling for authenticated connections. Operations never touch the
// transport: they return the events to emit.
type Orchestrator struct {
	Registry *app.Registry
	Presence *app.PresenceRegistry
	Screens  *app.ScreenArbitrator
	Rooms    core.RoomRepository
	Messages core.MessageRepository
}

// Result is the synchronous outcome of one inbound event. State, when set,
// is echoed in the acknowledgement.
type Result struct {
	State   any
	Effects core.Effects
}

func (o *Orchestrator) connection(id core.ConnID) (*app.Connection, error) {
	c, ok := o.Registry.Get(id)
	if !ok {
		return nil, ErrUnknownConnection
	}
	return c, nil
}

func (o *Orchestrator) ensureMembership(ctx context.Context, roomID domain.RoomID, userID domain.UserID) error {
	check, err := o.Rooms.IsParticipant(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("membership check: %w", err)
	}
	if !check.Exists {
		return domain.ErrRoomNotFound
	}
	if !check.IsMember {
		return domain.ErrNotRoomMember
	}
	return nil
}

// closeRoom drops every piece of ephemeral state for a deleted room.
func (o *Orchestrator) closeRoom(roomID domain.RoomID, fx *core.Effects) {
	o.Screens.ForceClear(roomID)
	o.Presence.Clear(roomID)
	o.Registry.DropRoom(roomID)
	fx.Closed(roomID)
}
