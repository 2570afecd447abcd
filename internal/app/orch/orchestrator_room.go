package orch

import (
	"context"
	"fmt"

	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/rs/zerolog/log"
)

// Join makes connID present in roomID after vacating every other room held
// by the same identity, on this connection and on its siblings.
//
// Effects produced before a failure are returned together with the error:
// the evictions already happened and must still be announced.
func (o *Orchestrator) Join(ctx context.Context, connID core.ConnID, roomID domain.RoomID) (Result, error) {
	var res Result
	if roomID == "" {
		return res, domain.ErrRoomIDRequired
	}
	conn, err := o.connection(connID)
	if err != nil {
		return res, err
	}
	user := conn.Identity.ID
	logger := log.With().Str("module", "orch").Str("conn", string(connID)).Str("user", string(user)).Str("room", string(roomID)).Logger()

	if err := o.ensureMembership(ctx, roomID, user); err != nil {
		return res, err
	}

	for _, other := range o.Registry.RoomsOf(connID) {
		if other == roomID {
			continue
		}
		if err := o.vacate(ctx, connID, user, other, &res.Effects); err != nil {
			return res, err
		}
		logger.Info().Str("from_room", string(other)).Msg("left previous room")
	}

	for _, sib := range o.Registry.Siblings(connID) {
		for _, other := range o.Registry.RoomsOf(sib) {
			if other == roomID {
				continue
			}
			if err := o.vacate(ctx, sib, user, other, &res.Effects); err != nil {
				return res, err
			}
			res.Effects.Add(core.Event{
				Scope:   core.ScopeConn,
				Conn:    sib,
				Room:    other,
				Topic:   core.TopicForceLeave,
				Payload: core.ForceLeave{RoomID: other, Reason: core.ReasonExclusiveMembership},
			})
			logger.Info().Str("sibling", string(sib)).Str("from_room", string(other)).Msg("sibling forced out")
		}
	}

	// Persisted rooms still listing the identity without any live presence,
	// e.g. left over from an HTTP join.
	stale, err := o.Rooms.FindByParticipant(ctx, user, roomID)
	if err != nil {
		return res, fmt.Errorf("find rooms by participant: %w", err)
	}
	for _, r := range stale {
		if o.Presence.Snapshot(r.ID).Contains(user) {
			continue
		}
		if err := o.release(ctx, user, r.ID, &res.Effects); err != nil {
			return res, err
		}
	}

	if err := o.Rooms.AddParticipant(ctx, roomID, user); err != nil {
		return res, fmt.Errorf("add participant: %w", err)
	}
	if o.Registry.AddRoom(connID, roomID) {
		res.Effects.Presence(o.Presence.Add(roomID, conn.Identity))
	} else {
		res.Effects.Presence(o.Presence.Snapshot(roomID))
	}
	logger.Info().Msg("joined room")
	return res, nil
}

// Leave takes connID out of roomID.
func (o *Orchestrator) Leave(ctx context.Context, connID core.ConnID, roomID domain.RoomID) (Result, error) {
	var res Result
	if roomID == "" {
		return res, domain.ErrRoomIDRequired
	}
	conn, err := o.connection(connID)
	if err != nil {
		return res, err
	}
	user := conn.Identity.ID

	if o.Registry.InRoom(connID, roomID) {
		err = o.vacate(ctx, connID, user, roomID, &res.Effects)
	} else if !o.Presence.Snapshot(roomID).Contains(user) {
		// Not joined on any connection: the leave still removes the persisted membership.
		err = o.release(ctx, user, roomID, &res.Effects)
	}
	if err != nil {
		return res, err
	}
	log.Info().Str("module", "orch").Str("conn", string(connID)).Str("room", string(roomID)).Msg("left room")
	return res, nil
}

// Disconnect cleans up after a closed connection. Per-room failures are
// logged and skipped so one room cannot block the others.
func (o *Orchestrator) Disconnect(ctx context.Context, connID core.ConnID) core.Effects {
	var fx core.Effects
	conn, ok := o.Registry.Get(connID)
	if !ok {
		return fx
	}
	user := conn.Identity.ID

	for _, roomID := range o.Registry.RoomsOf(connID) {
		if err := o.vacate(ctx, connID, user, roomID, &fx); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("conn", string(connID)).Str("room", string(roomID)).Msg("disconnect cleanup failed")
		}
	}

	if last := o.Registry.Unbind(connID); last {
		for _, state := range o.Presence.RemoveIdentityEverywhere(user) {
			fx.Presence(state)
		}
		for _, state := range o.Screens.ClearForIdentity(user) {
			fx.Screen(state)
		}
	}
	log.Info().Str("module", "orch").Str("conn", string(connID)).Str("user", string(user)).Msg("disconnected")
	return fx
}

// vacate removes one connection of user from roomID. The persisted
// participant and the screen role are released only with the identity's
// last connection in that room.
func (o *Orchestrator) vacate(ctx context.Context, connID core.ConnID, user domain.UserID, roomID domain.RoomID, fx *core.Effects) error {
	if !o.Registry.RemoveRoom(connID, roomID) {
		return nil
	}
	state := o.Presence.Remove(roomID, user)
	fx.Presence(state)
	if state.Contains(user) {
		return nil
	}
	if screen, changed := o.Screens.Release(roomID, user); changed {
		fx.Screen(screen)
	}
	return o.release(ctx, user, roomID, fx)
}

// release ensures user is absent from the persisted participants of roomID,
// closing the room when that empties it.
func (o *Orchestrator) release(ctx context.Context, user domain.UserID, roomID domain.RoomID, fx *core.Effects) error {
	removed, err := o.Rooms.RemoveParticipant(ctx, roomID, user)
	if err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	if removed.Deleted {
		log.Info().Str("module", "orch").Str("room", string(roomID)).Msg("room emptied and deleted")
		o.closeRoom(roomID, fx)
	}
	return nil
}
