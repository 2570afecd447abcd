package orch

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/rs/zerolog/log"
)

type MessageRequest struct {
	RoomID  domain.RoomID `json:"roomId"`
	Content string        `json:"content"`
}

// SendMessage stores a chat line from the caller and relays it to the
// connections that joined the room.
func (o *Orchestrator) SendMessage(ctx context.Context, connID core.ConnID, req MessageRequest) (Result, error) {
	var res Result
	if req.RoomID == "" {
		return res, ErrInvalidPayload
	}
	content, err := domain.NormalizeContent(req.Content)
	if err != nil {
		return res, err
	}
	conn, err := o.connection(connID)
	if err != nil {
		return res, err
	}
	identity := conn.Identity
	if err := o.ensureMembership(ctx, req.RoomID, identity.ID); err != nil {
		return res, err
	}

	msg, err := o.Messages.Create(ctx, domain.Message{
		RoomID:  req.RoomID,
		UserID:  identity.ID,
		Content: content,
		User:    &domain.MessageAuthor{ID: identity.ID, Name: identity.DisplayName(), Avatar: identity.Avatar},
	})
	if err != nil {
		return res, fmt.Errorf("store message: %w", err)
	}
	res.State = msg
	res.Effects.Message(*msg)
	log.Debug().Str("module", "orch").Str("user", string(identity.ID)).Str("room", string(req.RoomID)).
		Str("message", string(msg.ID)).Msg("message sent")
	return res, nil
}

// RoomHistory returns up to limit messages of roomID older than before,
// oldest first.
func (o *Orchestrator) RoomHistory(ctx context.Context, user domain.UserID, roomID domain.RoomID, limit int, before time.Time) ([]domain.Message, error) {
	if roomID == "" {
		return nil, domain.ErrRoomIDRequired
	}
	if err := o.ensureMembership(ctx, roomID, user); err != nil {
		return nil, err
	}
	msgs, err := o.Messages.FindRecentByRoom(ctx, roomID, domain.ClampHistoryLimit(limit), before)
	if err != nil {
		return nil, fmt.Errorf("room history: %w", err)
	}
	slices.Reverse(msgs)
	return msgs, nil
}
