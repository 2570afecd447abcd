package core

import (
	"context"
	"time"

	"github.com/dkeye/roomcoord/internal/domain"
)

// RoomRepository is the narrow view of the document store this layer needs.
// Every mutation is an idempotent ensure-present / ensure-absent.
type RoomRepository interface {
	// Create stores a new room with owner as its only participant.
	Create(ctx context.Context, name string, owner domain.UserID) (*domain.Room, error)
	FindByID(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	FindAll(ctx context.Context) ([]domain.Room, error)
	// FindByParticipant lists rooms listing userID as participant; exclude is skipped when non-empty.
	FindByParticipant(ctx context.Context, userID domain.UserID, exclude domain.RoomID) ([]domain.Room, error)
	IsParticipant(ctx context.Context, id domain.RoomID, userID domain.UserID) (domain.MembershipCheck, error)
	// AddParticipant is a no-op when userID is already listed. Missing room yields domain.ErrRoomNotFound.
	AddParticipant(ctx context.Context, id domain.RoomID, userID domain.UserID) error
	// RemoveParticipant deletes the room when its participant list becomes empty.
	// A missing room or participant is not an error.
	RemoveParticipant(ctx context.Context, id domain.RoomID, userID domain.UserID) (domain.RemoveResult, error)
	// DeleteByID reports false, nil when the room is already gone.
	DeleteByID(ctx context.Context, id domain.RoomID) (bool, error)
}

type UserRepository interface {
	// FindByID returns domain.ErrNotFound when no such user exists.
	FindByID(ctx context.Context, id domain.UserID) (*domain.User, error)
}

// MessageRepository persists room chat. Messages it returns carry their author.
type MessageRepository interface {
	// Create assigns the id and timestamps of msg.
	Create(ctx context.Context, msg domain.Message) (*domain.Message, error)
	// FindRecentByRoom lists up to limit messages of roomID created before
	// before, newest first. A zero before means no bound.
	FindRecentByRoom(ctx context.Context, roomID domain.RoomID, limit int, before time.Time) ([]domain.Message, error)
}
