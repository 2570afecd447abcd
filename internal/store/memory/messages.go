package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/google/uuid"
)

// Messages keeps each room's chat in send order.
type Messages struct {
	mu     sync.Mutex
	byRoom map[domain.RoomID][]domain.Message
	Now    func() time.Time
}

func NewMessages() *Messages {
	return &Messages{
		byRoom: make(map[domain.RoomID][]domain.Message),
		Now:    time.Now,
	}
}

func (s *Messages) Create(_ context.Context, msg domain.Message) (*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.Now()
	msg.ID = domain.MessageID(uuid.NewString())
	msg.CreatedAt = now
	msg.UpdatedAt = now
	s.byRoom[msg.RoomID] = append(s.byRoom[msg.RoomID], msg)
	return &msg, nil
}

func (s *Messages) FindRecentByRoom(_ context.Context, roomID domain.RoomID, limit int, before time.Time) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.byRoom[roomID]
	out := make([]domain.Message, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		if !before.IsZero() && !all[i].CreatedAt.Before(before) {
			continue
		}
		out = append(out, all[i])
	}
	return out, nil
}
