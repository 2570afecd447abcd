package memory

import (
	"context"
	"sync"

	"github.com/dkeye/roomcoord/internal/domain"
)

type Users struct {
	mu    sync.RWMutex
	users map[domain.UserID]domain.User
}

func NewUsers(seed ...domain.User) *Users {
	s := &Users{users: make(map[domain.UserID]domain.User, len(seed))}
	for _, u := range seed {
		s.users[u.ID] = u
	}
	return s
}

func (s *Users) Put(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Users) FindByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.NewError(domain.KindNotFound, "user %s not found", id)
	}
	return &u, nil
}
