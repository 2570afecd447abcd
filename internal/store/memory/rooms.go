// Package memory keeps rooms and users in process memory. It backs the dev
// mode and the tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/google/uuid"
)

type Rooms struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*domain.Room
	Now   func() time.Time
}

func NewRooms() *Rooms {
	return &Rooms{
		rooms: make(map[domain.RoomID]*domain.Room),
		Now:   time.Now,
	}
}

// Create stores a new room owned by owner with the owner as sole participant.
func (s *Rooms) Create(_ context.Context, name string, owner domain.UserID) (*domain.Room, error) {
	now := s.Now()
	r := &domain.Room{
		ID:           domain.RoomID(uuid.NewString()),
		Name:         name,
		OwnerID:      owner,
		Participants: []domain.UserID{owner},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Put(*r)
	return r, nil
}

// Put inserts or replaces a room as-is.
func (s *Rooms) Put(r domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = clone(&r)
}

func (s *Rooms) FindByID(_ context.Context, id domain.RoomID) (*domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return clone(r), nil
}

func (s *Rooms) FindAll(_ context.Context) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, *clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Rooms) FindByParticipant(_ context.Context, userID domain.UserID, exclude domain.RoomID) ([]domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Room
	for id, r := range s.rooms {
		if id == exclude || !r.HasParticipant(userID) {
			continue
		}
		out = append(out, *clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Rooms) IsParticipant(_ context.Context, id domain.RoomID, userID domain.UserID) (domain.MembershipCheck, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.MembershipCheck{}, nil
	}
	return domain.MembershipCheck{Exists: true, IsMember: r.IsMember(userID)}, nil
}

func (s *Rooms) AddParticipant(_ context.Context, id domain.RoomID, userID domain.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return domain.ErrRoomNotFound
	}
	if r.HasParticipant(userID) {
		return nil
	}
	r.Participants = append(r.Participants, userID)
	r.UpdatedAt = s.Now()
	return nil
}

func (s *Rooms) RemoveParticipant(_ context.Context, id domain.RoomID, userID domain.UserID) (domain.RemoveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := domain.RemoveResult{RoomID: id}
	r, ok := s.rooms[id]
	if !ok {
		return res, nil
	}

	kept := r.Participants[:0]
	for _, p := range r.Participants {
		if p != userID {
			kept = append(kept, p)
		}
	}
	if len(kept) == len(r.Participants) {
		return res, nil
	}
	r.Participants = kept
	res.Removed = true

	if len(kept) == 0 {
		delete(s.rooms, id)
		res.Deleted = true
		return res, nil
	}
	r.UpdatedAt = s.Now()
	return res, nil
}

func (s *Rooms) DeleteByID(_ context.Context, id domain.RoomID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[id]; !ok {
		return false, nil
	}
	delete(s.rooms, id)
	return true, nil
}

func clone(r *domain.Room) *domain.Room {
	c := *r
	c.Participants = append([]domain.UserID(nil), r.Participants...)
	return &c
}
