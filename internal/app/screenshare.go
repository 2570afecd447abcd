package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoActiveShare     = domain.NewError(domain.KindConflict, "No active screen share")
	ErrShareInProgress   = domain.NewError(domain.KindConflict, "Screen share already in progress")
	ErrNotPresenter      = domain.NewError(domain.KindForbidden, "Only the active presenter can disable sharing")
	ErrNotPresenterEnd   = domain.NewError(domain.KindForbidden, "Only the active presenter can end sharing")
	ErrPresenterRequests = domain.NewError(domain.KindInvalidPayload, "Presenter already owns the screen share")
)

type roomFinder interface {
	FindByID(ctx context.Context, id domain.RoomID) (*domain.Room, error)
}

type shareSession struct {
	presenter domain.UserID
	viewers   []domain.UserID
}

func (s *shareSession) hasViewer(id domain.UserID) bool {
	for _, v := range s.viewers {
		if v == id {
			return true
		}
	}
	return false
}

func (s *shareSession) dropViewer(id domain.UserID) bool {
	for i, v := range s.viewers {
		if v == id {
			s.viewers = append(s.viewers[:i], s.viewers[i+1:]...)
			return true
		}
	}
	return false
}

// ScreenArbitrator holds at most one presenter per room plus its viewers.
// Rooms without an entry are Idle.
type ScreenArbitrator struct {
	rooms roomFinder

	mu       sync.Mutex
	sessions map[domain.RoomID]*shareSession
}

func NewScreenArbitrator(rooms roomFinder) *ScreenArbitrator {
	return &ScreenArbitrator{
		rooms:    rooms,
		sessions: make(map[domain.RoomID]*shareSession),
	}
}

// SetAvailability starts or stops presenting for userID in roomID.
func (a *ScreenArbitrator) SetAvailability(ctx context.Context, roomID domain.RoomID, userID domain.UserID, available bool) (domain.ScreenState, error) {
	if _, err := a.rooms.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.IdleScreen(roomID), domain.ErrRoomNotFound
		}
		return domain.IdleScreen(roomID), fmt.Errorf("find room: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.sessions[roomID]

	if !available {
		if cur != nil && cur.presenter != userID {
			return a.stateLocked(roomID), ErrNotPresenter
		}
		delete(a.sessions, roomID)
		log.Info().Str("module", "app.screen").Str("room", string(roomID)).Str("user", string(userID)).Msg("presenter stopped")
		return a.stateLocked(roomID), nil
	}

	if cur != nil {
		if cur.presenter != userID {
			return a.stateLocked(roomID), ErrShareInProgress
		}
		return a.stateLocked(roomID), nil
	}
	a.sessions[roomID] = &shareSession{presenter: userID}
	log.Info().Str("module", "app.screen").Str("room", string(roomID)).Str("user", string(userID)).Msg("presenter started")
	return a.stateLocked(roomID), nil
}

// RequestView returns the presenter a view request from viewerID should be routed to.
func (a *ScreenArbitrator) RequestView(roomID domain.RoomID, viewerID domain.UserID) (domain.UserID, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.sessions[roomID]
	if cur == nil {
		return "", ErrNoActiveShare
	}
	if cur.presenter == viewerID {
		return "", ErrPresenterRequests
	}
	return cur.presenter, nil
}

// AddViewer is a no-op while Idle or for the presenter itself.
func (a *ScreenArbitrator) AddViewer(roomID domain.RoomID, userID domain.UserID) domain.ScreenState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cur := a.sessions[roomID]; cur != nil && cur.presenter != userID && !cur.hasViewer(userID) {
		cur.viewers = append(cur.viewers, userID)
	}
	return a.stateLocked(roomID)
}

func (a *ScreenArbitrator) RemoveViewer(roomID domain.RoomID, userID domain.UserID) domain.ScreenState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cur := a.sessions[roomID]; cur != nil {
		cur.dropViewer(userID)
	}
	return a.stateLocked(roomID)
}

// Clear ends the session; only the presenter may do so.
func (a *ScreenArbitrator) Clear(roomID domain.RoomID, userID domain.UserID) (domain.ScreenState, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.sessions[roomID]
	if cur == nil {
		return a.stateLocked(roomID), nil
	}
	if cur.presenter != userID {
		return a.stateLocked(roomID), ErrNotPresenterEnd
	}
	delete(a.sessions, roomID)
	return a.stateLocked(roomID), nil
}

// ForceClear ends the session without an ownership check.
func (a *ScreenArbitrator) ForceClear(roomID domain.RoomID) domain.ScreenState {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.sessions, roomID)
	return a.stateLocked(roomID)
}

// Release drops userID's role in roomID: a presenter ends the session, a
// viewer leaves the viewer set. changed is false when userID had no role.
func (a *ScreenArbitrator) Release(roomID domain.RoomID, userID domain.UserID) (state domain.ScreenState, changed bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.sessions[roomID]
	switch {
	case cur == nil:
	case cur.presenter == userID:
		delete(a.sessions, roomID)
		changed = true
	default:
		changed = cur.dropViewer(userID)
	}
	return a.stateLocked(roomID), changed
}

// ClearForIdentity releases userID everywhere and returns the affected room states.
func (a *ScreenArbitrator) ClearForIdentity(userID domain.UserID) []domain.ScreenState {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []domain.ScreenState
	for roomID, cur := range a.sessions {
		switch {
		case cur.presenter == userID:
			delete(a.sessions, roomID)
		case cur.dropViewer(userID):
		default:
			continue
		}
		out = append(out, a.stateLocked(roomID))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}

func (a *ScreenArbitrator) IsPresenting(roomID domain.RoomID, userID domain.UserID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	cur := a.sessions[roomID]
	return cur != nil && cur.presenter == userID
}

func (a *ScreenArbitrator) State(roomID domain.RoomID) domain.ScreenState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stateLocked(roomID)
}

// ActiveCount is the number of rooms currently presenting.
func (a *ScreenArbitrator) ActiveCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

func (a *ScreenArbitrator) stateLocked(roomID domain.RoomID) domain.ScreenState {
	cur := a.sessions[roomID]
	if cur == nil {
		return domain.IdleScreen(roomID)
	}
	owner := cur.presenter
	viewers := make([]domain.UserID, len(cur.viewers))
	copy(viewers, cur.viewers)
	return domain.ScreenState{
		RoomID:      roomID,
		IsActive:    true,
		OwnerUserID: &owner,
		Viewers:     viewers,
	}
}
