package app

import (
	"sort"
	"sync"
	"time"

	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/rs/zerolog/log"
)

type presenceEntry struct {
	domain.Participant
	connections int
	seq         uint64
}

// PresenceRegistry is the in-memory roster of identities connected to each
// room. One identity may hold several connections to the same room; it is
// listed once and disappears only when its last connection leaves.
type PresenceRegistry struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]map[domain.UserID]*presenceEntry
	seq   uint64
	now   func() time.Time
}

func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{
		rooms: make(map[domain.RoomID]map[domain.UserID]*presenceEntry),
		now:   time.Now,
	}
}

// Add records one more connection of identity in roomID.
func (p *PresenceRegistry) Add(roomID domain.RoomID, identity domain.Identity) domain.PresenceState {
	p.mu.Lock()
	defer p.mu.Unlock()
	if roomID == "" || identity.ID == "" {
		return p.snapshotLocked(roomID)
	}

	room, ok := p.rooms[roomID]
	if !ok {
		room = make(map[domain.UserID]*presenceEntry)
		p.rooms[roomID] = room
	}

	if e, ok := room[identity.ID]; ok {
		e.connections++
		if identity.Name != "" {
			e.Name = identity.Name
		}
		if identity.Email != "" {
			e.Email = identity.Email
		}
		if identity.Avatar != "" {
			e.Avatar = identity.Avatar
		}
	} else {
		p.seq++
		room[identity.ID] = &presenceEntry{
			Participant: domain.Participant{
				UserID:   identity.ID,
				Name:     identity.DisplayName(),
				Email:    identity.Email,
				Avatar:   identity.Avatar,
				JoinedAt: p.now().UTC(),
			},
			connections: 1,
			seq:         p.seq,
		}
	}
	log.Debug().Str("module", "app.presence").Str("room", string(roomID)).Str("user", string(identity.ID)).
		Int("connections", room[identity.ID].connections).Msg("presence add")
	return p.snapshotLocked(roomID)
}

// Remove drops one connection of userID from roomID. The returned state no
// longer contains userID once its last connection is gone.
func (p *PresenceRegistry) Remove(roomID domain.RoomID, userID domain.UserID) domain.PresenceState {
	p.mu.Lock()
	defer p.mu.Unlock()

	room, ok := p.rooms[roomID]
	if !ok {
		return p.snapshotLocked(roomID)
	}
	e, ok := room[userID]
	if !ok {
		return p.snapshotLocked(roomID)
	}

	e.connections--
	if e.connections <= 0 {
		delete(room, userID)
	}
	if len(room) == 0 {
		delete(p.rooms, roomID)
	}
	return p.snapshotLocked(roomID)
}

// RemoveIdentityEverywhere drops userID from every room regardless of its
// connection count and returns the states of the rooms that changed.
func (p *PresenceRegistry) RemoveIdentityEverywhere(userID domain.UserID) []domain.PresenceState {
	p.mu.Lock()
	defer p.mu.Unlock()

	var changed []domain.PresenceState
	for roomID, room := range p.rooms {
		if _, ok := room[userID]; !ok {
			continue
		}
		delete(room, userID)
		if len(room) == 0 {
			delete(p.rooms, roomID)
		}
		changed = append(changed, p.snapshotLocked(roomID))
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].RoomID < changed[j].RoomID })
	return changed
}

// Clear forgets a room's bucket entirely.
func (p *PresenceRegistry) Clear(roomID domain.RoomID) domain.PresenceState {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rooms, roomID)
	return domain.PresenceState{RoomID: roomID, Participants: []domain.Participant{}}
}

func (p *PresenceRegistry) Snapshot(roomID domain.RoomID) domain.PresenceState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked(roomID)
}

// Count is the number of distinct identities present in roomID.
func (p *PresenceRegistry) Count(roomID domain.RoomID) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rooms[roomID])
}

// RoomCount is the number of rooms with at least one identity present.
func (p *PresenceRegistry) RoomCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rooms)
}

// RoomsOf lists the rooms userID is present in.
func (p *PresenceRegistry) RoomsOf(userID domain.UserID) []domain.RoomID {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.RoomID
	for roomID, room := range p.rooms {
		if _, ok := room[userID]; ok {
			out = append(out, roomID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (p *PresenceRegistry) snapshotLocked(roomID domain.RoomID) domain.PresenceState {
	room := p.rooms[roomID]
	entries := make([]*presenceEntry, 0, len(room))
	for _, e := range room {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].JoinedAt.Equal(entries[j].JoinedAt) {
			return entries[i].JoinedAt.Before(entries[j].JoinedAt)
		}
		return entries[i].seq < entries[j].seq
	})

	out := domain.PresenceState{RoomID: roomID, Participants: make([]domain.Participant, 0, len(entries))}
	for _, e := range entries {
		out.Participants = append(out.Participants, e.Participant)
	}
	return out
}
