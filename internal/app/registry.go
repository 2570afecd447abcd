package app

import (
	"context"
	"sort"
	"sync"

	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/rs/zerolog/log"
)

// Connection is one live channel and the set of rooms it joined.
// The room set is guarded by the owning Registry.
type Connection struct {
	ID       core.ConnID
	Identity domain.Identity
	Signal   core.SignalConnection
	Cancel   context.CancelFunc

	rooms map[domain.RoomID]struct{}
}

type Registry struct {
	mu     sync.RWMutex
	conns  map[core.ConnID]*Connection
	byUser map[domain.UserID]map[core.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[core.ConnID]*Connection),
		byUser: make(map[domain.UserID]map[core.ConnID]struct{}),
	}
}

func (r *Registry) BindSignal(id core.ConnID, identity domain.Identity, signal core.SignalConnection, cancel context.CancelFunc) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := &Connection{
		ID:       id,
		Identity: identity,
		Signal:   signal,
		Cancel:   cancel,
		rooms:    make(map[domain.RoomID]struct{}),
	}
	r.conns[id] = c
	set, ok := r.byUser[identity.ID]
	if !ok {
		set = make(map[core.ConnID]struct{})
		r.byUser[identity.ID] = set
	}
	set[id] = struct{}{}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(identity.ID)).Msg("bound connection")
	return c
}

// Unbind forgets the connection. last reports whether it was the identity's final one.
func (r *Registry) Unbind(id core.ConnID) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	delete(r.conns, id)
	set := r.byUser[c.Identity.ID]
	delete(set, id)
	if len(set) == 0 {
		delete(r.byUser, c.Identity.ID)
		last = true
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Bool("last", last).Msg("unbind connection")
	return last
}

func (r *Registry) Get(id core.ConnID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) RoomsOf(id core.ConnID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(c.rooms))
	for room := range c.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) InRoom(id core.ConnID, room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	_, ok = c.rooms[room]
	return ok
}

// AddRoom marks the connection as joined; false when it already was or is gone.
func (r *Registry) AddRoom(id core.ConnID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	if _, ok := c.rooms[room]; ok {
		return false
	}
	c.rooms[room] = struct{}{}
	return true
}

// RemoveRoom reports whether the connection had joined room.
func (r *Registry) RemoveRoom(id core.ConnID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return false
	}
	if _, ok := c.rooms[room]; !ok {
		return false
	}
	delete(c.rooms, room)
	return true
}

// DropRoom detaches room from every connection, used once the room is deleted.
func (r *Registry) DropRoom(room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.conns {
		delete(c.rooms, room)
	}
}

// Siblings lists the other connections of the same identity.
func (r *Registry) Siblings(id core.ConnID) []core.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	if !ok {
		return nil
	}
	var out []core.ConnID
	for other := range r.byUser[c.Identity.ID] {
		if other != id {
			out = append(out, other)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (r *Registry) OfUser(user domain.UserID) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.byUser[user]))
	for id := range r.byUser[user] {
		out = append(out, r.conns[id])
	}
	return out
}

func (r *Registry) ConnectionsInRoom(room domain.RoomID) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Connection
	for _, c := range r.conns {
		if _, ok := c.rooms[room]; ok {
			out = append(out, c)
		}
	}
	return out
}

func (r *Registry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func (r *Registry) Cancel(id core.ConnID) bool {
	r.mu.RLock()
	c, ok := r.conns[id]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if c.Cancel != nil {
		c.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("canceled connection")
	return true
}
