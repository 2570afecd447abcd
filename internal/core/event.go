package core

import (
	"encoding/json"

	"github.com/dkeye/roomcoord/internal/domain"
)

// Outbound topics.
const (
	TopicPresenceUpdate = "room:presence:update"
	TopicRoomClosed     = "room:closed"
	TopicForceLeave     = "room:force-leave"
	TopicScreenState    = "screen:state"
	TopicScreenRequest  = "screen:request"
	TopicScreenOffer    = "screen:offer"
	TopicScreenAnswer   = "screen:answer"
	TopicScreenICE      = "screen:ice-candidate"
	TopicMessageNew     = "message:new"
)

const ReasonExclusiveMembership = "exclusive-membership"

// Scope selects the connections an Event is delivered to.
type Scope int

const (
	// ScopeAll reaches every live connection.
	ScopeAll Scope = iota
	// ScopeRoom reaches connections that joined Event.Room.
	ScopeRoom
	// ScopeUser reaches every connection of Event.User.
	ScopeUser
	// ScopeConn reaches Event.Conn only.
	ScopeConn
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeRoom:
		return "room"
	case ScopeUser:
		return "user"
	case ScopeConn:
		return "conn"
	}
	return "unknown"
}

// Event is one side effect produced by an orchestrator operation.
type Event struct {
	Scope   Scope
	Room    domain.RoomID
	User    domain.UserID
	Conn    ConnID
	Topic   string
	Payload any
}

// Effects is the ordered list of events an operation wants emitted.
type Effects []Event

func (e *Effects) Add(ev Event) { *e = append(*e, ev) }

func (e *Effects) Presence(state domain.PresenceState) {
	e.Add(Event{Scope: ScopeAll, Room: state.RoomID, Topic: TopicPresenceUpdate, Payload: state})
}

func (e *Effects) Closed(id domain.RoomID) {
	e.Add(Event{Scope: ScopeAll, Room: id, Topic: TopicRoomClosed, Payload: RoomClosed{RoomID: id}})
}

func (e *Effects) Screen(state domain.ScreenState) {
	e.Add(Event{Scope: ScopeRoom, Room: state.RoomID, Topic: TopicScreenState, Payload: state})
}

func (e *Effects) Message(msg domain.Message) {
	e.Add(Event{Scope: ScopeRoom, Room: msg.RoomID, Topic: TopicMessageNew, Payload: msg})
}

// Filter returns the events with the given topic, in order.
func (e Effects) Filter(topic string) Effects {
	var out Effects
	for _, ev := range e {
		if ev.Topic == topic {
			out = append(out, ev)
		}
	}
	return out
}

// Emitter delivers effects to connections.
type Emitter interface {
	Emit(Effects)
}

type RoomClosed struct {
	RoomID domain.RoomID `json:"roomId"`
}

type ForceLeave struct {
	RoomID domain.RoomID `json:"roomId"`
	Reason string        `json:"reason"`
}

type ScreenRequest struct {
	RoomID       domain.RoomID `json:"roomId"`
	FromUserID   domain.UserID `json:"fromUserId"`
	TargetUserID domain.UserID `json:"targetUserId"`
}

// Negotiation is a relayed offer/answer/candidate. Description and Candidate
// are forwarded verbatim.
type Negotiation struct {
	RoomID       domain.RoomID   `json:"roomId"`
	FromUserID   domain.UserID   `json:"fromUserId"`
	TargetUserID domain.UserID   `json:"targetUserId"`
	Description  json.RawMessage `json:"description,omitempty"`
	Candidate    json.RawMessage `json:"candidate,omitempty"`
}
