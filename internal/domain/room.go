package domain

import "time"

type RoomID string

// Room is the persisted room entity as seen by this layer.
type Room struct {
	ID           RoomID    `json:"id"`
	Name         string    `json:"name"`
	IsPrivate    bool      `json:"isPrivate"`
	OwnerID      UserID    `json:"ownerId"`
	Participants []UserID  `json:"participants"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (r *Room) HasParticipant(id UserID) bool {
	for _, p := range r.Participants {
		if p == id {
			return true
		}
	}
	return false
}

// IsMember treats the owner as a member even when not listed.
func (r *Room) IsMember(id UserID) bool {
	return r.OwnerID == id || r.HasParticipant(id)
}

// MembershipCheck is the answer of RoomRepository.IsParticipant.
type MembershipCheck struct {
	Exists   bool
	IsMember bool
}

// RemoveResult reports what RemoveParticipant did.
type RemoveResult struct {
	RoomID  RoomID
	Removed bool
	Deleted bool
}
