package domain

import "time"

// Participant is the public view of a presence entry; the connection
// count is kept internal to the registry.
type Participant struct {
	UserID   UserID    `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email,omitempty"`
	Avatar   string    `json:"avatar,omitempty"`
	JoinedAt time.Time `json:"joinedAt"`
}

type PresenceState struct {
	RoomID       RoomID        `json:"roomId"`
	Participants []Participant `json:"participants"`
}

func (s PresenceState) Contains(id UserID) bool {
	for _, p := range s.Participants {
		if p.UserID == id {
			return true
		}
	}
	return false
}

// ScreenState is the broadcast shape of a room's screen-share session.
type ScreenState struct {
	RoomID      RoomID   `json:"roomId"`
	IsActive    bool     `json:"isActive"`
	OwnerUserID *UserID  `json:"ownerUserId"`
	Viewers     []UserID `json:"viewers"`
}

func IdleScreen(roomID RoomID) ScreenState {
	return ScreenState{RoomID: roomID, Viewers: []UserID{}}
}

func (s ScreenState) Presenter() (UserID, bool) {
	if !s.IsActive || s.OwnerUserID == nil {
		return "", false
	}
	return *s.OwnerUserID, true
}
