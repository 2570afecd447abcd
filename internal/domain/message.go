package domain

import (
	"strings"
	"time"
)

const (
	MaxMessageLength    = 2000
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

var ErrMessageContent = NewError(KindInvalidPayload, "Message must be between 1 and %d characters", MaxMessageLength)

type MessageID string

// Message is one chat line posted to a room.
type Message struct {
	ID        MessageID      `json:"id"`
	RoomID    RoomID         `json:"roomId"`
	UserID    UserID         `json:"userId"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	User      *MessageAuthor `json:"user,omitempty"`
}

// MessageAuthor is the sender profile shown next to a message.
type MessageAuthor struct {
	ID     UserID `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// NormalizeContent trims content and checks its length in characters.
func NormalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if n := len([]rune(content)); n == 0 || n > MaxMessageLength {
		return "", ErrMessageContent
	}
	return content, nil
}

// ClampHistoryLimit maps a requested page size into [1, MaxHistoryLimit],
// with zero meaning the default.
func ClampHistoryLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultHistoryLimit
	case limit < 1:
		return 1
	case limit > MaxHistoryLimit:
		return MaxHistoryLimit
	}
	return limit
}
