package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindAuthenticationRequired ErrorKind = "AuthenticationRequired"
	KindNotFound               ErrorKind = "NotFound"
	KindForbidden              ErrorKind = "Forbidden"
	KindConflict               ErrorKind = "Conflict"
	KindInvalidPayload         ErrorKind = "InvalidPayload"
	KindRateLimited            ErrorKind = "RateLimited"
	KindInternal               ErrorKind = "Internal"
)

// Error is a caller-visible failure. Two errors match with errors.Is when
// their kinds match, so the Err* values below work as sentinels.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrAuthenticationRequired = &Error{Kind: KindAuthenticationRequired, Message: "authentication required"}
	ErrNotFound               = &Error{Kind: KindNotFound, Message: "not found"}
	ErrForbidden              = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrConflict               = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInvalidPayload         = &Error{Kind: KindInvalidPayload, Message: "invalid payload"}
)

func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrRoomNotFound   = NewError(KindNotFound, "Room not found")
	ErrNotRoomMember  = NewError(KindForbidden, "You are not a member of this room")
	ErrRoomIDRequired = NewError(KindInvalidPayload, "Room id is required")
)
