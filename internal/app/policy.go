package app

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickConnection
)

// Policy decides what happens to a connection whose send buffer is full.
type Policy interface {
	OnBackPressure(conn *Connection) BackpressureAction
}

// SimplePolicy drops the connection; its disconnect path cleans presence up.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(*Connection) BackpressureAction {
	return KickConnection
}
