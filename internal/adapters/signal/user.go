package signal

import (
	"github.com/dkeye/roomcoord/internal/app/orch"
	"github.com/dkeye/roomcoord/internal/core"
	"github.com/dkeye/roomcoord/internal/domain"
)

type whoAmI struct {
	ConnID core.ConnID     `json:"connId"`
	User   domain.Identity `json:"user"`
	Rooms  []domain.RoomID `json:"rooms"`
}

// handleWhoAmI echoes the verified identity and the rooms joined on this connection.
func (ctl *SignalWSController) handleWhoAmI(id core.ConnID) (orch.Result, error) {
	conn, ok := ctl.Orch.Registry.Get(id)
	if !ok {
		return orch.Result{}, orch.ErrUnknownConnection
	}
	rooms := ctl.Orch.Registry.RoomsOf(id)
	if rooms == nil {
		rooms = []domain.RoomID{}
	}
	return orch.Result{State: whoAmI{ConnID: id, User: conn.Identity, Rooms: rooms}}, nil
}
