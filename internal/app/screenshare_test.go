package app

import (
	"context"
	"errors"
	"testing"

	"github.com/dkeye/roomcoord/internal/domain"
	"github.com/dkeye/roomcoord/internal/store/memory"
)

func newArbitrator(rooms ...domain.RoomID) *ScreenArbitrator {
	store := memory.NewRooms()
	for _, id := range rooms {
		store.Put(domain.Room{ID: id, OwnerID: "owner", Participants: []domain.UserID{"owner"}})
	}
	return NewScreenArbitrator(store)
}

func TestArbitratorSingleWriter(t *testing.T) {
	a := newArbitrator("r")
	ctx := context.Background()

	if _, err := a.SetAvailability(ctx, "r", "u1", true); err != nil {
		t.Fatal(err)
	}
	if _, err := a.SetAvailability(ctx, "r", "u1", true); err != nil {
		t.Errorf("re-assert: %v", err)
	}
	_, err := a.SetAvailability(ctx, "r", "u2", true)
	if !errors.Is(err, ErrShareInProgress) || domain.KindOf(err) != domain.KindConflict {
		t.Errorf("second presenter: got %v", err)
	}
	if _, err := a.SetAvailability(ctx, "r", "u2", false); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("foreign clear: got %v", err)
	}
	if !a.IsPresenting("r", "u1") {
		t.Error("u1 lost the role")
	}
	if _, err := a.SetAvailability(ctx, "missing", "u1", true); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing room: got %v", err)
	}
}

func TestArbitratorViewers(t *testing.T) {
	a := newArbitrator("r")
	ctx := context.Background()

	if s := a.AddViewer("r", "v1"); s.IsActive || len(s.Viewers) != 0 {
		t.Errorf("viewer added while idle: %+v", s)
	}
	if _, err := a.SetAvailability(ctx, "r", "p", true); err != nil {
		t.Fatal(err)
	}
	a.AddViewer("r", "v1")
	a.AddViewer("r", "v1")
	a.AddViewer("r", "p")
	s := a.AddViewer("r", "v2")
	if len(s.Viewers) != 2 || s.Viewers[0] != "v1" || s.Viewers[1] != "v2" {
		t.Errorf("viewers = %v", s.Viewers)
	}

	s = a.RemoveViewer("r", "v1")
	if len(s.Viewers) != 1 || s.Viewers[0] != "v2" {
		t.Errorf("viewers after remove = %v", s.Viewers)
	}

	if _, err := a.Clear("r", "v2"); !errors.Is(err, ErrNotPresenterEnd) {
		t.Errorf("viewer clear: got %v", err)
	}
	s, err := a.Clear("r", "p")
	if err != nil || s.IsActive || s.OwnerUserID != nil || len(s.Viewers) != 0 {
		t.Errorf("clear = %+v, %v", s, err)
	}
}

func TestArbitratorRequestView(t *testing.T) {
	a := newArbitrator("r")
	if _, err := a.RequestView("r", "v"); !errors.Is(err, ErrNoActiveShare) {
		t.Errorf("idle: got %v", err)
	}
	if _, err := a.SetAvailability(context.Background(), "r", "p", true); err != nil {
		t.Fatal(err)
	}
	if _, err := a.RequestView("r", "p"); !errors.Is(err, ErrPresenterRequests) {
		t.Errorf("self: got %v", err)
	}
	if got, err := a.RequestView("r", "v"); err != nil || got != "p" {
		t.Errorf("RequestView = %q, %v", got, err)
	}
}

func TestArbitratorClearForIdentity(t *testing.T) {
	a := newArbitrator("r1", "r2", "r3")
	ctx := context.Background()
	for room, presenter := range map[domain.RoomID]domain.UserID{"r1": "u", "r2": "p", "r3": "q"} {
		if _, err := a.SetAvailability(ctx, room, presenter, true); err != nil {
			t.Fatal(err)
		}
	}
	a.AddViewer("r2", "u")

	changed := a.ClearForIdentity("u")
	if len(changed) != 2 || changed[0].RoomID != "r1" || changed[1].RoomID != "r2" {
		t.Fatalf("changed = %+v", changed)
	}
	if changed[0].IsActive {
		t.Error("r1 still presenting")
	}
	if !changed[1].IsActive || len(changed[1].Viewers) != 0 {
		t.Errorf("r2 = %+v, want active without viewers", changed[1])
	}
	if a.ActiveCount() != 2 {
		t.Errorf("active = %d, want 2", a.ActiveCount())
	}
}

func TestArbitratorRelease(t *testing.T) {
	a := newArbitrator("r")
	if _, changed := a.Release("r", "u"); changed {
		t.Error("release on idle room reported a change")
	}
	if _, err := a.SetAvailability(context.Background(), "r", "p", true); err != nil {
		t.Fatal(err)
	}
	a.AddViewer("r", "v")
	if s, changed := a.Release("r", "v"); !changed || !s.IsActive {
		t.Errorf("viewer release = %+v, %v", s, changed)
	}
	if s, changed := a.Release("r", "p"); !changed || s.IsActive {
		t.Errorf("presenter release = %+v, %v", s, changed)
	}
	a.ForceClear("r")
	if a.State("r").IsActive {
		t.Error("force clear left session")
	}
}
