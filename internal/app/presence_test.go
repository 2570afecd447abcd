package app

import (
	"testing"
	"time"

	"github.com/dkeye/roomcoord/internal/domain"
)

func ident(id domain.UserID) domain.Identity {
	return domain.Identity{ID: id, Name: string(id)}
}

func users(state domain.PresenceState) []domain.UserID {
	out := make([]domain.UserID, 0, len(state.Participants))
	for _, p := range state.Participants {
		out = append(out, p.UserID)
	}
	return out
}

func TestPresenceCountsConnections(t *testing.T) {
	p := NewPresenceRegistry()
	p.Add("r", ident("u1"))
	p.Add("r", ident("u1"))
	p.Add("r", ident("u1"))

	if got := p.Snapshot("r"); len(got.Participants) != 1 {
		t.Fatalf("three connections of one identity gave %d entries", len(got.Participants))
	}
	p.Remove("r", "u1")
	p.Remove("r", "u1")
	if !p.Snapshot("r").Contains("u1") {
		t.Fatal("identity removed before its last connection")
	}
	state := p.Remove("r", "u1")
	if state.Contains("u1") || len(state.Participants) != 0 {
		t.Errorf("state after last remove = %+v", state)
	}
	if p.RoomCount() != 0 {
		t.Errorf("empty room bucket kept")
	}
}

func TestPresenceOrderedByJoinTime(t *testing.T) {
	p := NewPresenceRegistry()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	p.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	p.Add("r", ident("b"))
	p.Add("r", ident("a"))
	p.Add("r", ident("c"))
	p.Add("r", ident("b"))

	got := users(p.Snapshot("r"))
	want := []domain.UserID{"b", "a", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestPresenceDisplayFallback(t *testing.T) {
	p := NewPresenceRegistry()
	p.Add("r", domain.Identity{ID: "u1", Email: "u1@example.com"})
	p.Add("r", domain.Identity{ID: "u2"})

	s := p.Snapshot("r")
	if s.Participants[0].Name != "u1@example.com" {
		t.Errorf("name = %q, want email fallback", s.Participants[0].Name)
	}
	if s.Participants[1].Name != domain.DefaultDisplayName {
		t.Errorf("name = %q, want %q", s.Participants[1].Name, domain.DefaultDisplayName)
	}

	p.Add("r", domain.Identity{ID: "u2", Name: "Renamed", Avatar: "a.png"})
	s = p.Snapshot("r")
	if s.Participants[1].Name != "Renamed" || s.Participants[1].Avatar != "a.png" {
		t.Errorf("profile not refreshed: %+v", s.Participants[1])
	}
}

func TestPresenceRemoveIdentityEverywhere(t *testing.T) {
	p := NewPresenceRegistry()
	p.Add("b", ident("u1"))
	p.Add("a", ident("u1"))
	p.Add("a", ident("u1"))
	p.Add("a", ident("u2"))
	p.Add("c", ident("u2"))

	changed := p.RemoveIdentityEverywhere("u1")
	if len(changed) != 2 || changed[0].RoomID != "a" || changed[1].RoomID != "b" {
		t.Fatalf("changed = %+v, want rooms a and b", changed)
	}
	if got := users(changed[0]); len(got) != 1 || got[0] != "u2" {
		t.Errorf("room a = %v", got)
	}
	if p.Count("b") != 0 || p.Count("c") != 1 {
		t.Errorf("counts b=%d c=%d", p.Count("b"), p.Count("c"))
	}
	if rooms := p.RoomsOf("u1"); len(rooms) != 0 {
		t.Errorf("u1 still in %v", rooms)
	}
}

func TestPresenceNoOps(t *testing.T) {
	p := NewPresenceRegistry()
	if s := p.Remove("nowhere", "u1"); len(s.Participants) != 0 {
		t.Errorf("remove on empty room = %+v", s)
	}
	p.Add("", ident("u1"))
	p.Add("r", domain.Identity{})
	if p.RoomCount() != 0 {
		t.Errorf("invalid adds created buckets")
	}
	p.Add("r", ident("u1"))
	if s := p.Clear("r"); len(s.Participants) != 0 || p.Count("r") != 0 {
		t.Errorf("clear left %+v", s)
	}
}
