package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/roomcoord/internal/domain"
)

func TestRoomsParticipants(t *testing.T) {
	ctx := context.Background()
	s := NewRooms()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return clock }

	r, err := s.Create(ctx, "study", "owner")
	if err != nil {
		t.Fatal(err)
	}

	check, _ := s.IsParticipant(ctx, r.ID, "owner")
	if !check.Exists || !check.IsMember {
		t.Errorf("owner check = %+v", check)
	}
	check, _ = s.IsParticipant(ctx, "nope", "owner")
	if check.Exists {
		t.Errorf("missing room reported as existing")
	}

	clock = clock.Add(time.Minute)
	if err := s.AddParticipant(ctx, r.ID, "u1"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddParticipant(ctx, r.ID, "u1"); err != nil {
		t.Fatalf("idempotent add: %v", err)
	}
	got, _ := s.FindByID(ctx, r.ID)
	if len(got.Participants) != 2 || !got.UpdatedAt.Equal(clock) {
		t.Errorf("room after adds = %+v", got)
	}
	if err := s.AddParticipant(ctx, "nope", "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("add to missing room: %v", err)
	}

	res, err := s.RemoveParticipant(ctx, r.ID, "ghost")
	if err != nil || res.Removed || res.Deleted {
		t.Errorf("removing absent participant = %+v, %v", res, err)
	}
	if res, _ := s.RemoveParticipant(ctx, r.ID, "owner"); !res.Removed || res.Deleted {
		t.Errorf("remove owner = %+v", res)
	}
	if res, _ := s.RemoveParticipant(ctx, r.ID, "u1"); !res.Removed || !res.Deleted {
		t.Errorf("remove last = %+v", res)
	}
	if _, err := s.FindByID(ctx, r.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("room should be gone: %v", err)
	}
	if res, err := s.RemoveParticipant(ctx, r.ID, "u1"); err != nil || res.Removed {
		t.Errorf("remove from deleted room = %+v, %v", res, err)
	}
}

func TestRoomsFindAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewRooms()
	s.Put(domain.Room{ID: "a", Participants: []domain.UserID{"u1"}})
	s.Put(domain.Room{ID: "b", Participants: []domain.UserID{"u1", "u2"}})
	s.Put(domain.Room{ID: "c", Participants: []domain.UserID{"u2"}})

	found, _ := s.FindByParticipant(ctx, "u1", "b")
	if len(found) != 1 || found[0].ID != "a" {
		t.Errorf("FindByParticipant = %+v", found)
	}
	all, _ := s.FindAll(ctx)
	if len(all) != 3 || all[0].ID != "a" {
		t.Errorf("FindAll = %+v", all)
	}

	all[0].Participants[0] = "mutated"
	again, _ := s.FindByID(ctx, "a")
	if again.Participants[0] != "u1" {
		t.Error("returned rooms share storage")
	}

	if ok, err := s.DeleteByID(ctx, "a"); !ok || err != nil {
		t.Errorf("delete = %v, %v", ok, err)
	}
	if ok, err := s.DeleteByID(ctx, "a"); ok || err != nil {
		t.Errorf("second delete = %v, %v", ok, err)
	}
}

func TestUsers(t *testing.T) {
	s := NewUsers(domain.User{ID: "u1", Name: "Ada"})
	u, err := s.FindByID(context.Background(), "u1")
	if err != nil || u.Name != "Ada" {
		t.Errorf("FindByID = %+v, %v", u, err)
	}
	if _, err := s.FindByID(context.Background(), "u2"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing user: %v", err)
	}
}
