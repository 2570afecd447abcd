package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/roomcoord/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type roomDoc struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty"`
	Name         string               `bson:"name"`
	IsPrivate    bool                 `bson:"isPrivate"`
	OwnerID      primitive.ObjectID   `bson:"ownerId"`
	Participants []primitive.ObjectID `bson:"participants"`
	CreatedAt    time.Time            `bson:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt"`
}

func (d *roomDoc) toDomain() domain.Room {
	r := domain.Room{
		ID:           domain.RoomID(d.ID.Hex()),
		Name:         d.Name,
		IsPrivate:    d.IsPrivate,
		OwnerID:      domain.UserID(d.OwnerID.Hex()),
		Participants: make([]domain.UserID, 0, len(d.Participants)),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	for _, p := range d.Participants {
		r.Participants = append(r.Participants, domain.UserID(p.Hex()))
	}
	return r
}

type Rooms struct {
	coll *mongo.Collection
	now  func() time.Time
}

func (s *Rooms) Create(ctx context.Context, name string, owner domain.UserID) (*domain.Room, error) {
	uid, ok := objectID(owner)
	if !ok {
		return nil, domain.NewError(domain.KindInvalidPayload, "invalid user id %q", owner)
	}
	now := s.now()
	doc := roomDoc{
		ID:           primitive.NewObjectID(),
		Name:         name,
		OwnerID:      uid,
		Participants: []primitive.ObjectID{uid},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	r := doc.toDomain()
	return &r, nil
}

func (s *Rooms) FindByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	var doc roomDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find room: %w", err)
	}
	r := doc.toDomain()
	return &r, nil
}

func (s *Rooms) FindAll(ctx context.Context) ([]domain.Room, error) {
	return s.find(ctx, bson.M{})
}

func (s *Rooms) FindByParticipant(ctx context.Context, userID domain.UserID, exclude domain.RoomID) ([]domain.Room, error) {
	uid, ok := objectID(userID)
	if !ok {
		return nil, nil
	}
	filter := bson.M{"participants": uid}
	if exclude != "" {
		if ex, ok := objectID(exclude); ok {
			filter["_id"] = bson.M{"$ne": ex}
		}
	}
	return s.find(ctx, filter)
}

func (s *Rooms) IsParticipant(ctx context.Context, id domain.RoomID, userID domain.UserID) (domain.MembershipCheck, error) {
	oid, ok := objectID(id)
	if !ok {
		return domain.MembershipCheck{}, nil
	}
	var doc roomDoc
	opts := options.FindOne().SetProjection(bson.M{"ownerId": 1, "participants": 1})
	err := s.coll.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.MembershipCheck{}, nil
	}
	if err != nil {
		return domain.MembershipCheck{}, fmt.Errorf("find room: %w", err)
	}
	r := doc.toDomain()
	return domain.MembershipCheck{Exists: true, IsMember: r.IsMember(userID)}, nil
}

func (s *Rooms) AddParticipant(ctx context.Context, id domain.RoomID, userID domain.UserID) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.ErrRoomNotFound
	}
	uid, ok := objectID(userID)
	if !ok {
		return domain.NewError(domain.KindInvalidPayload, "invalid user id %q", userID)
	}
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": oid},
		bson.M{
			"$addToSet": bson.M{"participants": uid},
			"$set":      bson.M{"updatedAt": s.now()},
		})
	if err != nil {
		return fmt.Errorf("add participant: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (s *Rooms) RemoveParticipant(ctx context.Context, id domain.RoomID, userID domain.UserID) (domain.RemoveResult, error) {
	res := domain.RemoveResult{RoomID: id}
	oid, ok := objectID(id)
	if !ok {
		return res, nil
	}
	uid, ok := objectID(userID)
	if !ok {
		return res, nil
	}

	var doc roomDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "participants": uid},
		bson.M{
			"$pull": bson.M{"participants": uid},
			"$set":  bson.M{"updatedAt": s.now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return res, nil
	}
	if err != nil {
		return res, fmt.Errorf("remove participant: %w", err)
	}
	res.Removed = true

	if len(doc.Participants) > 0 {
		return res, nil
	}
	// Guarded on the list still being empty: a concurrent join wins.
	del, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid, "participants": bson.M{"$size": 0}})
	if err != nil {
		return res, fmt.Errorf("delete empty room: %w", err)
	}
	res.Deleted = del.DeletedCount == 1
	return res, nil
}

func (s *Rooms) DeleteByID(ctx context.Context, id domain.RoomID) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete room: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (s *Rooms) find(ctx context.Context, filter bson.M) ([]domain.Room, error) {
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}
	var docs []roomDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	out := make([]domain.Room, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}
