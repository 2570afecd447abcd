package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/dkeye/roomcoord/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type messageDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	RoomID    primitive.ObjectID `bson:"roomId"`
	UserID    primitive.ObjectID `bson:"userId"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// messageRow is a message joined with its author by FindRecentByRoom.
type messageRow struct {
	messageDoc `bson:",inline"`
	Author     []userDoc `bson:"author"`
}

func (d *messageDoc) toDomain() domain.Message {
	return domain.Message{
		ID:        domain.MessageID(d.ID.Hex()),
		RoomID:    domain.RoomID(d.RoomID.Hex()),
		UserID:    domain.UserID(d.UserID.Hex()),
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (r *messageRow) toDomain() domain.Message {
	m := r.messageDoc.toDomain()
	if len(r.Author) > 0 {
		a := r.Author[0]
		m.User = &domain.MessageAuthor{ID: domain.UserID(a.ID.Hex()), Name: a.Name, Avatar: a.Avatar}
	}
	return m
}

type Messages struct {
	coll *mongo.Collection
	now  func() time.Time
}

// Create stores msg and returns it with msg.User kept as given.
func (s *Messages) Create(ctx context.Context, msg domain.Message) (*domain.Message, error) {
	rid, ok := objectID(msg.RoomID)
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	uid, ok := objectID(msg.UserID)
	if !ok {
		return nil, domain.NewError(domain.KindInvalidPayload, "invalid user id %q", msg.UserID)
	}
	now := s.now()
	doc := messageDoc{
		ID:        primitive.NewObjectID(),
		RoomID:    rid,
		UserID:    uid,
		Content:   msg.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	out := doc.toDomain()
	out.User = msg.User
	return &out, nil
}

func (s *Messages) FindRecentByRoom(ctx context.Context, roomID domain.RoomID, limit int, before time.Time) ([]domain.Message, error) {
	rid, ok := objectID(roomID)
	if !ok {
		return nil, nil
	}
	match := bson.M{"roomId": rid}
	if !before.IsZero() {
		match["createdAt"] = bson.M{"$lt": before}
	}
	cur, err := s.coll.Aggregate(ctx, recentPipeline(match, limit))
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	var rows []messageRow
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	out := make([]domain.Message, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toDomain())
	}
	return out, nil
}

func recentPipeline(match bson.M, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}}}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "userId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author"},
		}}},
	}
}
