// Package mongostore implements the room, user and message repositories on MongoDB,
// the document store shared with the HTTP side of the platform.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	roomsCollection    = "rooms"
	usersCollection    = "users"
	messagesCollection = "messages"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

func Connect(ctx context.Context, uri, database string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Info().Str("module", "store.mongo").Str("database", database).Msg("connected")
	return &Store{client: client, db: client.Database(database)}, nil
}

func (s *Store) Rooms() *Rooms {
	return &Rooms{coll: s.db.Collection(roomsCollection), now: time.Now}
}

func (s *Store) Users() *Users {
	return &Users{coll: s.db.Collection(usersCollection)}
}

func (s *Store) Messages() *Messages {
	return &Messages{coll: s.db.Collection(messagesCollection), now: time.Now}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// objectID parses a hex id; ids that are not ObjectIDs match nothing.
func objectID[T ~string](id T) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(string(id))
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}
