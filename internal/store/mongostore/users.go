package mongostore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkeye/roomcoord/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type userDoc struct {
	ID     primitive.ObjectID `bson:"_id"`
	Name   string             `bson:"name"`
	Email  string             `bson:"email"`
	Avatar string             `bson:"avatar"`
	Role   string             `bson:"role"`
	Status string             `bson:"status"`
}

type Users struct {
	coll *mongo.Collection
}

var errUserNotFound = domain.NewError(domain.KindNotFound, "user not found")

// FindByID treats blocked accounts as missing.
func (s *Users) FindByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, errUserNotFound
	}
	var doc userDoc
	opts := options.FindOne().SetProjection(bson.M{"name": 1, "email": 1, "avatar": 1, "role": 1, "status": 1})
	err := s.coll.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if doc.Status == "blocked" {
		return nil, errUserNotFound
	}
	return &domain.User{
		ID:     domain.UserID(doc.ID.Hex()),
		Name:   doc.Name,
		Email:  doc.Email,
		Avatar: doc.Avatar,
		Role:   doc.Role,
	}, nil
}
