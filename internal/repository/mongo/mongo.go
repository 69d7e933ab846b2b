// Package mongo implements the repositories on MongoDB.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names.
const (
	UsersCollection   = "users"
	BooksCollection   = "books"
	ReviewsCollection = "reviews"
)

// EnsureIndexes creates the indexes the repositories rely on. The unique
// indexes are what make duplicate users and duplicate reviews impossible.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := map[string][]mongo.IndexModel{
		UsersCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		BooksCollection: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "genre", Value: 1}}},
		},
		ReviewsCollection: {
			{Keys: bson.D{{Key: "book", Value: 1}, {Key: "user", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for _, name := range []string{UsersCollection, BooksCollection, ReviewsCollection} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs[name]); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// idsFilter matches documents whose _id is one of ids.
func idsFilter(ids []string) bson.M {
	return bson.M{"_id": bson.M{"$in": ids}}
}
