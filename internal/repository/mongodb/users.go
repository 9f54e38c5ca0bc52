package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stockroom/internal/domain/models"
)

// EnsureProfile returns the stored profile for p.UID, inserting p first when none exists.
// An existing profile is never overwritten, so its role survives.
func (r *MongoDBRepository) EnsureProfile(ctx context.Context, p models.UserProfile) (models.UserProfile, error) {
	update := bson.M{"$setOnInsert": bson.M{
		"email":      p.Email,
		"name":       p.Name,
		"role":       p.Role,
		"created_at": p.CreatedAt,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.UserProfile
	err := r.db.Collection(profilesCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": p.UID}, update, opts).
		Decode(&stored)
	if err != nil {
		return models.UserProfile{}, fmt.Errorf("ensure profile %s: %w", p.UID, err)
	}
	return stored, nil
}

// SetRoleByEmail changes the role on the profile with the given email.
func (r *MongoDBRepository) SetRoleByEmail(ctx context.Context, email string, role models.Role) error {
	res, err := r.db.Collection(profilesCollection).
		UpdateOne(ctx, bson.M{"email": email}, bson.M{"$set": bson.M{"role": role}})
	if err != nil {
		return fmt.Errorf("set role for %s: %w", email, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("set role for %s: %w", email, ErrNotFound)
	}
	return nil
}

// InsertCredentials stores a new sign-in identity.
func (r *MongoDBRepository) InsertCredentials(ctx context.Context, c models.Credentials) error {
	if _, err := r.db.Collection(credentialsCollection).InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert credentials for %s: %w", c.Email, ErrDuplicate)
		}
		return fmt.Errorf("insert credentials for %s: %w", c.Email, err)
	}
	return nil
}

// FindCredentialsByEmail loads the sign-in identity for email.
func (r *MongoDBRepository) FindCredentialsByEmail(ctx context.Context, email string) (models.Credentials, error) {
	var c models.Credentials
	err := r.db.Collection(credentialsCollection).FindOne(ctx, bson.M{"email": email}).Decode(&c)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("find credentials for %s: %w", email, notFound(err))
	}
	return c, nil
}
