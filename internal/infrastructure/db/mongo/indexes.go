package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// registrationRetention is how long an expired OTP record lingers before the
// store purges it. The OTP itself is invalid after otp_expires_at; the grace
// period only keeps the document around for the "otp expired" error path.
const registrationRetention = int32(3600) // seconds past otp_expires_at

// EnsureIndexes creates the indexes the workflows rely on:
//   - users.email unique: one confirmed account per email, and the
//     duplicate-key signal that makes verification replay idempotent.
//   - registrations.email unique: at most one pending signup per email.
//   - registrations.otp_expires_at TTL: passive garbage collection of stale
//     pending records, no application-level scan.
//
// Any substitute store must provide equivalent guarantees.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(userCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}

	_, err = db.Collection(registrationCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "otp_expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(registrationRetention),
		},
	})
	if err != nil {
		return fmt.Errorf("registrations indexes: %w", err)
	}

	return nil
}
