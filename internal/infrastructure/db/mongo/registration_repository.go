package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/lumina-chat/lumina-api/internal/core/domain"
)

const registrationCollection = "registrations"

type MongoRegistrationRepository struct {
	coll *mongo.Collection
}

func NewRegistrationRepository(db *mongo.Database) *MongoRegistrationRepository {
	return &MongoRegistrationRepository{coll: db.Collection(registrationCollection)}
}

// Timestamps stay BSON dates: the TTL index on otp_expires_at only works on
// date fields.
type mongoRegistration struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Name         string             `bson:"name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	OTP          string             `bson:"otp"`
	OTPExpiresAt time.Time          `bson:"otp_expires_at"`
	CreatedAt    time.Time          `bson:"created_at"`
}

func (r *MongoRegistrationRepository) Create(ctx context.Context, reg *domain.PendingRegistration) (*domain.PendingRegistration, error) {
	doc := mongoRegistration{
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: reg.PasswordHash,
		OTP:          reg.OTP,
		OTPExpiresAt: reg.OTPExpiresAt,
		CreatedAt:    reg.CreatedAt,
	}

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrRegistrationPending
		}
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	created := *reg
	created.ID = res.InsertedID.(primitive.ObjectID).Hex()
	return &created, nil
}

func (r *MongoRegistrationRepository) FindByEmail(ctx context.Context, email string) (*domain.PendingRegistration, error) {
	var mr mongoRegistration
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mr); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}

	return &domain.PendingRegistration{
		ID:           mr.ID.Hex(),
		Name:         mr.Name,
		Email:        mr.Email,
		PasswordHash: mr.PasswordHash,
		OTP:          mr.OTP,
		OTPExpiresAt: mr.OTPExpiresAt.UTC(),
		CreatedAt:    mr.CreatedAt.UTC(),
	}, nil
}

func (r *MongoRegistrationRepository) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrRegistrationNotFound
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrRegistrationNotFound
	}
	return nil
}
