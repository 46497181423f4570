package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "barbook/internal/bookings/errors"
	"barbook/pkg/config"
	"barbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const LockCollectionName = "booking_locks"

// SlotLockRepository hands out advisory per-slot locks. The lock _id is the
// slot coordinate triple, so concurrent creators collide on the unique _id
// instead of racing the availability check.
type SlotLockRepository interface {
	Acquire(ctx context.Context, lockID string, ttl time.Duration) error
	Release(ctx context.Context, lockID string) error
}

type mongoSlotLockRepository struct {
	collection *mongo.Collection
}

func NewMongoSlotLockRepository(cfg *config.Config) (SlotLockRepository, error) {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	repo := &mongoSlotLockRepository{
		collection: db.Collection(LockCollectionName),
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// A TTL index reaps locks abandoned by crashed requests.
func (r *mongoSlotLockRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return fmt.Errorf("failed to create lock TTL index: %w", err)
	}
	return nil
}

func (r *mongoSlotLockRepository) Acquire(ctx context.Context, lockID string, ttl time.Duration) error {
	lock := &model.SlotLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to acquire slot lock: %w", err)
	}
	return nil
}

func (r *mongoSlotLockRepository) Release(ctx context.Context, lockID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID})
	return err
}
