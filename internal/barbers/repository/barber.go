package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"barbook/pkg/config"
	"barbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "barbers"

var (
	ErrNotFound  = errors.New("barber not found")
	ErrInvalidID = errors.New("invalid barber ID format")
	ErrDuplicate = errors.New("barber username already taken")
)

// BarberRepository is the read-mostly barber directory. Bookings use it to
// verify a barber exists and to denormalize the display name.
type BarberRepository interface {
	Create(ctx context.Context, barber *model.Barber) error
	FindByID(ctx context.Context, id string) (*model.Barber, error)
	FindByUsername(ctx context.Context, username string) (*model.Barber, error)
	FindAll(ctx context.Context) ([]*model.Barber, error)
	Update(ctx context.Context, id string, update *model.BarberUpdate) (*model.Barber, error)
	Delete(ctx context.Context, id string) error
}

type mongoBarberRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBarberRepository(cfg *config.Config) (BarberRepository, error) {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	repo := &mongoBarberRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// Username is unique across the barber collection.
func (r *mongoBarberRepository) ensureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.MongoConnTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create barber username index: %w", err)
	}
	return nil
}

func (r *mongoBarberRepository) Create(ctx context.Context, barber *model.Barber) error {
	barber.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	result, err := r.collection.InsertOne(ctx, barber)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create barber: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		barber.ID = oid.Hex()
	}
	return nil
}

func (r *mongoBarberRepository) FindByID(ctx context.Context, id string) (*model.Barber, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	var barber model.Barber
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&barber)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find barber: %w", err)
	}

	return &barber, nil
}

func (r *mongoBarberRepository) FindByUsername(ctx context.Context, username string) (*model.Barber, error) {
	var barber model.Barber
	err := r.collection.FindOne(ctx, bson.M{"username": username}).Decode(&barber)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find barber by username: %w", err)
	}

	return &barber, nil
}

func (r *mongoBarberRepository) FindAll(ctx context.Context) ([]*model.Barber, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list barbers: %w", err)
	}
	defer cursor.Close(ctx)

	var barbers []*model.Barber
	if err = cursor.All(ctx, &barbers); err != nil {
		return nil, fmt.Errorf("failed to decode barbers: %w", err)
	}

	return barbers, nil
}

func (r *mongoBarberRepository) Update(ctx context.Context, id string, update *model.BarberUpdate) (*model.Barber, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	set := bson.M{}
	if update.Name != "" {
		set["name"] = update.Name
	}
	if update.Specialty != "" {
		set["specialty"] = update.Specialty
	}
	if update.Bio != "" {
		set["bio"] = update.Bio
	}
	if update.ImageURL != "" {
		set["image_url"] = update.ImageURL
	}
	if update.ExperienceYears != nil {
		set["experience_years"] = *update.ExperienceYears
	}
	if len(set) == 0 {
		return r.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var barber model.Barber
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}, opts).Decode(&barber)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update barber: %w", err)
	}

	return &barber, nil
}

// Delete removes the barber record only. Existing bookings keep their
// denormalized barber name and are left in place.
func (r *mongoBarberRepository) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidID, id)
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete barber: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}

	return nil
}
