package identity

import (
	"context"
	"errors"
	"fmt"

	"barbook/pkg/config"
	"barbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const (
	UsersCollection  = "users"
	AdminsCollection = "admins"
	BarberCollection = "barbers"
)

var (
	ErrNotFound = errors.New("account not found")
)

// UserRepository backs the client identity resolver.
type UserRepository interface {
	FindByPhone(ctx context.Context, phone string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	Insert(ctx context.Context, user *model.User) error
}

// AccountDirectory is the unified lookup across the three account
// collections. One method replaces the original's three sequential
// collection probes.
type AccountDirectory interface {
	LookupByUsername(ctx context.Context, username string) (*model.Account, error)
}

type mongoIdentityRepository struct {
	users   *mongo.Collection
	admins  *mongo.Collection
	barbers *mongo.Collection
}

func NewMongoIdentityRepository(cfg *config.Config) *mongoIdentityRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoIdentityRepository{
		users:   db.Collection(UsersCollection),
		admins:  db.Collection(AdminsCollection),
		barbers: db.Collection(BarberCollection),
	}
}

func (r *mongoIdentityRepository) FindByPhone(ctx context.Context, phone string) (*model.User, error) {
	var user model.User
	err := r.users.FindOne(ctx, bson.M{"phone": phone}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by phone: %w", err)
	}
	return &user, nil
}

func (r *mongoIdentityRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user by username: %w", err)
	}
	return &user, nil
}

func (r *mongoIdentityRepository) Insert(ctx context.Context, user *model.User) error {
	result, err := r.users.InsertOne(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		user.ID = oid.Hex()
	}
	return nil
}

// LookupByUsername probes the admin, barber and client collections in
// order and reports where the account lives.
func (r *mongoIdentityRepository) LookupByUsername(ctx context.Context, username string) (*model.Account, error) {
	probes := []struct {
		kind       model.AccountKind
		collection *mongo.Collection
	}{
		{model.AccountAdmin, r.admins},
		{model.AccountBarber, r.barbers},
		{model.AccountClient, r.users},
	}

	for _, probe := range probes {
		var doc struct {
			ID       primitive.ObjectID `bson:"_id"`
			Username string             `bson:"username"`
			Name     string             `bson:"name"`
		}
		err := probe.collection.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				continue
			}
			return nil, fmt.Errorf("account lookup failed: %w", err)
		}
		return &model.Account{
			Kind:     probe.kind,
			ID:       doc.ID.Hex(),
			Username: doc.Username,
			Name:     doc.Name,
		}, nil
	}

	return nil, ErrNotFound
}
