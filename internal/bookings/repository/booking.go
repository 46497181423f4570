package repository

import (
	"context"
	"fmt"
	"time"

	bookingserrors "barbook/internal/bookings/errors"
	"barbook/pkg/config"
	mongodb "barbook/pkg/db/mongo"
	"barbook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "bookings"

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindAll(ctx context.Context, limit, offset int) ([]*model.Booking, error)
	FindByBarber(ctx context.Context, barberID string, limit, offset int) ([]*model.Booking, error)
	FindByBarberAndDate(ctx context.Context, barberID, date string) ([]*model.Booking, error)
	FindActiveByBarberAndDate(ctx context.Context, barberID, date string) ([]*model.Booking, error)
	FindActiveBySlot(ctx context.Context, barberID, date, bookingTime string) (*model.Booking, error)
	FindByPhone(ctx context.Context, phone string, limit, offset int) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, fromStatus, toStatus string, cancelledAt *time.Time) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
	DeleteCancelledBefore(ctx context.Context, cutoff time.Time) (int64, error)
	mongodb.TransactionManager
}

type mongoBookingRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoBookingRepository(cfg *config.Config) (BookingRepository, error) {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	repo := &mongoBookingRepository{
		client:     cfg.Client.Mongo,
		collection: db.Collection(CollectionName),
	}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// ensureIndexes creates the partial unique index that is the storage-level
// backstop for slot uniqueness: at most one pending or confirmed booking may
// exist per (barber_id, booking_date, booking_time). Cancelled and completed
// bookings fall outside the partial filter, so a freed slot can be rebooked.
func (r *mongoBookingRepository) ensureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "barber_id", Value: 1},
				{Key: "booking_date", Value: 1},
				{Key: "booking_time", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{
					"status": bson.M{"$in": model.ActiveStatuses},
				}),
		},
		{
			Keys: bson.D{{Key: "client_phone", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}, {Key: "cancelled_at", Value: 1}},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, models)
	if err != nil {
		return fmt.Errorf("failed to create booking indexes: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	result, err := r.collection.InsertOne(ctx, booking)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, bookingserrors.ErrSlotOccupied
		}
		return nil, fmt.Errorf("failed to insert booking: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		booking.ID = oid.Hex()
	}
	return booking, nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, bookingserrors.ErrInvalidID
	}

	var booking model.Booking
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindAll(ctx context.Context, limit, offset int) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{}, limit, offset)
}

func (r *mongoBookingRepository) FindByBarber(ctx context.Context, barberID string, limit, offset int) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{"barber_id": barberID}, limit, offset)
}

func (r *mongoBookingRepository) FindByBarberAndDate(ctx context.Context, barberID, date string) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{"barber_id": barberID, "booking_date": date}, 0, 0)
}

func (r *mongoBookingRepository) FindActiveByBarberAndDate(ctx context.Context, barberID, date string) ([]*model.Booking, error) {
	filter := bson.M{
		"barber_id":    barberID,
		"booking_date": date,
		"status":       bson.M{"$in": model.ActiveStatuses},
	}
	return r.find(ctx, filter, 0, 0)
}

func (r *mongoBookingRepository) FindActiveBySlot(ctx context.Context, barberID, date, bookingTime string) (*model.Booking, error) {
	filter := bson.M{
		"barber_id":    barberID,
		"booking_date": date,
		"booking_time": bookingTime,
		"status":       bson.M{"$in": model.ActiveStatuses},
	}

	var booking model.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking by slot: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindByPhone(ctx context.Context, phone string, limit, offset int) ([]*model.Booking, error) {
	return r.find(ctx, bson.M{"client_phone": phone}, limit, offset)
}

func (r *mongoBookingRepository) find(ctx context.Context, filter bson.M, limit, offset int) ([]*model.Booking, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "booking_date", Value: 1}, {Key: "booking_time", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit)).SetSkip(int64(offset))
	}

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus moves a booking from one status to another as a single
// compare-and-swap: the filter pins the expected current status, so a
// concurrent transition that already changed it makes this one miss.
func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, fromStatus, toStatus string, cancelledAt *time.Time) (*model.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, bookingserrors.ErrInvalidID
	}

	set := bson.M{"status": toStatus}
	if cancelledAt != nil {
		set["cancelled_at"] = cancelledAt
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	filter := bson.M{"_id": oid, "status": fromStatus}
	var updated model.Booking
	err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, bookingserrors.ErrStaleStatus
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	return &updated, nil
}

func (r *mongoBookingRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return bookingserrors.ErrInvalidID
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	if result.DeletedCount == 0 {
		return bookingserrors.ErrNotFound
	}
	return nil
}

// DeleteCancelledBefore removes cancelled bookings whose cancellation
// timestamp is older than the cutoff. Used by the retention sweeper.
func (r *mongoBookingRepository) DeleteCancelledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	filter := bson.M{
		"status":       model.StatusCancelled,
		"cancelled_at": bson.M{"$lt": cutoff},
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cancelled bookings: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongodb.TransactionFunc) error {
	return mongodb.ExecuteTransaction(ctx, r.client, fn)
}
