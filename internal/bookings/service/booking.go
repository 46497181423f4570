package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	barbersrepo "barbook/internal/barbers/repository"
	bookingserrors "barbook/internal/bookings/errors"
	"barbook/internal/bookings/repository"
	"barbook/internal/bookings/validator"
	"barbook/internal/events"
	"barbook/internal/identity"
	apperrors "barbook/pkg/errors"
	"barbook/pkg/logger"
	"barbook/pkg/model"
	"barbook/pkg/sanitizer"
	"barbook/pkg/timeslot"

	"go.mongodb.org/mongo-driver/mongo"
)

const slotLockTTL = 10 * time.Second

// BarberDirectory is the slice of the barber repository the booking service
// needs: existence checks and display names.
type BarberDirectory interface {
	FindByID(ctx context.Context, id string) (*model.Barber, error)
}

// allowedTransitions is the full lifecycle state machine. Cancelled and
// completed are terminal.
var allowedTransitions = map[string][]string{
	model.StatusPending:   {model.StatusConfirmed, model.StatusCancelled},
	model.StatusConfirmed: {model.StatusCompleted, model.StatusCancelled},
}

type CreateRequest struct {
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	BarberID    string `json:"barber_id"`
	ServiceType string `json:"service_type"`
	BookingDate string `json:"booking_date"`
	BookingTime string `json:"booking_time"`
	Notes       string `json:"notes"`
}

type BookingService interface {
	Create(ctx context.Context, req *CreateRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit, offset int) ([]*model.Booking, error)
	GetByBarber(ctx context.Context, barberID string, limit, offset int) ([]*model.Booking, error)
	GetByBarberAndDate(ctx context.Context, barberID, date string) ([]*model.Booking, error)
	GetByPhone(ctx context.Context, phone string, limit, offset int) ([]*model.Booking, error)
	Transition(ctx context.Context, id, toStatus string) (*model.Booking, error)
	Delete(ctx context.Context, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.SlotLockRepository
	barbers   BarberDirectory
	resolver  identity.Resolver
	validator *validator.BookingValidator
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.SlotLockRepository,
	barbers BarberDirectory,
	resolver identity.Resolver,
	bookingValidator *validator.BookingValidator,
	publisher events.Publisher,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		barbers:   barbers,
		resolver:  resolver,
		validator: bookingValidator,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Create runs the full admission sequence for a new booking: field checks,
// barber existence, temporal cutoffs, then slot acquisition under an
// advisory lock and a transaction. The storage-level unique index on the
// slot triple backs the whole sequence up, so even a lost race surfaces as
// a slot conflict rather than a double booking.
func (s *bookingService) Create(ctx context.Context, req *CreateRequest) (*model.Booking, error) {
	booking, err := s.admit(ctx, req)
	if err != nil {
		return nil, err
	}

	userID, err := s.resolver.ResolveOrCreateClient(ctx, booking.ClientName, booking.ClientPhone)
	if err != nil {
		return nil, err
	}
	booking.UserID = userID

	lockID := slotLockID(booking.BarberID, booking.BookingDate, booking.BookingTime)
	if err := s.lockRepo.Acquire(ctx, lockID, slotLockTTL); err != nil {
		if errors.Is(err, bookingserrors.ErrLockHeld) {
			return nil, apperrors.SlotTaken()
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	defer func() {
		if releaseErr := s.lockRepo.Release(ctx, lockID); releaseErr != nil {
			s.log.Warn("Failed to release slot lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		_, findErr := s.repo.FindActiveBySlot(sessCtx, booking.BarberID, booking.BookingDate, booking.BookingTime)
		if findErr == nil {
			return apperrors.SlotTaken()
		}
		if !errors.Is(findErr, bookingserrors.ErrNotFound) {
			return apperrors.StoreUnavailable(findErr)
		}

		if _, createErr := s.repo.Create(sessCtx, booking); createErr != nil {
			if errors.Is(createErr, bookingserrors.ErrSlotOccupied) {
				return apperrors.SlotTaken()
			}
			return apperrors.StoreUnavailable(createErr)
		}
		return nil
	})
	if err != nil {
		s.log.Error("Failed to create booking",
			"barber_id", booking.BarberID,
			"booking_date", booking.BookingDate,
			"booking_time", booking.BookingTime,
			"error", err,
		)
		return nil, err
	}

	s.log.Info("Booking created",
		"id", booking.ID,
		"barber_id", booking.BarberID,
		"booking_date", booking.BookingDate,
		"booking_time", booking.BookingTime,
	)
	s.publisher.BookingCreated(ctx, booking)

	return booking, nil
}

// admit validates the request and assembles the pending booking document.
func (s *bookingService) admit(ctx context.Context, req *CreateRequest) (*model.Booking, error) {
	booking := &model.Booking{
		ClientName:  sanitizer.NormalizeName(req.ClientName),
		ClientPhone: sanitizer.NormalizePhone(req.ClientPhone),
		BarberID:    sanitizer.TrimAndNormalize(req.BarberID),
		ServiceType: sanitizer.TrimAndNormalize(req.ServiceType),
		BookingDate: sanitizer.TrimAndNormalize(req.BookingDate),
		BookingTime: sanitizer.TrimAndNormalize(req.BookingTime),
		Notes:       sanitizer.NormalizeNotes(req.Notes),
		Status:      model.StatusPending,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}
	if booking.ClientPhone == "" {
		booking.ClientPhone = sanitizer.TrimAndNormalize(req.ClientPhone)
	}

	// Required-field checks run in a fixed order so the response always
	// names the first missing field.
	for _, field := range []struct {
		name  string
		value string
	}{
		{"client_name", booking.ClientName},
		{"client_phone", booking.ClientPhone},
		{"barber_id", booking.BarberID},
		{"service_type", booking.ServiceType},
		{"booking_date", booking.BookingDate},
		{"booking_time", booking.BookingTime},
	} {
		if field.value == "" {
			return nil, apperrors.MissingField(field.name)
		}
	}

	if err := s.validator.Validate(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			details := map[string]any{}
			for _, ve := range validationErrs {
				details[ve.Field] = ve.Message
			}
			return nil, apperrors.Validation("Booking validation failed", details)
		}
		return nil, apperrors.InvalidInput(err.Error())
	}

	barber, err := s.barbers.FindByID(ctx, booking.BarberID)
	if err != nil {
		if errors.Is(err, barbersrepo.ErrNotFound) || errors.Is(err, barbersrepo.ErrInvalidID) {
			return nil, apperrors.BarberNotFound(booking.BarberID)
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	booking.BarberName = barber.Name

	if err := s.checkCutoffs(booking.BookingDate, booking.BookingTime); err != nil {
		return nil, err
	}

	return booking, nil
}

// checkCutoffs rejects bookings for days that have already passed and, on
// the current day, for times earlier than the present minute.
func (s *bookingService) checkCutoffs(date, bookingTime string) error {
	day, err := timeslot.ParseDate(date)
	if err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("Invalid booking date: %s", date))
	}

	now := s.now()
	if day.Before(timeslot.StartOfDay(now)) {
		return apperrors.PastDate(date)
	}

	if timeslot.SameDay(day, now) {
		minutes, err := timeslot.ParseMinutes(bookingTime)
		if err != nil {
			return apperrors.InvalidInput(fmt.Sprintf("Invalid booking time: %s", bookingTime))
		}
		if minutes <= timeslot.MinutesOfDay(now) {
			return apperrors.PastTime(bookingTime)
		}
	}

	return nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.StoreUnavailable(err)
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, limit, offset int) ([]*model.Booking, error) {
	bookings, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return bookings, nil
}

func (s *bookingService) GetByBarber(ctx context.Context, barberID string, limit, offset int) ([]*model.Booking, error) {
	if barberID == "" {
		return nil, apperrors.MissingField("barber_id")
	}

	bookings, err := s.repo.FindByBarber(ctx, barberID, limit, offset)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return bookings, nil
}

func (s *bookingService) GetByBarberAndDate(ctx context.Context, barberID, date string) ([]*model.Booking, error) {
	if barberID == "" {
		return nil, apperrors.MissingField("barber_id")
	}
	if _, err := timeslot.ParseDate(date); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid booking date: %s", date))
	}

	bookings, err := s.repo.FindByBarberAndDate(ctx, barberID, date)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return bookings, nil
}

func (s *bookingService) GetByPhone(ctx context.Context, phone string, limit, offset int) ([]*model.Booking, error) {
	normalized := sanitizer.NormalizePhone(phone)
	if normalized == "" {
		normalized = sanitizer.TrimAndNormalize(phone)
	}
	if normalized == "" {
		return nil, apperrors.MissingField("phone")
	}

	bookings, err := s.repo.FindByPhone(ctx, normalized, limit, offset)
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return bookings, nil
}

// Transition moves a booking along the lifecycle state machine. Entering
// the cancelled state stamps cancelled_at, which starts the retention clock
// for the sweeper.
func (s *bookingService) Transition(ctx context.Context, id, toStatus string) (*model.Booking, error) {
	if !model.IsKnownStatus(toStatus) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Unknown booking status: %s", toStatus))
	}

	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(booking.Status, toStatus) {
		return nil, apperrors.InvalidTransition(booking.Status, toStatus)
	}

	var cancelledAt *time.Time
	if toStatus == model.StatusCancelled {
		ts := s.now().UTC().Truncate(time.Millisecond)
		cancelledAt = &ts
	}

	fromStatus := booking.Status
	updated, err := s.repo.UpdateStatus(ctx, id, fromStatus, toStatus, cancelledAt)
	if err != nil {
		// The compare-and-swap missed: a concurrent transition won the
		// race, so this one is no longer valid from its observed state.
		if errors.Is(err, bookingserrors.ErrStaleStatus) {
			return nil, apperrors.InvalidTransition(fromStatus, toStatus)
		}
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return nil, apperrors.StoreUnavailable(err)
	}

	s.log.Info("Booking status changed",
		"id", updated.ID,
		"from", fromStatus,
		"to", updated.Status,
	)
	s.publisher.BookingStatusChanged(ctx, updated, fromStatus)

	return updated, nil
}

func (s *bookingService) Delete(ctx context.Context, id string) error {
	booking, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Booking", id)
		}
		return apperrors.StoreUnavailable(err)
	}

	s.log.Info("Booking deleted", "id", id)
	s.publisher.BookingDeleted(ctx, booking)

	return nil
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func slotLockID(barberID, date, bookingTime string) string {
	return fmt.Sprintf("slot_lock_%s_%s_%s", barberID, date, bookingTime)
}
