package service

import (
	"context"
	"errors"
	"testing"
	"time"

	barbersrepo "barbook/internal/barbers/repository"
	bookingserrors "barbook/internal/bookings/errors"
	"barbook/internal/bookings/validator"
	mongotx "barbook/pkg/db/mongo"
	apperrors "barbook/pkg/errors"
	"barbook/pkg/logger"
	"barbook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	testBarberID = "507f1f77bcf86cd799439011"
	testUserID   = "507f191e810c19729de860ea"
)

type mockBookingRepository struct {
	createFunc            func(ctx context.Context, booking *model.Booking) (*model.Booking, error)
	findByIDFunc          func(ctx context.Context, id string) (*model.Booking, error)
	findActiveBySlotFunc  func(ctx context.Context, barberID, date, bookingTime string) (*model.Booking, error)
	updateStatusFunc      func(ctx context.Context, id string, fromStatus, toStatus string, cancelledAt *time.Time) (*model.Booking, error)
	deleteFunc            func(ctx context.Context, id string) error
	deleteCancelledBefore func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = "66aaf0000000000000000001"
	return booking, nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit, offset int) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindByBarber(ctx context.Context, barberID string, limit, offset int) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindByBarberAndDate(ctx context.Context, barberID, date string) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindActiveByBarberAndDate(ctx context.Context, barberID, date string) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindActiveBySlot(ctx context.Context, barberID, date, bookingTime string) (*model.Booking, error) {
	if m.findActiveBySlotFunc != nil {
		return m.findActiveBySlotFunc(ctx, barberID, date, bookingTime)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) FindByPhone(ctx context.Context, phone string, limit, offset int) ([]*model.Booking, error) {
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) UpdateStatus(ctx context.Context, id string, fromStatus, toStatus string, cancelledAt *time.Time) (*model.Booking, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, id, fromStatus, toStatus, cancelledAt)
	}
	return nil, bookingserrors.ErrNotFound
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) DeleteCancelledBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if m.deleteCancelledBefore != nil {
		return m.deleteCancelledBefore(ctx, cutoff)
	}
	return 0, nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	err := fn(mongo.NewSessionContext(ctx, nil))
	if err != nil && !apperrors.IsAppError(err) {
		return errors.New("transaction failed: " + err.Error())
	}
	return err
}

type mockSlotLockRepository struct {
	acquireFunc func(ctx context.Context, lockID string, ttl time.Duration) error
	acquired    []string
	released    []string
}

func (m *mockSlotLockRepository) Acquire(ctx context.Context, lockID string, ttl time.Duration) error {
	if m.acquireFunc != nil {
		return m.acquireFunc(ctx, lockID, ttl)
	}
	m.acquired = append(m.acquired, lockID)
	return nil
}

func (m *mockSlotLockRepository) Release(ctx context.Context, lockID string) error {
	m.released = append(m.released, lockID)
	return nil
}

type mockBarberDirectory struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Barber, error)
}

func (m *mockBarberDirectory) FindByID(ctx context.Context, id string) (*model.Barber, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Barber{ID: id, Name: "Jakub"}, nil
}

type mockResolver struct {
	resolveFunc func(ctx context.Context, name, phone string) (string, error)
	calls       int
}

func (m *mockResolver) ResolveOrCreateClient(ctx context.Context, name, phone string) (string, error) {
	m.calls++
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, name, phone)
	}
	return testUserID, nil
}

func (m *mockResolver) LookupAccount(ctx context.Context, username string) (*model.Account, error) {
	return nil, nil
}

type mockPublisher struct {
	created       []*model.Booking
	statusChanged []*model.Booking
	deleted       []*model.Booking
}

func (m *mockPublisher) BookingCreated(_ context.Context, b *model.Booking) {
	m.created = append(m.created, b)
}

func (m *mockPublisher) BookingStatusChanged(_ context.Context, b *model.Booking, _ string) {
	m.statusChanged = append(m.statusChanged, b)
}

func (m *mockPublisher) BookingDeleted(_ context.Context, b *model.Booking) {
	m.deleted = append(m.deleted, b)
}

func (m *mockPublisher) Close() error { return nil }

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
}

type fixture struct {
	repo      *mockBookingRepository
	locks     *mockSlotLockRepository
	barbers   *mockBarberDirectory
	resolver  *mockResolver
	publisher *mockPublisher
	svc       *bookingService
}

func newFixture(now time.Time) *fixture {
	f := &fixture{
		repo:      &mockBookingRepository{},
		locks:     &mockSlotLockRepository{},
		barbers:   &mockBarberDirectory{},
		resolver:  &mockResolver{},
		publisher: &mockPublisher{},
	}
	log := testLogger()
	svc := NewBookingService(
		f.repo,
		f.locks,
		f.barbers,
		f.resolver,
		validator.NewBookingValidator(log),
		f.publisher,
		log,
	).(*bookingService)
	svc.now = func() time.Time { return now }
	f.svc = svc
	return f
}

func validRequest() *CreateRequest {
	return &CreateRequest{
		ClientName:  "Jan Kowalski",
		ClientPhone: "+48123456789",
		BarberID:    testBarberID,
		ServiceType: "Strzyżenie męskie",
		BookingDate: "2025-06-10",
		BookingTime: "14:00",
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 10, 0, 0, 0, time.Local)
}

func TestCreate_Success(t *testing.T) {
	f := newFixture(fixedNow())

	booking, err := f.svc.Create(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Create() returned error: %v", err)
	}

	if booking.Status != model.StatusPending {
		t.Errorf("new booking status = %q, want %q", booking.Status, model.StatusPending)
	}
	if booking.UserID != testUserID {
		t.Errorf("booking user ID = %q, want %q", booking.UserID, testUserID)
	}
	if booking.BarberName != "Jakub" {
		t.Errorf("barber name = %q, want Jakub", booking.BarberName)
	}
	if f.resolver.calls != 1 {
		t.Errorf("resolver called %d times, want 1", f.resolver.calls)
	}
	if len(f.locks.acquired) != 1 || len(f.locks.released) != 1 {
		t.Errorf("lock acquired/released = %d/%d, want 1/1", len(f.locks.acquired), len(f.locks.released))
	}
	if len(f.publisher.created) != 1 {
		t.Errorf("published %d created events, want 1", len(f.publisher.created))
	}
}

func TestCreate_MissingFields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CreateRequest)
		wantField string
	}{
		{"no client name", func(r *CreateRequest) { r.ClientName = "" }, "client_name"},
		{"no phone", func(r *CreateRequest) { r.ClientPhone = "  " }, "client_phone"},
		{"no barber", func(r *CreateRequest) { r.BarberID = "" }, "barber_id"},
		{"no service type", func(r *CreateRequest) { r.ServiceType = "" }, "service_type"},
		{"no date", func(r *CreateRequest) { r.BookingDate = "" }, "booking_date"},
		{"no time", func(r *CreateRequest) { r.BookingTime = "" }, "booking_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(fixedNow())
			req := validRequest()
			tt.mutate(req)

			_, err := f.svc.Create(context.Background(), req)
			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.Code != "MISSING_FIELD" {
				t.Fatalf("Create() error = %v, want MISSING_FIELD", err)
			}
			if appErr.Details["field"] != tt.wantField {
				t.Errorf("missing field = %v, want %s", appErr.Details["field"], tt.wantField)
			}
		})
	}
}

func TestCreate_BarberNotFound(t *testing.T) {
	f := newFixture(fixedNow())
	f.barbers.findByIDFunc = func(ctx context.Context, id string) (*model.Barber, error) {
		return nil, errors.New("barber not found")
	}

	_, err := f.svc.Create(context.Background(), validRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != "STORE_UNAVAILABLE" {
		t.Fatalf("unexpected error for opaque store failure: %v", err)
	}
}

func TestCreate_UnknownBarber(t *testing.T) {
	f := newFixture(fixedNow())
	f.barbers.findByIDFunc = func(ctx context.Context, id string) (*model.Barber, error) {
		return nil, barbersrepo.ErrNotFound
	}

	_, err := f.svc.Create(context.Background(), validRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != "BARBER_NOT_FOUND" {
		t.Fatalf("Create() error = %v, want BARBER_NOT_FOUND", err)
	}
	if f.resolver.calls != 0 {
		t.Errorf("resolver called before admission passed")
	}
}

func TestCreate_PastDate(t *testing.T) {
	f := newFixture(fixedNow())
	req := validRequest()
	req.BookingDate = "2025-05-31"

	_, err := f.svc.Create(context.Background(), req)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != "PAST_DATE" {
		t.Fatalf("Create() error = %v, want PAST_DATE", err)
	}
}

func TestCreate_SameDayPastTime(t *testing.T) {
	// 14:30 today: 14:00 is gone but 15:00 is still bookable.
	now := time.Date(2025, 6, 10, 14, 30, 0, 0, time.Local)
	f := newFixture(now)

	req := validRequest()
	req.BookingTime = "14:00"
	_, err := f.svc.Create(context.Background(), req)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != "PAST_TIME" {
		t.Fatalf("Create() at 14:00 error = %v, want PAST_TIME", err)
	}

	// A slot at exactly the current minute is also gone.
	req = validRequest()
	req.BookingTime = "14:30"
	_, err = f.svc.Create(context.Background(), req)
	appErr = apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != "PAST_TIME" {
		t.Fatalf("Create() at 14:30 error = %v, want PAST_TIME", err)
	}

	req = validRequest()
	req.BookingTime = "15:00"
	if _, err := f.svc.Create(context.Background(), req); err != nil {
		t.Fatalf("Create() at 15:00 returned error: %v", err)
	}
}

func TestCreate_SlotTaken(t *testing.T) {
	f := newFixture(fixedNow())
	f.repo.findActiveBySlotFunc = func(ctx context.Context, barberID, date, bookingTime string) (*model.Booking, error) {
		return &model.Booking{Status: model.StatusConfirmed}, nil
	}

	_, err := f.svc.Create(context.Background(), validRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != "SLOT_TAKEN" {
		t.Fatalf("Create() error = %v, want SLOT_TAKEN", err)
	}
	if len(f.locks.released) != 1 {
		t.Errorf("lock not released after conflict")
	}
	if len(f.publisher.created) != 0 {
		t.Errorf("event published for rejected booking")
	}
}

func TestCreate_LockHeld(t *testing.T) {
	f := newFixture(fixedNow())
	f.locks.acquireFunc = func(ctx context.Context, lockID string, ttl time.Duration) error {
		return bookingserrors.ErrLockHeld
	}

	_, err := f.svc.Create(context.Background(), validRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != "SLOT_TAKEN" {
		t.Fatalf("Create() error = %v, want SLOT_TAKEN when lock is held", err)
	}
}

func TestCreate_DuplicateKeyBackstop(t *testing.T) {
	// Even if the in-transaction check misses, the unique index surfaces
	// the conflict as a slot error.
	f := newFixture(fixedNow())
	f.repo.createFunc = func(ctx context.Context, booking *model.Booking) (*model.Booking, error) {
		return nil, bookingserrors.ErrSlotOccupied
	}

	_, err := f.svc.Create(context.Background(), validRequest())
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != "SLOT_TAKEN" {
		t.Fatalf("Create() error = %v, want SLOT_TAKEN", err)
	}
}

func TestTransition_Lifecycle(t *testing.T) {
	tests := []struct {
		from    string
		to      string
		allowed bool
	}{
		{model.StatusPending, model.StatusConfirmed, true},
		{model.StatusPending, model.StatusCancelled, true},
		{model.StatusPending, model.StatusCompleted, false},
		{model.StatusConfirmed, model.StatusCompleted, true},
		{model.StatusConfirmed, model.StatusCancelled, true},
		{model.StatusConfirmed, model.StatusPending, false},
		{model.StatusCancelled, model.StatusPending, false},
		{model.StatusCancelled, model.StatusConfirmed, false},
		{model.StatusCompleted, model.StatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"_to_"+tt.to, func(t *testing.T) {
			f := newFixture(fixedNow())
			f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
				return &model.Booking{ID: id, Status: tt.from, BarberID: testBarberID}, nil
			}
			f.repo.updateStatusFunc = func(ctx context.Context, id string, fromStatus, toStatus string, cancelledAt *time.Time) (*model.Booking, error) {
				if fromStatus != tt.from {
					t.Errorf("compare-and-swap pinned status %q, want %q", fromStatus, tt.from)
				}
				return &model.Booking{ID: id, Status: toStatus, BarberID: testBarberID, CancelledAt: cancelledAt}, nil
			}

			booking, err := f.svc.Transition(context.Background(), "66aaf0000000000000000001", tt.to)
			if tt.allowed {
				if err != nil {
					t.Fatalf("Transition(%s -> %s) returned error: %v", tt.from, tt.to, err)
				}
				if booking.Status != tt.to {
					t.Errorf("status = %q, want %q", booking.Status, tt.to)
				}
				return
			}

			appErr := apperrors.AsAppError(err)
			if appErr == nil || appErr.Code != "INVALID_TRANSITION" {
				t.Fatalf("Transition(%s -> %s) error = %v, want INVALID_TRANSITION", tt.from, tt.to, err)
			}
		})
	}
}

func TestTransition_CancellationStampsTimestamp(t *testing.T) {
	now := fixedNow()
	f := newFixture(now)
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.StatusConfirmed, BarberID: testBarberID}, nil
	}

	var captured *time.Time
	f.repo.updateStatusFunc = func(ctx context.Context, id string, fromStatus, toStatus string, cancelledAt *time.Time) (*model.Booking, error) {
		captured = cancelledAt
		return &model.Booking{ID: id, Status: toStatus, CancelledAt: cancelledAt}, nil
	}

	if _, err := f.svc.Transition(context.Background(), "66aaf0000000000000000001", model.StatusCancelled); err != nil {
		t.Fatalf("Transition() returned error: %v", err)
	}
	if captured == nil {
		t.Fatal("cancellation did not stamp cancelled_at")
	}
	if !captured.Equal(now.UTC().Truncate(time.Millisecond)) {
		t.Errorf("cancelled_at = %v, want %v", captured, now.UTC())
	}

	// Confirming must not stamp the timestamp.
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.StatusPending, BarberID: testBarberID}, nil
	}
	captured = nil
	if _, err := f.svc.Transition(context.Background(), "66aaf0000000000000000001", model.StatusConfirmed); err != nil {
		t.Fatalf("Transition() returned error: %v", err)
	}
	if captured != nil {
		t.Error("confirmation stamped cancelled_at")
	}
}

func TestTransition_LostRace(t *testing.T) {
	f := newFixture(fixedNow())
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.StatusPending, BarberID: testBarberID}, nil
	}
	// Another caller moved the booking between our read and write, so the
	// compare-and-swap finds no document in the observed state.
	f.repo.updateStatusFunc = func(ctx context.Context, id string, fromStatus, toStatus string, cancelledAt *time.Time) (*model.Booking, error) {
		return nil, bookingserrors.ErrStaleStatus
	}

	_, err := f.svc.Transition(context.Background(), "66aaf0000000000000000001", model.StatusConfirmed)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != "INVALID_TRANSITION" {
		t.Fatalf("Transition() error = %v, want INVALID_TRANSITION", err)
	}
	if len(f.publisher.statusChanged) != 0 {
		t.Error("lost race still published a status change event")
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	f := newFixture(fixedNow())

	_, err := f.svc.Transition(context.Background(), "66aaf0000000000000000001", "postponed")
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != "INVALID_INPUT" {
		t.Fatalf("Transition() error = %v, want INVALID_INPUT", err)
	}
}

func TestDelete_PublishesEvent(t *testing.T) {
	f := newFixture(fixedNow())
	f.repo.findByIDFunc = func(ctx context.Context, id string) (*model.Booking, error) {
		return &model.Booking{ID: id, Status: model.StatusCancelled, BarberID: testBarberID}, nil
	}

	if err := f.svc.Delete(context.Background(), "66aaf0000000000000000001"); err != nil {
		t.Fatalf("Delete() returned error: %v", err)
	}
	if len(f.publisher.deleted) != 1 {
		t.Errorf("published %d deleted events, want 1", len(f.publisher.deleted))
	}
}
