// Package availability computes which slots of a barber's daily grid are
// blocked for a given date.
package availability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	barbersrepo "barbook/internal/barbers/repository"
	"barbook/internal/bookings/repository"
	apperrors "barbook/pkg/errors"
	"barbook/pkg/logger"
	"barbook/pkg/model"
	"barbook/pkg/timeslot"
)

// BarberDirectory answers barber existence checks.
type BarberDirectory interface {
	FindByID(ctx context.Context, id string) (*model.Barber, error)
}

type Service interface {
	// BlockedSlots returns the sorted, de-duplicated set of grid times that
	// cannot be booked on the given date: every slot held by an active
	// booking plus, when the date is today, every slot whose hour has
	// already begun.
	BlockedSlots(ctx context.Context, barberID, date string) ([]string, error)
}

type service struct {
	bookings repository.BookingRepository
	barbers  BarberDirectory
	log      *logger.Logger
	now      func() time.Time
}

func NewService(bookings repository.BookingRepository, barbers BarberDirectory, log *logger.Logger) Service {
	return &service{
		bookings: bookings,
		barbers:  barbers,
		log:      log,
		now:      time.Now,
	}
}

func (s *service) BlockedSlots(ctx context.Context, barberID, date string) ([]string, error) {
	if barberID == "" {
		return nil, apperrors.MissingField("barber_id")
	}
	day, err := timeslot.ParseDate(date)
	if err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("Invalid date: %s", date))
	}

	if _, err := s.barbers.FindByID(ctx, barberID); err != nil {
		if errors.Is(err, barbersrepo.ErrNotFound) || errors.Is(err, barbersrepo.ErrInvalidID) {
			return nil, apperrors.BarberNotFound(barberID)
		}
		return nil, apperrors.StoreUnavailable(err)
	}

	// A storage failure here must not report an open slot that is in fact
	// taken, so the lookup fails closed.
	active, err := s.bookings.FindActiveByBarberAndDate(ctx, barberID, date)
	if err != nil {
		s.log.Error("Failed to load active bookings for availability",
			"barber_id", barberID,
			"date", date,
			"error", err,
		)
		return nil, apperrors.StoreUnavailable(err)
	}

	blocked := make(map[string]struct{}, len(active))
	for _, booking := range active {
		blocked[booking.BookingTime] = struct{}{}
	}

	// Same-day cutoff is hour granular: a slot is gone once its hour has
	// begun, even though creation checks the exact minute.
	now := s.now()
	if timeslot.SameDay(day, now) {
		for _, slot := range timeslot.DailySlots {
			hour, err := timeslot.Hour(slot)
			if err != nil {
				continue
			}
			if hour <= now.Hour() {
				blocked[slot] = struct{}{}
			}
		}
	}

	times := make([]string, 0, len(blocked))
	for t := range blocked {
		times = append(times, t)
	}
	sort.Strings(times)

	return times, nil
}
