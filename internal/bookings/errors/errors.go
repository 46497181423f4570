package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrSlotOccupied surfaces the storage-level uniqueness constraint on
	// (barber_id, booking_date, booking_time) over active bookings.
	ErrSlotOccupied = errors.New("booking slot already occupied")

	// ErrLockHeld means another request is creating a booking for the
	// same slot right now.
	ErrLockHeld = errors.New("slot lock already held")

	// ErrStaleStatus means a concurrent transition changed the booking's
	// status between read and write.
	ErrStaleStatus = errors.New("booking status changed concurrently")
)
