package model

import "time"

// Booking statuses. Pending and confirmed bookings occupy their slot;
// cancelled and completed ones do not.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
)

// ActiveStatuses are the statuses that count toward slot occupancy.
var ActiveStatuses = []string{StatusPending, StatusConfirmed}

// Booking is one reserved (barber, date, time) slot. BookingDate is kept as
// a plain "YYYY-MM-DD" string and BookingTime as "HH:MM" so a reservation
// never drifts across a timezone boundary in storage.
type Booking struct {
	ID          string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ClientName  string     `json:"client_name" bson:"client_name" validate:"required,min=2,max=100"`
	ClientPhone string     `json:"client_phone" bson:"client_phone" validate:"required,min=6,max=20"`
	UserID      string     `json:"user_id,omitempty" bson:"user_id,omitempty" validate:"omitempty,mongodb"`
	BarberID    string     `json:"barber_id" bson:"barber_id" validate:"required,mongodb"`
	BarberName  string     `json:"barber_name,omitempty" bson:"barber_name,omitempty"`
	ServiceType string     `json:"service_type" bson:"service_type" validate:"required,min=2,max=100"`
	BookingDate string     `json:"booking_date" bson:"booking_date" validate:"required,datetime=2006-01-02"`
	BookingTime string     `json:"booking_time" bson:"booking_time" validate:"required,datetime=15:04"`
	Notes       string     `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=500"`
	Status      string     `json:"status" bson:"status" validate:"omitempty,oneof=pending confirmed cancelled completed"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
}

// IsActive reports whether the booking still occupies its slot.
func (b *Booking) IsActive() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// IsKnownStatus reports whether s is one of the lifecycle statuses.
func IsKnownStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}
