// Package events publishes booking lifecycle events to Kafka. Publishing is
// best effort: a broker outage must never fail the request that triggered
// the event.
package events

import (
	"context"
	"time"

	"barbook/pkg/kafka"
	"barbook/pkg/logger"
	"barbook/pkg/model"
)

const (
	TypeBookingCreated       = "booking.created"
	TypeBookingStatusChanged = "booking.status_changed"
	TypeBookingDeleted       = "booking.deleted"

	source = "barbook"
)

type BookingCreated struct {
	BookingID   string    `json:"booking_id"`
	BarberID    string    `json:"barber_id"`
	UserID      string    `json:"user_id,omitempty"`
	BookingDate string    `json:"booking_date"`
	BookingTime string    `json:"booking_time"`
	ServiceType string    `json:"service_type"`
	CreatedAt   time.Time `json:"created_at"`
}

type BookingStatusChanged struct {
	BookingID   string     `json:"booking_id"`
	BarberID    string     `json:"barber_id"`
	FromStatus  string     `json:"from_status"`
	ToStatus    string     `json:"to_status"`
	ChangedAt   time.Time  `json:"changed_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type BookingDeleted struct {
	BookingID string    `json:"booking_id"`
	BarberID  string    `json:"barber_id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// Publisher emits booking events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	BookingCreated(ctx context.Context, booking *model.Booking)
	BookingStatusChanged(ctx context.Context, booking *model.Booking, fromStatus string)
	BookingDeleted(ctx context.Context, booking *model.Booking)
	Close() error
}

type kafkaPublisher struct {
	producer *kafka.Producer
	log      *logger.Logger
}

func NewKafkaPublisher(producer *kafka.Producer, log *logger.Logger) Publisher {
	return &kafkaPublisher{producer: producer, log: log}
}

func (p *kafkaPublisher) BookingCreated(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, TypeBookingCreated, booking.BarberID, BookingCreated{
		BookingID:   booking.ID,
		BarberID:    booking.BarberID,
		UserID:      booking.UserID,
		BookingDate: booking.BookingDate,
		BookingTime: booking.BookingTime,
		ServiceType: booking.ServiceType,
		CreatedAt:   booking.CreatedAt,
	})
}

func (p *kafkaPublisher) BookingStatusChanged(ctx context.Context, booking *model.Booking, fromStatus string) {
	p.publish(ctx, TypeBookingStatusChanged, booking.BarberID, BookingStatusChanged{
		BookingID:   booking.ID,
		BarberID:    booking.BarberID,
		FromStatus:  fromStatus,
		ToStatus:    booking.Status,
		ChangedAt:   time.Now().UTC(),
		CancelledAt: booking.CancelledAt,
	})
}

func (p *kafkaPublisher) BookingDeleted(ctx context.Context, booking *model.Booking) {
	p.publish(ctx, TypeBookingDeleted, booking.BarberID, BookingDeleted{
		BookingID: booking.ID,
		BarberID:  booking.BarberID,
		DeletedAt: time.Now().UTC(),
	})
}

// publish keys events by barber so every event for one barber lands on the
// same partition, preserving per-barber ordering for consumers.
func (p *kafkaPublisher) publish(ctx context.Context, eventType, barberID string, payload any) {
	msg, err := kafka.NewMessage().
		WithKey(barberID).
		WithValue(payload).
		WithEventType(eventType).
		WithSource(source).
		Build()
	if err != nil {
		p.log.Error("Failed to build event message", "event_type", eventType, "error", err)
		return
	}

	if err := p.producer.Publish(ctx, msg); err != nil {
		p.log.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}

func (p *kafkaPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher satisfies Publisher when event streaming is disabled.
type NopPublisher struct{}

func (NopPublisher) BookingCreated(context.Context, *model.Booking)               {}
func (NopPublisher) BookingStatusChanged(context.Context, *model.Booking, string) {}
func (NopPublisher) BookingDeleted(context.Context, *model.Booking)               {}
func (NopPublisher) Close() error                                                 { return nil }
