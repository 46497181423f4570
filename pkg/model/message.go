package model

import "time"

// Message is an admin-to-barber notice.
type Message struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	BarberID  string    `json:"barber_id" bson:"barber_id" validate:"required,mongodb"`
	Subject   string    `json:"subject" bson:"subject" validate:"required,min=2,max=200"`
	Body      string    `json:"body" bson:"body" validate:"required,min=1,max=2000"`
	Read      bool      `json:"read" bson:"read"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
