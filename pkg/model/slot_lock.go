package model

import "time"

// SlotLock is an advisory lock held while a booking for one
// (barber, date, time) slot is being created. The _id encodes the slot
// coordinates, so a concurrent creator hits a duplicate-key error instead
// of racing the availability check.
type SlotLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
