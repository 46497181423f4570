package model

import "time"

// Account roles.
const (
	RoleAdmin  = "admin"
	RoleBarber = "barber"
	RoleClient = "client"
)

type User struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name         string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Username     string    `json:"username" bson:"username" validate:"required,min=2,max=64"`
	Email        string    `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone        string    `json:"phone" bson:"phone" validate:"required,min=6,max=20"`
	PasswordHash string    `json:"-" bson:"password_hash,omitempty"`
	Role         string    `json:"role" bson:"role" validate:"required,oneof=admin barber client"`
	IsActive     bool      `json:"is_active" bson:"is_active"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

// AccountKind identifies which directory an account was found in when the
// unified lookup is used.
type AccountKind string

const (
	AccountAdmin  AccountKind = "admin"
	AccountBarber AccountKind = "barber"
	AccountClient AccountKind = "client"
)

// Account is the identity shape shared by admins, barbers and clients.
type Account struct {
	Kind     AccountKind `json:"kind"`
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
}
