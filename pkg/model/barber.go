package model

import "time"

type Barber struct {
	ID              string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name            string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Specialty       string    `json:"specialty,omitempty" bson:"specialty,omitempty" validate:"omitempty,max=100"`
	Bio             string    `json:"bio,omitempty" bson:"bio,omitempty" validate:"omitempty,max=1000"`
	ImageURL        string    `json:"image_url,omitempty" bson:"image_url,omitempty" validate:"omitempty,url"`
	ExperienceYears int       `json:"experience_years,omitempty" bson:"experience_years,omitempty" validate:"omitempty,min=0,max=80"`
	Username        string    `json:"username" bson:"username" validate:"required,min=2,max=50"`
	PasswordHash    string    `json:"-" bson:"password_hash,omitempty"`
	CreatedAt       time.Time `json:"created_at" bson:"created_at"`
}

type BarberUpdate struct {
	Name            string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Specialty       string `json:"specialty,omitempty" validate:"omitempty,max=100"`
	Bio             string `json:"bio,omitempty" validate:"omitempty,max=1000"`
	ImageURL        string `json:"image_url,omitempty" validate:"omitempty,url"`
	ExperienceYears *int   `json:"experience_years,omitempty" validate:"omitempty,min=0,max=80"`
}
