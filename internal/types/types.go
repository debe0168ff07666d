package types

import (
	"time"
)

type User struct {
	Id        int       `json:"id"`
	Email     string    `json:"email,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	BirthDate string    `json:"birth_date,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Session is the authenticated identity joined with its profile record. It
// exists only while a valid token is presented; it is never persisted.
type Session struct {
	UserId    int    `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsAdmin   bool   `json:"is_admin"`
}

type Flat struct {
	Id            int       `json:"id"`
	ExternalId    string    `json:"external_id"`
	OwnerId       int       `json:"owner_id"`
	City          string    `json:"city"`
	StreetName    string    `json:"street_name"`
	StreetNumber  int       `json:"street_number"`
	RentPrice     float64   `json:"rent_price"`
	AreaSize      float64   `json:"area_size"`
	YearBuilt     int       `json:"year_built"`
	DateAvailable string    `json:"date_available"`
	HasAC         bool      `json:"has_ac"`
	Favorites     []int     `json:"favorites"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty"`
}

type Message struct {
	Id             int       `json:"id"`
	ExternalId     string    `json:"external_id"`
	FlatId         int       `json:"flat_id"`
	SenderId       int       `json:"sender_id"`
	SenderEmail    string    `json:"sender_email"`
	RecipientId    int       `json:"recipient_id"`
	RecipientEmail string    `json:"recipient_email"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}
