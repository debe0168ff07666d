package database

import "time"

// Identity is the authentication record. It is deliberately separate from
// User: registration creates both, account deletion removes them with two
// independent statements and no transaction.
type Identity struct {
	Id           int
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// User is the profile record keyed by the identity id.
type User struct {
	Id        int
	Email     string
	FirstName string
	LastName  string
	BirthDate string
	IsAdmin   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Flat struct {
	Id            int
	ExternalId    string
	OwnerId       int
	City          string
	StreetName    string
	StreetNumber  int
	RentPrice     float64
	AreaSize      float64
	YearBuilt     int
	DateAvailable string
	HasAC         bool
	Favorites     []int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Message struct {
	Id             int
	ExternalId     string
	FlatId         int
	SenderId       int
	SenderEmail    string
	RecipientId    int
	RecipientEmail string
	Content        string
	Read           bool
	CreatedAt      time.Time
}

type CreateProfileParams struct {
	UserId    int
	Email     string
	FirstName string
	LastName  string
	BirthDate string
}

type UpdateProfileParams struct {
	UserId    int
	FirstName string
	LastName  string
	BirthDate string
}

type CreateFlatParams struct {
	ExternalId    string
	OwnerId       int
	City          string
	StreetName    string
	StreetNumber  int
	RentPrice     float64
	AreaSize      float64
	YearBuilt     int
	DateAvailable string
	HasAC         bool
}

type UpdateFlatParams struct {
	FlatId        int
	City          string
	StreetName    string
	StreetNumber  int
	RentPrice     float64
	AreaSize      float64
	YearBuilt     int
	DateAvailable string
	HasAC         bool
}

type CreateMessageParams struct {
	ExternalId     string
	FlatId         int
	SenderId       int
	SenderEmail    string
	RecipientId    int
	RecipientEmail string
	Content        string
	CreatedAt      time.Time
}
