package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	minPasswordLength = 6
	minAge            = 18
	dateLayout        = "2006-01-02"
)

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Errors maps a field name to its first validation failure. Submission is
// blocked while any key is present.
type Errors map[string]string

func (e Errors) Valid() bool {
	return len(e) == 0
}

type RegisterForm struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	BirthDate       string `json:"birth_date"`
	AcceptTerms     bool   `json:"accept_terms"`
}

// Validate re-runs every rule and returns the full set of field errors for
// this attempt.
func (f RegisterForm) Validate(now time.Time) Errors {
	errs := Errors{}

	if f.FirstName == "" {
		errs["first_name"] = "first name is required"
	}
	if f.LastName == "" {
		errs["last_name"] = "last name is required"
	}

	if f.Email == "" {
		errs["email"] = "email is required"
	} else if !emailRe.MatchString(f.Email) {
		errs["email"] = "invalid email"
	}

	if msg := Password(f.Password); msg != "" {
		errs["password"] = msg
	}

	if f.Password != f.ConfirmPassword {
		errs["confirm_password"] = "passwords do not match"
	}

	if f.BirthDate == "" {
		errs["birth_date"] = "birth date is required"
	} else if birth, err := time.Parse(dateLayout, f.BirthDate); err != nil {
		errs["birth_date"] = "invalid birth date"
	} else if age(birth, now) < minAge {
		errs["birth_date"] = "you must be at least 18 years old"
	}

	if !f.AcceptTerms {
		errs["accept_terms"] = "you must accept the terms and conditions"
	}

	return errs
}

// Password checks the password rules shared by registration and password
// change. It returns an empty string when the password is acceptable.
func Password(s string) string {
	switch {
	case s == "":
		return "password is required"
	case len(s) < minPasswordLength:
		return "password must be at least 6 characters"
	case !containsSymbol(s):
		return "password must contain at least one symbol"
	}

	return ""
}

func containsSymbol(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

func age(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() ||
		(now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}

// FlatForm carries the raw field values of the listing form. Numeric fields
// arrive as text and must parse before submission.
type FlatForm struct {
	City          string `json:"city"`
	StreetName    string `json:"street_name"`
	StreetNumber  string `json:"street_number"`
	RentPrice     string `json:"rent_price"`
	AreaSize      string `json:"area_size"`
	YearBuilt     string `json:"year_built"`
	DateAvailable string `json:"date_available"`
	HasAC         bool   `json:"has_ac"`
}

// FlatValues holds the typed values of a flat form that passed validation.
type FlatValues struct {
	City          string
	StreetName    string
	StreetNumber  int
	RentPrice     float64
	AreaSize      float64
	YearBuilt     int
	DateAvailable string
	HasAC         bool
}

func (f FlatForm) Validate() (FlatValues, Errors) {
	errs := Errors{}
	var vals FlatValues

	if f.City == "" {
		errs["city"] = "city is required"
	}
	if f.StreetName == "" {
		errs["street_name"] = "street name is required"
	}
	vals.City = f.City
	vals.StreetName = f.StreetName
	vals.HasAC = f.HasAC

	if f.StreetNumber == "" {
		errs["street_number"] = "street number is required"
	} else if n, err := strconv.Atoi(f.StreetNumber); err != nil {
		errs["street_number"] = "street number must be a number"
	} else {
		vals.StreetNumber = n
	}

	if f.RentPrice == "" {
		errs["rent_price"] = "rent price is required"
	} else if n, err := strconv.ParseFloat(f.RentPrice, 64); err != nil {
		errs["rent_price"] = "rent price must be a number"
	} else {
		vals.RentPrice = n
	}

	if f.AreaSize == "" {
		errs["area_size"] = "area size is required"
	} else if n, err := strconv.ParseFloat(f.AreaSize, 64); err != nil {
		errs["area_size"] = "area size must be a number"
	} else {
		vals.AreaSize = n
	}

	if f.YearBuilt == "" {
		errs["year_built"] = "year built is required"
	} else if n, err := strconv.Atoi(f.YearBuilt); err != nil {
		errs["year_built"] = "year built must be a number"
	} else {
		vals.YearBuilt = n
	}

	if f.DateAvailable == "" {
		errs["date_available"] = "date available is required"
	} else if _, err := time.Parse(dateLayout, f.DateAvailable); err != nil {
		errs["date_available"] = "date available must be a date (YYYY-MM-DD)"
	} else {
		vals.DateAvailable = f.DateAvailable
	}

	return vals, errs
}
