package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var now = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func validRegisterForm() RegisterForm {
	return RegisterForm{
		FirstName:       "Ana",
		LastName:        "Pop",
		Email:           "ana@example.com",
		Password:        "secret#1",
		ConfirmPassword: "secret#1",
		BirthDate:       "1990-01-01",
		AcceptTerms:     true,
	}
}

func TestRegisterFormValidate(t *testing.T) {
	tcases := []struct {
		name     string
		mutate   func(*RegisterForm)
		field    string
		errorMsg string
	}{
		{
			name:   "valid form",
			mutate: func(f *RegisterForm) {},
		},
		{
			name:     "missing first name",
			mutate:   func(f *RegisterForm) { f.FirstName = "" },
			field:    "first_name",
			errorMsg: "first name is required",
		},
		{
			name:     "missing last name",
			mutate:   func(f *RegisterForm) { f.LastName = "" },
			field:    "last_name",
			errorMsg: "last name is required",
		},
		{
			name:     "missing email",
			mutate:   func(f *RegisterForm) { f.Email = "" },
			field:    "email",
			errorMsg: "email is required",
		},
		{
			name:     "malformed email",
			mutate:   func(f *RegisterForm) { f.Email = "not-an-email" },
			field:    "email",
			errorMsg: "invalid email",
		},
		{
			name: "short password",
			mutate: func(f *RegisterForm) {
				f.Password = "a#1"
				f.ConfirmPassword = "a#1"
			},
			field:    "password",
			errorMsg: "password must be at least 6 characters",
		},
		{
			name: "password without symbol",
			mutate: func(f *RegisterForm) {
				f.Password = "abc123"
				f.ConfirmPassword = "abc123"
			},
			field:    "password",
			errorMsg: "password must contain at least one symbol",
		},
		{
			name:     "password confirmation mismatch",
			mutate:   func(f *RegisterForm) { f.ConfirmPassword = "other#1" },
			field:    "confirm_password",
			errorMsg: "passwords do not match",
		},
		{
			name:     "missing birth date",
			mutate:   func(f *RegisterForm) { f.BirthDate = "" },
			field:    "birth_date",
			errorMsg: "birth date is required",
		},
		{
			name:     "under 18",
			mutate:   func(f *RegisterForm) { f.BirthDate = "2010-01-01" },
			field:    "birth_date",
			errorMsg: "you must be at least 18 years old",
		},
		{
			name:     "terms not accepted",
			mutate:   func(f *RegisterForm) { f.AcceptTerms = false },
			field:    "accept_terms",
			errorMsg: "you must accept the terms and conditions",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			form := validRegisterForm()
			tc.mutate(&form)

			errs := form.Validate(now)
			if tc.field == "" {
				assert.True(t, errs.Valid(), "expected no errors, got %v", errs)
				return
			}

			assert.False(t, errs.Valid(), "expected validation to fail")
			assert.Equal(t, tc.errorMsg, errs[tc.field], "expected error on field %q", tc.field)
		})
	}
}

func TestRegisterFormValidate_ageBoundary(t *testing.T) {
	form := validRegisterForm()

	// turns 18 tomorrow
	form.BirthDate = "2006-06-16"
	errs := form.Validate(now)
	assert.Equal(t, "you must be at least 18 years old", errs["birth_date"])

	// turned 18 today
	form.BirthDate = "2006-06-15"
	errs = form.Validate(now)
	assert.True(t, errs.Valid(), "expected no errors, got %v", errs)
}

func validFlatForm() FlatForm {
	return FlatForm{
		City:          "Paris",
		StreetName:    "Rue de Rivoli",
		StreetNumber:  "12",
		RentPrice:     "950.50",
		AreaSize:      "42.5",
		YearBuilt:     "1998",
		DateAvailable: "2024-07-01",
		HasAC:         true,
	}
}

func TestFlatFormValidate(t *testing.T) {
	t.Run("valid form parses typed values", func(t *testing.T) {
		vals, errs := validFlatForm().Validate()
		assert.True(t, errs.Valid(), "expected no errors, got %v", errs)
		assert.Equal(t, FlatValues{
			City:          "Paris",
			StreetName:    "Rue de Rivoli",
			StreetNumber:  12,
			RentPrice:     950.50,
			AreaSize:      42.5,
			YearBuilt:     1998,
			DateAvailable: "2024-07-01",
			HasAC:         true,
		}, vals)
	})

	tcases := []struct {
		name     string
		mutate   func(*FlatForm)
		field    string
		errorMsg string
	}{
		{
			name:     "missing city",
			mutate:   func(f *FlatForm) { f.City = "" },
			field:    "city",
			errorMsg: "city is required",
		},
		{
			name:     "missing street name",
			mutate:   func(f *FlatForm) { f.StreetName = "" },
			field:    "street_name",
			errorMsg: "street name is required",
		},
		{
			name:     "street number not numeric",
			mutate:   func(f *FlatForm) { f.StreetNumber = "12b" },
			field:    "street_number",
			errorMsg: "street number must be a number",
		},
		{
			name:     "rent price not numeric",
			mutate:   func(f *FlatForm) { f.RentPrice = "cheap" },
			field:    "rent_price",
			errorMsg: "rent price must be a number",
		},
		{
			name:     "area size not numeric",
			mutate:   func(f *FlatForm) { f.AreaSize = "big" },
			field:    "area_size",
			errorMsg: "area size must be a number",
		},
		{
			name:     "year built not numeric",
			mutate:   func(f *FlatForm) { f.YearBuilt = "old" },
			field:    "year_built",
			errorMsg: "year built must be a number",
		},
		{
			name:     "missing date",
			mutate:   func(f *FlatForm) { f.DateAvailable = "" },
			field:    "date_available",
			errorMsg: "date available is required",
		},
		{
			name:     "malformed date",
			mutate:   func(f *FlatForm) { f.DateAvailable = "July 1st" },
			field:    "date_available",
			errorMsg: "date available must be a date (YYYY-MM-DD)",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			form := validFlatForm()
			tc.mutate(&form)

			_, errs := form.Validate()
			assert.False(t, errs.Valid(), "expected validation to fail")
			assert.Equal(t, tc.errorMsg, errs[tc.field], "expected error on field %q", tc.field)
		})
	}
}
