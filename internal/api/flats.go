package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/teris-io/shortid"

	"github.com/flatfinder/flat-finder/internal/database"
	"github.com/flatfinder/flat-finder/internal/listings"
	"github.com/flatfinder/flat-finder/internal/validate"
)

// listFlats serves the browse page: the working set is reloaded for the
// request, optionally sorted, then filtered. Filtering runs after sorting so
// matches keep the sorted order.
func (s *FlatFinderApp) listFlats(w http.ResponseWriter, r *http.Request) {
	if err := s.view.Load(); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if field := r.URL.Query().Get("sort"); field != "" {
		s.view.Sort(field)
		if r.URL.Query().Get("dir") == "desc" {
			// a second call on the same field flips the direction
			s.view.Sort(field)
		}
	}

	s.writeJson(w, http.StatusOK, s.view.Filter(r.URL.Query().Get("q")))
}

func (s *FlatFinderApp) getFlat(w http.ResponseWriter, r *http.Request) {
	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	flat, err := s.db.GetFlatByExternalId(externalId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, listings.ToApiFlat(flat))
}

func (s *FlatFinderApp) createFlat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var form validate.FlatForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	vals, errs := form.Validate()
	if !errs.Valid() {
		errResp := NewValidationError(errs)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := shortid.Generate()
	if err != nil {
		s.log.Print("generate short id:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newFlat, err := s.db.CreateFlat(database.CreateFlatParams{
		ExternalId:    sid,
		OwnerId:       userId,
		City:          vals.City,
		StreetName:    vals.StreetName,
		StreetNumber:  vals.StreetNumber,
		RentPrice:     vals.RentPrice,
		AreaSize:      vals.AreaSize,
		YearBuilt:     vals.YearBuilt,
		DateAvailable: vals.DateAvailable,
		HasAC:         vals.HasAC,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, listings.ToApiFlat(newFlat))
}

func (s *FlatFinderApp) updateFlat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	flat, err := s.db.GetFlatByExternalId(externalId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if flat.OwnerId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var form validate.FlatForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	vals, errs := form.Validate()
	if !errs.Valid() {
		errResp := NewValidationError(errs)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	updated, err := s.db.UpdateFlat(database.UpdateFlatParams{
		FlatId:        flat.Id,
		City:          vals.City,
		StreetName:    vals.StreetName,
		StreetNumber:  vals.StreetNumber,
		RentPrice:     vals.RentPrice,
		AreaSize:      vals.AreaSize,
		YearBuilt:     vals.YearBuilt,
		DateAvailable: vals.DateAvailable,
		HasAC:         vals.HasAC,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, listings.ToApiFlat(updated))
}

// deleteFlat removes a listing. Owners can delete their own flats; admins
// can delete any.
func (s *FlatFinderApp) deleteFlat(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	flat, err := s.db.GetFlatByExternalId(externalId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if flat.OwnerId != userId {
		user, err := s.db.GetProfile(userId)
		if err != nil || !user.IsAdmin {
			errResp := NewForbiddenError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	if err := s.view.Delete(flat.Id); err != nil {
		s.log.Println("delete flat:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

// toggleFavorite flips the caller's membership in the flat's favorites set
// and reports the resulting state.
func (s *FlatFinderApp) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	externalId := r.URL.Query().Get("id")
	if externalId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.view.Load(); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	flat, ok := s.view.Get(externalId)
	if !ok {
		errResp := NewNotFoundError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	favorite, err := s.view.ToggleFavorite(flat.Id, userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, map[string]any{
		"flat_id":  externalId,
		"favorite": favorite,
	})
}

func (s *FlatFinderApp) myFlats(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	flats, err := s.db.ListFlatsByOwner(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, listings.ToApiFlats(flats))
}

func (s *FlatFinderApp) favoriteFlats(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	flats, err := s.db.ListFavoriteFlats(userId)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, listings.ToApiFlats(flats))
}
