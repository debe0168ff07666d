package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/flatfinder/flat-finder/internal/types"
)

func (s *FlatFinderApp) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.db.ListProfiles()
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	apiUsers := make([]types.User, len(users))
	for i, u := range users {
		apiUsers[i] = toApiUser(u)
	}

	s.writeJson(w, http.StatusOK, apiUsers)
}

// grantAdmin flips a user's admin flag on. There is no way to flip it back.
func (s *FlatFinderApp) grantAdmin(w http.ResponseWriter, r *http.Request) {
	targetId, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetProfile(targetId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.GrantAdmin(targetId); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}

// removeUser deletes another user's account with the same two-step,
// non-transactional semantics as self-deletion.
func (s *FlatFinderApp) removeUser(w http.ResponseWriter, r *http.Request) {
	targetId, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteProfile(targetId); err != nil {
		s.log.Printf("delete profile %d: %v", targetId, err)
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteIdentity(targetId); err != nil {
		s.log.Printf("delete identity %d after profile removal: %v", targetId, err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusNoContent, nil)
}
