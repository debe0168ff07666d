package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/flatfinder/flat-finder/internal/database"
	"github.com/flatfinder/flat-finder/internal/types"
)

func TestAccountHandler_Get(t *testing.T) {
	mockRepo := &database.MockFlatFinderRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("GetProfile", 1).Return(database.User{
		Id:        1,
		Email:     "ana@example.com",
		FirstName: "Ana",
		LastName:  "Pop",
		BirthDate: "1990-01-01",
	}, nil).Once()

	app := newTestApp(t, mockRepo)
	rr := httptest.NewRecorder()
	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/account", nil), 1)
	app.account(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var user types.User
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
	assert.Equal(t, "ana@example.com", user.Email)
	assert.Equal(t, "1990-01-01", user.BirthDate)
}

func TestAccountHandler_Update(t *testing.T) {
	t.Run("successful update", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		params := database.UpdateProfileParams{
			UserId:    1,
			FirstName: "Ana-Maria",
			LastName:  "Pop",
			BirthDate: "1990-01-01",
		}
		mockRepo.On("UpdateProfile", params).Return(database.User{
			Id:        1,
			Email:     "ana@example.com",
			FirstName: "Ana-Maria",
			LastName:  "Pop",
			BirthDate: "1990-01-01",
		}, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/account", UpdateAccountRequest{
			FirstName: "Ana-Maria",
			LastName:  "Pop",
			BirthDate: "1990-01-01",
		}), 1)
		req.Method = http.MethodPut
		app.account(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		var user types.User
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&user))
		assert.Equal(t, "Ana-Maria", user.FirstName)
	})

	t.Run("missing fields fail validation without a store call", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/account", UpdateAccountRequest{}), 1)
		req.Method = http.MethodPut
		app.account(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var valErr ValidationError
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&valErr))
		assert.Equal(t, "first name is required", valErr.Fields["first_name"])
		assert.Equal(t, "last name is required", valErr.Fields["last_name"])
		assert.Equal(t, "birth date is required", valErr.Fields["birth_date"])
	})
}

func TestAccountHandler_Delete(t *testing.T) {
	t.Run("removes profile then identity", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("DeleteProfile", 1).Return(nil).Once()
		mockRepo.On("DeleteIdentity", 1).Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(httptest.NewRequest(http.MethodDelete, "/api/account", nil), 1)
		app.account(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)

		cookie := findCookie(rr, tokenCookieKey)
		assert.NotNil(t, cookie, "expected session cookie to be cleared")
		assert.Empty(t, cookie.Value)
	})

	t.Run("identity delete failure is surfaced, profile stays deleted", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		// both deletes are attempted; there is no rollback of the first
		mockRepo.On("DeleteProfile", 1).Return(nil).Once()
		mockRepo.On("DeleteIdentity", 1).Return(errors.New("db error")).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(httptest.NewRequest(http.MethodDelete, "/api/account", nil), 1)
		app.account(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})

	t.Run("profile delete failure stops before the identity", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("DeleteProfile", 1).Return(errors.New("db error")).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(httptest.NewRequest(http.MethodDelete, "/api/account", nil), 1)
		app.account(rr, req)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestAccountHandler_MethodNotAllowed(t *testing.T) {
	app := newTestApp(t, &database.MockFlatFinderRepository{})

	rr := httptest.NewRecorder()
	req := authedRequest(httptest.NewRequest(http.MethodPatch, "/api/account", nil), 1)
	app.account(rr, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestChangePasswordHandler(t *testing.T) {
	hash, err := hashPassword("old#pass1")
	assert.NoError(t, err)

	profile := database.User{Id: 1, Email: "ana@example.com"}
	identity := database.Identity{Id: 1, Email: "ana@example.com", PasswordHash: hash}

	t.Run("successful change", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetProfile", 1).Return(profile, nil).Once()
		mockRepo.On("GetIdentityByEmail", "ana@example.com").Return(identity, nil).Once()
		mockRepo.On("UpdateIdentityPassword", 1, mock.MatchedBy(func(newHash string) bool {
			return verifyPassword(newHash, "new#pass1")
		})).Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/account/password", ChangePasswordRequest{
			CurrentPassword: "old#pass1",
			NewPassword:     "new#pass1",
		}), 1)
		req.Method = http.MethodPut
		app.changePassword(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("wrong current password", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetProfile", 1).Return(profile, nil).Once()
		mockRepo.On("GetIdentityByEmail", "ana@example.com").Return(identity, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/account/password", ChangePasswordRequest{
			CurrentPassword: "wrong#pass",
			NewPassword:     "new#pass1",
		}), 1)
		req.Method = http.MethodPut
		app.changePassword(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("weak new password fails validation first", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/account/password", ChangePasswordRequest{
			CurrentPassword: "old#pass1",
			NewPassword:     "abc123",
		}), 1)
		req.Method = http.MethodPut
		app.changePassword(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

		var valErr ValidationError
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&valErr))
		assert.Equal(t, "password must contain at least one symbol", valErr.Fields["new_password"])
	})
}
