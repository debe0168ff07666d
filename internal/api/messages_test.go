package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/flatfinder/flat-finder/internal/database"
	"github.com/flatfinder/flat-finder/internal/types"
)

func messageFixture() database.Message {
	return database.Message{
		Id:             5,
		ExternalId:     "f5aa7a10-9a36-4c96-a53f-1f6d1e9f3a61",
		FlatId:         1,
		SenderId:       7,
		SenderEmail:    "tenant@example.com",
		RecipientId:    10,
		RecipientEmail: "owner@example.com",
		Content:        "Is the flat still available?",
		CreatedAt:      time.Now().UTC(),
	}
}

func TestSendMessageHandler(t *testing.T) {
	flat := listingFixture()[0] // owned by 10

	t.Run("delivers to the flat owner", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		sender := database.User{Id: 7, Email: "tenant@example.com"}
		owner := database.User{Id: 10, Email: "owner@example.com"}

		mockRepo.On("GetFlatByExternalId", "aZ3kPq9w").Return(flat, nil).Once()
		mockRepo.On("GetProfile", 7).Return(sender, nil).Once()
		mockRepo.On("GetProfile", 10).Return(owner, nil).Once()
		mockRepo.On("CreateMessage", mock.MatchedBy(func(p database.CreateMessageParams) bool {
			return p.FlatId == 1 &&
				p.SenderId == 7 &&
				p.RecipientId == 10 &&
				p.RecipientEmail == "owner@example.com" &&
				p.ExternalId != "" &&
				p.Content == "Is the flat still available?"
		})).Return(messageFixture(), nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/messages", SendMessageRequest{
			FlatId:  "aZ3kPq9w",
			Content: "Is the flat still available?",
		}), 7)
		app.sendMessage(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var msg types.Message
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&msg))
		assert.Equal(t, "f5aa7a10-9a36-4c96-a53f-1f6d1e9f3a61", msg.ExternalId)
		assert.Equal(t, "owner@example.com", msg.RecipientEmail)
	})

	t.Run("messaging your own flat is forbidden", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetFlatByExternalId", "aZ3kPq9w").Return(flat, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/messages", SendMessageRequest{
			FlatId:  "aZ3kPq9w",
			Content: "hello me",
		}), 10)
		app.sendMessage(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown flat", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetFlatByExternalId", "missing").Return(database.Flat{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/messages", SendMessageRequest{
			FlatId:  "missing",
			Content: "hello",
		}), 7)
		app.sendMessage(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("markup-only content is rejected before the store", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		sender := database.User{Id: 7, Email: "tenant@example.com"}
		owner := database.User{Id: 10, Email: "owner@example.com"}

		mockRepo.On("GetFlatByExternalId", "aZ3kPq9w").Return(flat, nil).Once()
		mockRepo.On("GetProfile", 7).Return(sender, nil).Once()
		mockRepo.On("GetProfile", 10).Return(owner, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/messages", SendMessageRequest{
			FlatId:  "aZ3kPq9w",
			Content: "<script>alert(1)</script>",
		}), 7)
		app.sendMessage(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestReplyMessageHandler(t *testing.T) {
	original := messageFixture() // sender 7, recipient 10

	t.Run("recipient replies, roles swap", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		reply := database.Message{
			Id:             6,
			ExternalId:     "11f3c6f6-c5d4-4bb0-8f8d-6f6f49a4e0de",
			FlatId:         1,
			SenderId:       10,
			SenderEmail:    "owner@example.com",
			RecipientId:    7,
			RecipientEmail: "tenant@example.com",
			Content:        "Yes, come by on Saturday.",
			CreatedAt:      time.Now().UTC(),
		}

		mockRepo.On("GetMessageByExternalId", original.ExternalId).Return(original, nil).Once()
		mockRepo.On("CreateMessage", mock.MatchedBy(func(p database.CreateMessageParams) bool {
			return p.FlatId == original.FlatId &&
				p.SenderId == original.RecipientId &&
				p.RecipientId == original.SenderId &&
				p.RecipientEmail == original.SenderEmail &&
				p.ExternalId != original.ExternalId
		})).Return(reply, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/messages/reply?id="+original.ExternalId, ReplyRequest{
			Content: "Yes, come by on Saturday.",
		}), 10)
		app.replyMessage(rr, req)

		assert.Equal(t, http.StatusCreated, rr.Code)

		var msg types.Message
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&msg))
		assert.Equal(t, 10, msg.SenderId)
		assert.Equal(t, 7, msg.RecipientId)
	})

	t.Run("only the recipient may reply", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetMessageByExternalId", original.ExternalId).Return(original, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(postJson(t, "/api/messages/reply?id="+original.ExternalId, ReplyRequest{
			Content: "I am not part of this",
		}), 99)
		app.replyMessage(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestInboxHandler(t *testing.T) {
	mockRepo := &database.MockFlatFinderRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("ListInbox", 10).Return([]database.Message{messageFixture()}, nil).Once()

	app := newTestApp(t, mockRepo)
	rr := httptest.NewRecorder()
	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/messages/inbox", nil), 10)
	app.inbox(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var msgs []types.Message
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&msgs))
	assert.Len(t, msgs, 1)
	assert.Equal(t, 10, msgs[0].RecipientId)
}

func TestSentHandler(t *testing.T) {
	mockRepo := &database.MockFlatFinderRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("ListSent", 7).Return([]database.Message{messageFixture()}, nil).Once()

	app := newTestApp(t, mockRepo)
	rr := httptest.NewRecorder()
	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/messages/sent", nil), 7)
	app.sent(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var msgs []types.Message
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&msgs))
	assert.Len(t, msgs, 1)
	assert.Equal(t, 7, msgs[0].SenderId)
}

func TestMarkMessageReadHandler(t *testing.T) {
	msg := messageFixture() // recipient 10

	t.Run("recipient marks read", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetMessageByExternalId", msg.ExternalId).Return(msg, nil).Once()
		mockRepo.On("MarkMessageRead", msg.Id).Return(nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/messages/read?id="+msg.ExternalId, nil), 10)
		app.markMessageRead(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("already read is a no-op success", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		read := msg
		read.Read = true
		// no MarkMessageRead expectation: the update must be skipped
		mockRepo.On("GetMessageByExternalId", msg.ExternalId).Return(read, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/messages/read?id="+msg.ExternalId, nil), 10)
		app.markMessageRead(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
	})

	t.Run("sender may not mark read", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetMessageByExternalId", msg.ExternalId).Return(msg, nil).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/messages/read?id="+msg.ExternalId, nil), 7)
		app.markMessageRead(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown message", func(t *testing.T) {
		mockRepo := &database.MockFlatFinderRepository{}
		defer mockRepo.AssertExpectations(t)

		mockRepo.On("GetMessageByExternalId", "missing").Return(database.Message{}, sql.ErrNoRows).Once()

		app := newTestApp(t, mockRepo)
		rr := httptest.NewRecorder()
		req := authedRequest(httptest.NewRequest(http.MethodPost, "/api/messages/read?id=missing", nil), 10)
		app.markMessageRead(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestDeleteMessageHandler(t *testing.T) {
	msg := messageFixture() // sender 7, recipient 10

	tcases := []struct {
		name     string
		userId   int
		expected int
		deletes  bool
	}{
		{
			name:     "sender can delete",
			userId:   7,
			expected: http.StatusNoContent,
			deletes:  true,
		},
		{
			name:     "recipient can delete",
			userId:   10,
			expected: http.StatusNoContent,
			deletes:  true,
		},
		{
			name:     "third parties are forbidden",
			userId:   99,
			expected: http.StatusForbidden,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			mockRepo := &database.MockFlatFinderRepository{}
			defer mockRepo.AssertExpectations(t)

			mockRepo.On("GetMessageByExternalId", msg.ExternalId).Return(msg, nil).Once()
			if tc.deletes {
				mockRepo.On("DeleteMessage", msg.Id).Return(nil).Once()
			}

			app := newTestApp(t, mockRepo)
			rr := httptest.NewRecorder()
			req := authedRequest(httptest.NewRequest(http.MethodDelete, "/api/messages?id="+msg.ExternalId, nil), tc.userId)
			app.deleteMessage(rr, req)

			assert.Equal(t, tc.expected, rr.Code)
		})
	}
}

func TestUnreadCountHandler(t *testing.T) {
	mockRepo := &database.MockFlatFinderRepository{}
	defer mockRepo.AssertExpectations(t)

	mockRepo.On("UnreadCount", 10).Return(3, nil).Once()

	app := newTestApp(t, mockRepo)
	rr := httptest.NewRecorder()
	req := authedRequest(httptest.NewRequest(http.MethodGet, "/api/messages/unread", nil), 10)
	app.unreadCount(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]int
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 3, resp["unread"])
}
