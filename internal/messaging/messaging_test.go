package messaging

import (
	"testing"
	"time"

	"github.com/flatfinder/flat-finder/internal/database"
	"github.com/flatfinder/flat-finder/internal/types"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func TestClean(t *testing.T) {
	tcases := []struct {
		name     string
		content  string
		expected string
	}{
		{
			name:     "plain text unchanged",
			content:  "Is the flat still available?",
			expected: "Is the flat still available?",
		},
		{
			name:     "markup is stripped",
			content:  `Hello <script>alert("x")</script><b>there</b>`,
			expected: "Hellothere",
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Clean(tc.content))
		})
	}
}

func TestCompose(t *testing.T) {
	sender := types.Session{
		UserId: 7,
		Email:  "sender@example.com",
	}
	recipient := database.User{
		Id:    10,
		Email: "owner@example.com",
	}

	params, err := Compose(3, sender, recipient, "Is it available?", testNow)
	assert.NoError(t, err)
	assert.NotEmpty(t, params.ExternalId)
	assert.Equal(t, 3, params.FlatId)
	assert.Equal(t, 7, params.SenderId)
	assert.Equal(t, "sender@example.com", params.SenderEmail)
	assert.Equal(t, 10, params.RecipientId)
	assert.Equal(t, "owner@example.com", params.RecipientEmail, "recipient email is always populated")
	assert.Equal(t, "Is it available?", params.Content)
	assert.Equal(t, testNow, params.CreatedAt)
}

func TestCompose_emptyContent(t *testing.T) {
	_, err := Compose(3, types.Session{}, database.User{}, "", testNow)
	assert.ErrorIs(t, err, ErrEmptyContent)

	// markup-only content sanitizes to empty
	_, err = Compose(3, types.Session{}, database.User{}, "<p></p>", testNow)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestReply(t *testing.T) {
	original := database.Message{
		Id:             5,
		ExternalId:     "5b2f9a60-6f6e-4d2b-8f2e-1c9f4a3b7d21",
		FlatId:         3,
		SenderId:       7,
		SenderEmail:    "tenant@example.com",
		RecipientId:    10,
		RecipientEmail: "owner@example.com",
		Content:        "Is it available?",
		Read:           true,
		CreatedAt:      testNow.Add(-time.Hour),
	}

	params, err := Reply(original, "Yes, from July.", testNow)
	assert.NoError(t, err)
	assert.Equal(t, original.FlatId, params.FlatId, "reply shares the flat id")
	assert.Equal(t, original.RecipientId, params.SenderId, "sender and recipient are swapped")
	assert.Equal(t, original.RecipientEmail, params.SenderEmail)
	assert.Equal(t, original.SenderId, params.RecipientId)
	assert.Equal(t, original.SenderEmail, params.RecipientEmail)
	assert.Equal(t, "Yes, from July.", params.Content)
	assert.Equal(t, testNow, params.CreatedAt)
	assert.NotEqual(t, original.ExternalId, params.ExternalId, "reply gets its own id")
}

func TestReply_emptyContent(t *testing.T) {
	_, err := Reply(database.Message{}, "  <div> </div>", testNow)
	assert.ErrorIs(t, err, ErrEmptyContent)
}
