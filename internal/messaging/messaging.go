// Package messaging composes message records for both the HTTP handlers and
// the live WebSocket path, so the two share one rule set: content is
// sanitized to plain text, external ids are UUIDs, and the recipient email
// is always populated at creation time.
package messaging

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/flatfinder/flat-finder/internal/database"
	"github.com/flatfinder/flat-finder/internal/types"
)

var (
	ErrEmptyContent = errors.New("message content cannot be empty")

	policy = bluemonday.StrictPolicy()
)

// Clean strips all markup from user-supplied message content.
func Clean(content string) string {
	return policy.Sanitize(content)
}

// Compose builds the creation params for a message from sender to recipient
// about a flat. The recipient email is denormalized onto the record so the
// inbox can render it without a join.
func Compose(flatId int, sender types.Session, recipient database.User, content string, now time.Time) (database.CreateMessageParams, error) {
	content = Clean(content)
	if content == "" {
		return database.CreateMessageParams{}, ErrEmptyContent
	}

	return database.CreateMessageParams{
		ExternalId:     uuid.NewString(),
		FlatId:         flatId,
		SenderId:       sender.UserId,
		SenderEmail:    sender.Email,
		RecipientId:    recipient.Id,
		RecipientEmail: recipient.Email,
		Content:        content,
		CreatedAt:      now,
	}, nil
}

// Reply builds the creation params for a reply: sender and recipient are
// swapped relative to the original, the flat id is shared, and the read flag
// starts unset. No other link to the original is kept.
func Reply(original database.Message, content string, now time.Time) (database.CreateMessageParams, error) {
	content = Clean(content)
	if content == "" {
		return database.CreateMessageParams{}, ErrEmptyContent
	}

	return database.CreateMessageParams{
		ExternalId:     uuid.NewString(),
		FlatId:         original.FlatId,
		SenderId:       original.RecipientId,
		SenderEmail:    original.RecipientEmail,
		RecipientId:    original.SenderId,
		RecipientEmail: original.SenderEmail,
		Content:        content,
		CreatedAt:      now,
	}, nil
}

func ToApiMessage(m database.Message) types.Message {
	return types.Message{
		Id:             m.Id,
		ExternalId:     m.ExternalId,
		FlatId:         m.FlatId,
		SenderId:       m.SenderId,
		SenderEmail:    m.SenderEmail,
		RecipientId:    m.RecipientId,
		RecipientEmail: m.RecipientEmail,
		Content:        m.Content,
		Read:           m.Read,
		CreatedAt:      m.CreatedAt,
	}
}

func ToApiMessages(dbMessages []database.Message) []types.Message {
	messages := make([]types.Message, len(dbMessages))
	for i, m := range dbMessages {
		messages[i] = ToApiMessage(m)
	}

	return messages
}
