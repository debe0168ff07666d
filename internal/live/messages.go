package live

import (
	"net/http"
	"time"

	"github.com/flatfinder/flat-finder/internal/types"
)

// Feeds a client can subscribe to. Subscriptions are delivered as wholesale
// snapshots: every change re-sends the full feed rather than a delta.
const (
	FeedInbox = "inbox"
	FeedSent  = "sent"
)

type BaseMessage struct {
	Id        int       `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClientMessage is the union of requests a client can send. Exactly one of
// the pointer fields is set.
type ClientMessage struct {
	BaseMessage
	Subscribe *Subscribe `json:"subscribe,omitempty"`
	Publish   *Publish   `json:"publish,omitempty"`
	Read      *Read      `json:"read,omitempty"`
	UserId    int        `json:"-"`
	client    *Client    `json:"-"`
}

// Subscribe declares the full set of feeds the client wants pushed. It
// replaces any previous subscription.
type Subscribe struct {
	Feeds []string `json:"feeds"`
}

// Publish sends a message about a flat to its owner.
type Publish struct {
	FlatId  string `json:"flat_id"`
	Content string `json:"content"`
}

// Read marks a received message as read.
type Read struct {
	MessageId string `json:"message_id"`
}

type ServerMessage struct {
	BaseMessage
	Response *Response `json:"response,omitempty"`
	Snapshot *Snapshot `json:"snapshot,omitempty"`
}

type Response struct {
	ResponseCode int            `json:"response_code"`
	Error        string         `json:"error,omitempty"`
	Data         map[string]any `json:"data,omitempty"`
}

// Snapshot carries the complete current state of one feed. Unread is only
// meaningful on inbox snapshots.
type Snapshot struct {
	Feed     string          `json:"feed"`
	Messages []types.Message `json:"messages"`
	Unread   int             `json:"unread"`
}

func NoErrOK(id int, data map[string]any) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: http.StatusOK,
			Data:         data,
		},
	}
}

func errResponse(id, code int, errMsg string) *ServerMessage {
	return &ServerMessage{
		BaseMessage: BaseMessage{
			Id:        id,
			Timestamp: Now(),
		},
		Response: &Response{
			ResponseCode: code,
			Error:        errMsg,
		},
	}
}

func ErrFlatNotFound(id int) *ServerMessage {
	return errResponse(id, http.StatusNotFound, "flat not found")
}

func ErrMessageNotFound(id int) *ServerMessage {
	return errResponse(id, http.StatusNotFound, "message not found")
}

func ErrPermissionDenied(id int) *ServerMessage {
	return errResponse(id, http.StatusForbidden, "permission denied")
}

func ErrUnknownFeed(id int, feed string) *ServerMessage {
	return errResponse(id, http.StatusBadRequest, "unknown feed: "+feed)
}

func ErrEmptyMessage(id int) *ServerMessage {
	return errResponse(id, http.StatusBadRequest, "message content cannot be empty")
}

func ErrInternalError(id int) *ServerMessage {
	return errResponse(id, http.StatusInternalServerError, "internal server error")
}

func ErrServiceUnavailable(id int) *ServerMessage {
	return errResponse(id, http.StatusServiceUnavailable, "service unavailable")
}

func ErrInvalidMessage(id int) *ServerMessage {
	msg := errResponse(0, http.StatusBadRequest, "invalid message format")
	if id > 0 {
		msg.Id = id
	}
	return msg
}

func Now() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}
