package ws

import (
	"encoding/json"
	"time"

	"github.com/vedran77/feedline/internal/domain"
)

// Event types - Client → Server
const (
	EventTypePing = "ping"
)

// Event types - Server → Client
const (
	EventTypePostCreated = "post.created"
	EventTypePostLiked   = "post.liked"
	EventTypePong        = "pong"
	EventTypeError       = "error"
)

// Event is the envelope for every WebSocket message.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

type PostCreatedPayload struct {
	Post domain.Post `json:"post"`
}

type PostLikedPayload struct {
	PostID  int64   `json:"postId"`
	Likes   int     `json:"likes"`
	LikedBy []int64 `json:"likedBy"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewEvent(eventType string, payload any) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return &Event{
		Type:      eventType,
		Payload:   raw,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}
