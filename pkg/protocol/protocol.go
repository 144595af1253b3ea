// Package protocol defines the JSON frames exchanged with session clients.
//
// Every frame is an envelope {"type": ..., "payload": {...}}. Client frames are
// authenticate and join_feed; everything else flows server to client.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType names a frame.
type MessageType string

// Client to server.
const (
	TypeAuthenticate MessageType = "authenticate"
	TypeJoinFeed     MessageType = "join_feed"
)

// Server to client.
const (
	TypeAuthenticated MessageType = "authenticated"
	TypeAuthError     MessageType = "auth_error"
	TypeFeedJoined    MessageType = "feed_joined"
	TypeNewPost       MessageType = "new_post"
	TypeNewFollower   MessageType = "new_follower"
	TypePostLiked     MessageType = "post_liked"
	TypeError         MessageType = "error"
)

// StatusSuccess is the status value of successful acknowledgements.
const StatusSuccess = "success"

var (
	ErrMalformedMessage   = errors.New("protocol: malformed message")
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
)

// Envelope is the outer frame.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// IdentityPayload is sent with authenticate and join_feed.
type IdentityPayload struct {
	Identity string `json:"identity"`
}

type AuthenticatedPayload struct {
	Status       string `json:"status"`
	BrokerUsable bool   `json:"brokerUsable"`
}

type AuthErrorPayload struct {
	Message string `json:"message"`
}

type FeedJoinedPayload struct {
	Status string `json:"status"`
}

type NewPostPayload struct {
	Type      MessageType     `json:"type"`
	Post      json.RawMessage `json:"post"`
	Author    string          `json:"author"`
	Timestamp string          `json:"timestamp"`
}

type NewFollowerPayload struct {
	Type      MessageType `json:"type"`
	Follower  string      `json:"follower"`
	Timestamp string      `json:"timestamp"`
}

type PostLikedPayload struct {
	Type      MessageType `json:"type"`
	PostID    string      `json:"postId"`
	Liker     string      `json:"liker"`
	Timestamp string      `json:"timestamp"`
}

// ErrorPayload answers frames the server could not understand.
type ErrorPayload struct {
	Message string `json:"message"`
}

// Encode builds a frame. A nil payload produces an envelope without payload.
func Encode(t MessageType, payload any) ([]byte, error) {
	env := Envelope{Type: t}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode %s payload: %w", t, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// Decode parses a client frame and checks that its type is one a client may send.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, errors.Join(ErrMalformedMessage, err)
	}
	switch env.Type {
	case TypeAuthenticate, TypeJoinFeed:
		return env, nil
	case "":
		return Envelope{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	default:
		return Envelope{}, fmt.Errorf("%w: %q", ErrUnknownMessageType, env.Type)
	}
}

// DecodePayload unmarshals the envelope payload into T. A missing payload yields the zero value.
func DecodePayload[T any](env Envelope) (T, error) {
	var v T
	if len(env.Payload) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(env.Payload, &v); err != nil {
		return v, errors.Join(ErrMalformedMessage, err)
	}
	return v, nil
}
