package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind enumerates the notification event kinds.
type Kind int

const (
	KindNewPost Kind = iota + 1
	KindNewFollower
	KindPostLiked
)

// Broker channel names. Publisher and subscriber sides share them verbatim.
const (
	ChannelNewPost    = "new_post"
	ChannelUserFollow = "user_follow"
	ChannelPostLike   = "post_like"
)

// Channels lists every channel a relay subscribes to, in a stable order.
func Channels() []string {
	return []string{ChannelNewPost, ChannelUserFollow, ChannelPostLike}
}

// Channel returns the broker channel that carries events of this kind.
func (k Kind) Channel() string {
	switch k {
	case KindNewPost:
		return ChannelNewPost
	case KindNewFollower:
		return ChannelUserFollow
	case KindPostLiked:
		return ChannelPostLike
	default:
		return ""
	}
}

func (k Kind) String() string {
	if ch := k.Channel(); ch != "" {
		return ch
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindOf maps a broker channel name back to its event kind.
func KindOf(channel string) (Kind, bool) {
	switch channel {
	case ChannelNewPost:
		return KindNewPost, true
	case ChannelUserFollow:
		return KindNewFollower, true
	case ChannelPostLike:
		return KindPostLiked, true
	default:
		return 0, false
	}
}

// Event is an immutable notification. The set of implementations is closed.
type Event interface {
	Kind() Kind
	validate() error
}

// NewPost announces a post to the author's followers.
type NewPost struct {
	PostID             string          `json:"postId"`
	AuthorIdentity     string          `json:"authorIdentity"`
	FollowerIdentities []string        `json:"followerIdentities"`
	Post               json.RawMessage `json:"post,omitempty"`
}

func (NewPost) Kind() Kind { return KindNewPost }

func (e NewPost) validate() error {
	switch {
	case e.PostID == "":
		return fieldError("postId")
	case e.AuthorIdentity == "":
		return fieldError("authorIdentity")
	}
	return nil
}

// NewFollower tells a user that someone started following them.
type NewFollower struct {
	FollowerIdentity  string `json:"followerIdentity"`
	FollowingIdentity string `json:"followingIdentity"`
}

func (NewFollower) Kind() Kind { return KindNewFollower }

func (e NewFollower) validate() error {
	switch {
	case e.FollowerIdentity == "":
		return fieldError("followerIdentity")
	case e.FollowingIdentity == "":
		return fieldError("followingIdentity")
	}
	return nil
}

// PostLiked tells a post author that their post was liked.
type PostLiked struct {
	PostID             string `json:"postId"`
	LikerIdentity      string `json:"likerIdentity"`
	PostAuthorIdentity string `json:"postAuthorIdentity"`
}

func (PostLiked) Kind() Kind { return KindPostLiked }

func (e PostLiked) validate() error {
	switch {
	case e.PostID == "":
		return fieldError("postId")
	case e.LikerIdentity == "":
		return fieldError("likerIdentity")
	case e.PostAuthorIdentity == "":
		return fieldError("postAuthorIdentity")
	}
	return nil
}

// Validate reports the first routing field ev is missing.
func Validate(ev Event) error {
	if ev == nil {
		return errors.Join(ErrMalformedPayload, errors.New("nil event"))
	}
	return ev.validate()
}

// Encode validates ev and returns the channel and payload to publish.
func Encode(ev Event) (string, []byte, error) {
	if err := Validate(ev); err != nil {
		return "", nil, err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return "", nil, errors.Join(ErrMalformedPayload, err)
	}
	return ev.Kind().Channel(), data, nil
}

// Decode turns a raw channel message into a typed event.
// Unknown channels, invalid JSON and events missing routing fields are rejected.
func Decode(channel string, payload []byte) (Event, error) {
	kind, ok := KindOf(channel)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChannel, channel)
	}

	var (
		ev  Event
		err error
	)
	switch kind {
	case KindNewPost:
		var e NewPost
		err = json.Unmarshal(payload, &e)
		ev = e
	case KindNewFollower:
		var e NewFollower
		err = json.Unmarshal(payload, &e)
		ev = e
	case KindPostLiked:
		var e PostLiked
		err = json.Unmarshal(payload, &e)
		ev = e
	}
	if err != nil {
		return nil, errors.Join(ErrMalformedPayload, err)
	}
	if err := ev.validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

func fieldError(name string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, name)
}
