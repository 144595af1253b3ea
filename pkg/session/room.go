package session

const (
	userRoomPrefix = "user:"
	feedRoomPrefix = "feed:"
)

// UserRoom is the personal room joined on authentication.
func UserRoom(identity string) string {
	return userRoomPrefix + identity
}

// FeedRoom is the room that receives new posts from accounts the identity follows.
func FeedRoom(identity string) string {
	return feedRoomPrefix + identity
}
