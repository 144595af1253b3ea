package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr, which slog skips.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// SessionID records the live connection id under "session_id".
func SessionID(id string) slog.Attr {
	return slog.String("session_id", id)
}

// Identity records the authenticated subject under "identity".
func Identity(identity string) slog.Attr {
	return slog.String("identity", identity)
}

// Room records a room tag under "room".
func Room(tag string) slog.Attr {
	return slog.String("room", tag)
}

// Channel records a broker channel under "channel".
func Channel(name string) slog.Attr {
	return slog.String("channel", name)
}

// BrokerState records a broker connection state under "broker_state".
func BrokerState(state string) slog.Attr {
	return slog.String("broker_state", state)
}

// MessageType records a protocol frame type under "message_type".
func MessageType(t string) slog.Attr {
	return slog.String("message_type", t)
}

// Recipients records how many sessions a frame was enqueued on.
func Recipients(n int) slog.Attr {
	return slog.Int("recipients", n)
}

func RetryCount(count int) slog.Attr {
	return slog.Int("retry_count", count)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Event(name string) slog.Attr {
	return slog.String("event", name)
}
