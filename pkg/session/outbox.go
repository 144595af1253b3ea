package session

import "sync"

// Outbox is a session's outbound frame queue.
// Enqueue never blocks: a full or closed outbox drops the frame.
type Outbox struct {
	ch     chan []byte
	closed bool
	mu     sync.RWMutex
}

func newOutbox(size int) *Outbox {
	return &Outbox{ch: make(chan []byte, max(size, 1))}
}

// Frames returns the channel drained by the transport. It is closed when the session is removed.
func (o *Outbox) Frames() <-chan []byte {
	return o.ch
}

// Enqueue reports whether the frame was accepted.
func (o *Outbox) Enqueue(frame []byte) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return false
	}

	select {
	case o.ch <- frame:
		return true
	default:
		return false
	}
}

// Len returns the number of frames waiting to be written.
func (o *Outbox) Len() int {
	return len(o.ch)
}

// Closed reports whether the outbox stopped accepting frames.
func (o *Outbox) Closed() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.closed
}

func (o *Outbox) close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		close(o.ch)
		o.closed = true
	}
}
