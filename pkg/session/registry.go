package session

import (
	"slices"
	"sync"

	"github.com/google/uuid"
)

// ID identifies one live connection.
type ID string

func (id ID) String() string { return string(id) }

type entry struct {
	identity string
	rooms    map[string]struct{}
	outbox   *Outbox
}

// Registry owns every live session and the room index built over them.
// All methods are safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	sessions   map[ID]*entry
	rooms      map[string]map[ID]struct{}
	outboxSize int
	newID      func() ID
}

// Option configures a Registry.
type Option func(*Registry)

// WithOutboxSize sets the per-session outbound buffer size. Values below 1 are ignored.
func WithOutboxSize(size int) Option {
	return func(r *Registry) {
		if size > 0 {
			r.outboxSize = size
		}
	}
}

// WithIDGenerator replaces the uuid based id generator. Nil is ignored.
func WithIDGenerator(fn func() ID) Option {
	return func(r *Registry) {
		if fn != nil {
			r.newID = fn
		}
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions:   make(map[ID]*entry),
		rooms:      make(map[string]map[ID]struct{}),
		outboxSize: 256,
		newID:      func() ID { return ID(uuid.NewString()) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register creates an anonymous session with no rooms.
func (r *Registry) Register() ID {
	e := &entry{
		rooms:  make(map[string]struct{}),
		outbox: newOutbox(r.outboxSize),
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for {
		if _, taken := r.sessions[id]; !taken {
			break
		}
		id = r.newID()
	}
	r.sessions[id] = e
	return id
}

// SetIdentity records the authenticated subject. Setting it again overwrites the previous value.
func (r *Registry) SetIdentity(id ID, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	e.identity = identity
	return nil
}

// Identity returns the session's authenticated subject, empty while anonymous.
func (r *Registry) Identity(id ID) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[id]
	if !ok {
		return "", ErrUnknownSession
	}
	return e.identity, nil
}

// Join adds the session to room. Joining a room twice is a no-op.
func (r *Registry) Join(id ID, room string) error {
	if room == "" {
		return ErrEmptyRoom
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return ErrUnknownSession
	}

	e.rooms[room] = struct{}{}
	members, ok := r.rooms[room]
	if !ok {
		members = make(map[ID]struct{})
		r.rooms[room] = members
	}
	members[id] = struct{}{}
	return nil
}

// Leave removes the session from room. Leaving a room the session is not in is a no-op.
func (r *Registry) Leave(id ID, room string) error {
	if room == "" {
		return ErrEmptyRoom
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.sessions[id]
	if !ok {
		return ErrUnknownSession
	}

	delete(e.rooms, room)
	r.unindex(id, room)
	return nil
}

// RemoveAll drops the session from every room, forgets it and closes its outbox.
// It is idempotent and safe for sessions that never authenticated.
func (r *Registry) RemoveAll(id ID) {
	r.mu.Lock()
	e, ok := r.sessions[id]
	if ok {
		for room := range e.rooms {
			r.unindex(id, room)
		}
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	if ok {
		e.outbox.close()
	}
}

// MembersOf returns a point-in-time copy of the sessions in room.
func (r *Registry) MembersOf(room string) []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[room]
	if len(members) == 0 {
		return nil
	}

	ids := make([]ID, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

// Rooms returns the sorted room tags the session belongs to.
func (r *Registry) Rooms(id ID) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}

	rooms := make([]string, 0, len(e.rooms))
	for room := range e.rooms {
		rooms = append(rooms, room)
	}
	slices.Sort(rooms)
	return rooms, nil
}

// Outbox returns the outbound queue of a live session.
func (r *Registry) Outbox(id ID) (*Outbox, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.sessions[id]
	if !ok {
		return nil, ErrUnknownSession
	}
	return e.outbox, nil
}

// IDs returns a point-in-time copy of the live session ids.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// RoomCount returns the number of non-empty rooms.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// unindex must be called with r.mu held for writing.
func (r *Registry) unindex(id ID, room string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, id)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}
