// Package session tracks live client sessions and their room memberships.
//
// The Registry is the only owner of session state. It keeps two indexes that
// always agree with each other: session id to the set of rooms it joined, and
// room tag to the set of session ids in it. Every mutation (Join, Leave,
// RemoveAll) updates both under one lock, so a concurrent MembersOf never
// observes a half-applied change. MembersOf returns a copy; callers may iterate
// it while sessions come and go.
//
// Each session owns an Outbox, a buffered queue of encoded frames drained by
// the transport's write loop. RemoveAll closes the outbox, and enqueueing on a
// closed outbox is a silent no-op, which makes "send to a session that just
// disconnected" harmless.
//
// Basic usage:
//
//	reg := session.NewRegistry()
//	id := reg.Register()
//	_ = reg.SetIdentity(id, "0xabc")
//	_ = reg.Join(id, session.UserRoom("0xabc"))
//
//	for _, member := range reg.MembersOf(session.UserRoom("0xabc")) {
//	    if box, err := reg.Outbox(member); err == nil {
//	        box.Enqueue(frame)
//	    }
//	}
//
//	reg.RemoveAll(id) // on disconnect
package session
