// Package multicast delivers server frames to every session in a room.
//
// Deliver encodes the frame once, takes a membership snapshot from the
// session registry and enqueues the frame on each member's outbox. Members
// that disconnected after the snapshot are skipped; members whose outbox is
// full lose the frame. Neither case is an error.
package multicast
