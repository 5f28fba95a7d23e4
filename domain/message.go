// Package domain contains core concepts of the messaging system.
// This file defines Message records and the unordered-pair key.
// Messages are immutable once persisted; the core creates and reads them,
// never mutates them.
package domain

import (
	"time"
)

// MessageID is ledger-assigned and opaque. Ids are monotonic: lexicographic
// order of ids follows insertion order.
type MessageID string

// Message is one durable record of a 1:1 exchange.
type Message struct {
	ID        MessageID
	Sender    UserID
	Receiver  UserID
	Content   string
	CreatedAt time.Time
}

// PairKey returns the canonical key of an unordered user pair, so that
// (A,B) and (B,A) resolve to the same conversation.
func PairKey(a, b UserID) string {
	if a > b {
		a, b = b, a
	}
	return string(a) + ":" + string(b)
}
