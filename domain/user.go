// Package domain contains core concepts of the messaging system.
// This file defines user identity and the relationship sets gating delivery.
package domain

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// UserID is an opaque 24-character lowercase hex identifier.
type UserID string

const userIDLength = 24

// Valid reports whether the id is well formed.
func (id UserID) Valid() bool {
	if len(id) != userIDLength {
		return false
	}
	for _, c := range id {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// NewUserID generates a new identifier: 4 bytes of unix time followed by
// 8 random bytes, hex encoded. The time prefix keeps ids roughly sortable
// by creation.
func NewUserID() UserID {
	var raw [12]byte
	binary.BigEndian.PutUint32(raw[:4], uint32(time.Now().Unix()))
	_, _ = rand.Read(raw[4:])
	return UserID(hex.EncodeToString(raw[:]))
}

// User is the directory record behind display-name resolution.
type User struct {
	ID           UserID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Relationship holds one user's blocked and accepted peer sets.
// A peer never belongs to both sets at once: adding it to one side
// removes it from the other.
type Relationship struct {
	Blocked  []UserID
	Accepted []UserID
}

func (r Relationship) HasBlocked(peer UserID) bool {
	return contains(r.Blocked, peer)
}

func (r Relationship) HasAccepted(peer UserID) bool {
	return contains(r.Accepted, peer)
}

func contains(ids []UserID, id UserID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func remove(ids []UserID, id UserID) []UserID {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

// AddBlocked puts the peer in the blocked set and evicts it from accepted.
// Idempotent.
func (r *Relationship) AddBlocked(peer UserID) {
	r.Accepted = remove(r.Accepted, peer)
	if !contains(r.Blocked, peer) {
		r.Blocked = append(r.Blocked, peer)
	}
}

// AddAccepted puts the peer in the accepted set and evicts it from blocked.
// Idempotent.
func (r *Relationship) AddAccepted(peer UserID) {
	r.Blocked = remove(r.Blocked, peer)
	if !contains(r.Accepted, peer) {
		r.Accepted = append(r.Accepted, peer)
	}
}
