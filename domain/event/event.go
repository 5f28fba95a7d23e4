// Package event defines the wire events exchanged over a live connection.
// Inbound payloads are decoded into these tagged variants at the transport
// boundary; nothing past the gateway ever sees raw JSON.
package event

import (
	"lovefindme/domain"
	"time"
)

// Names of the events carried inside the wire envelope.
const (
	NameJoin           = "join"
	NameSendMessage    = "send_message"
	NameReceiveMessage = "receive_message"
	NameOnlineUsers    = "online_users"
	NameError          = "error"
)

// Inbound is a client-to-server event.
type Inbound interface {
	EventName() string
}

// Join binds the connection to a user identity.
type Join struct {
	UserID string `json:"userID" validate:"required,len=24,hexadecimal,lowercase"`
}

func (Join) EventName() string { return NameJoin }

// SendMessage asks for a 1:1 delivery.
type SendMessage struct {
	Sender   string `json:"sender" validate:"required,len=24,hexadecimal,lowercase"`
	Receiver string `json:"receiver" validate:"required,len=24,hexadecimal,lowercase"`
	Content  string `json:"content" validate:"required"`
}

func (SendMessage) EventName() string { return NameSendMessage }

// Outbound is a server-to-client event.
type Outbound interface {
	EventName() string
}

// MessageDelivered echoes a persisted message to the live sessions of the
// receiver and of the sender.
type MessageDelivered struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

func (MessageDelivered) EventName() string { return NameReceiveMessage }

// RosterUpdate carries the full roster of online display names. It is always
// recomputed and re-sent whole, never incrementally.
type RosterUpdate struct {
	Users []string `json:"users"`
}

func (RosterUpdate) EventName() string { return NameOnlineUsers }

// Failure is reported to the originating connection only, never broadcast.
type Failure struct {
	Message string `json:"message"`
}

func (Failure) EventName() string { return NameError }

// FromMessage builds the delivery event for a persisted record.
func FromMessage(m domain.Message) MessageDelivered {
	return MessageDelivered{
		ID:        string(m.ID),
		Sender:    string(m.Sender),
		Receiver:  string(m.Receiver),
		Content:   m.Content,
		Timestamp: m.CreatedAt,
	}
}
