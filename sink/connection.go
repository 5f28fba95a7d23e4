// Package sink bridges the router/registry push path and one live websocket
// connection.
package sink

import (
	"context"

	"lovefindme/domain/event"
)

// Connection buffers outbound events for a single websocket. The gateway's
// write pump drains Events; producers never block on it.
type Connection struct {
	Events chan event.Outbound
}

func NewConnection(bufferSize int) *Connection {
	return &Connection{Events: make(chan event.Outbound, bufferSize)}
}

// Consume is called by the registry broadcast and the router push.
// When the buffer is full the event is dropped: push is best-effort and a
// slow client must not stall delivery to anyone else. The roster self-heals
// on the next join/leave, and a dropped message stays durable in the ledger.
func (s *Connection) Consume(ctx context.Context, e event.Outbound) error {
	select {
	case s.Events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
