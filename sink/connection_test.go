package sink

import (
	"context"
	"testing"

	"lovefindme/domain/event"

	"github.com/stretchr/testify/require"
)

func TestConnection_Consume_Buffers(t *testing.T) {
	req := require.New(t)
	conn := NewConnection(2)

	req.NoError(conn.Consume(context.Background(), event.Failure{Message: "one"}))
	req.NoError(conn.Consume(context.Background(), event.Failure{Message: "two"}))

	req.Equal(event.Failure{Message: "one"}, <-conn.Events)
	req.Equal(event.Failure{Message: "two"}, <-conn.Events)
}

func TestConnection_Consume_Never_Blocks_When_Full(t *testing.T) {
	req := require.New(t)
	conn := NewConnection(1)

	req.NoError(conn.Consume(context.Background(), event.Failure{Message: "kept"}))

	// A full buffer drops silently rather than stalling the caller
	req.NoError(conn.Consume(context.Background(), event.Failure{Message: "dropped"}))
	req.Len(conn.Events, 1)
	req.Equal(event.Failure{Message: "kept"}, <-conn.Events)
}

func TestConnection_Consume_Honors_Cancellation(t *testing.T) {
	req := require.New(t)
	conn := NewConnection(1)
	req.NoError(conn.Consume(context.Background(), event.Failure{Message: "kept"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := conn.Consume(ctx, event.Failure{Message: "late"})
	req.ErrorIs(err, context.Canceled)
}
