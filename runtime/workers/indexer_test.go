package workers

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"lovefindme/domain"
	"lovefindme/search"

	"github.com/blugelabs/bluge"
	"github.com/stretchr/testify/require"
)

func TestIndexerWorker_Drains_Into_The_Index(t *testing.T) {
	req := require.New(t)
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)
	t.Cleanup(func() { _ = writer.Close() })

	index := search.NewIndex(writer, slog.Default())
	messages := make(chan domain.Message, 4)
	worker := NewIndexerWorker(slog.Default(), index, messages)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	alice := domain.NewUserID()
	bob := domain.NewUserID()
	messages <- domain.Message{
		ID:        "m1",
		Sender:    alice,
		Receiver:  bob,
		Content:   "searchable content",
		CreatedAt: time.Now().UTC(),
	}

	// The worker indexes asynchronously; poll until the document lands
	req.Eventually(func() bool {
		ids, err := index.Search(context.Background(), alice, bob, "searchable", 10)
		return err == nil && len(ids) == 1
	}, 2*time.Second, 20*time.Millisecond)

	// A closed channel ends the worker cleanly
	close(messages)
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Indexer should stop when its channel closes")
	}
}
