package workers

import (
	"context"
	"log/slog"

	"lovefindme/domain"
	"lovefindme/search"
)

// IndexerWorker drains persisted messages from the router and feeds the
// search index. Losing an index entry only degrades search, never history,
// so errors are logged and skipped.
type IndexerWorker struct {
	log      *slog.Logger
	index    *search.Index
	messages chan domain.Message
}

func NewIndexerWorker(log *slog.Logger, index *search.Index, messages chan domain.Message) *IndexerWorker {
	return &IndexerWorker{log: log, index: index, messages: messages}
}

func (w *IndexerWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping indexer worker")
			return ctx.Err()
		case message, ok := <-w.messages:
			if !ok {
				return nil
			}
			if err := w.index.Add(message); err != nil {
				w.log.Error("Failed to index message", "id", message.ID, "error", err)
			}
		}
	}
}
