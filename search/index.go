// Package search maintains a full-text index of persisted messages so a
// conversation can be searched by content. Indexing is best-effort and runs
// off the delivery path.
package search

import (
	"context"
	"log/slog"

	"lovefindme/domain"

	"github.com/blugelabs/bluge"
)

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewIndex(writer *bluge.Writer, log *slog.Logger) *Index {
	return &Index{writer: writer, log: log}
}

// Add upserts one message document. The pair key is stored as a keyword so a
// search is always scoped to a single conversation.
func (i *Index) Add(message domain.Message) error {
	doc := bluge.NewDocument(string(message.ID)).
		AddField(bluge.NewKeywordField("pair", domain.PairKey(message.Sender, message.Receiver))).
		AddField(bluge.NewKeywordField("sender", string(message.Sender))).
		AddField(bluge.NewTextField("content", message.Content)).
		AddField(bluge.NewDateTimeField("at", message.CreatedAt))
	return i.writer.Update(doc.ID(), doc)
}

// Search returns the ids of messages in the (a,b) conversation matching the
// query terms, most relevant first.
func (i *Index) Search(ctx context.Context, a, b domain.UserID, terms string, limit int) ([]domain.MessageID, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = reader.Close()
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(domain.PairKey(a, b)).SetField("pair")).
		AddMust(bluge.NewMatchQuery(terms).SetField("content"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var ids []domain.MessageID
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, domain.MessageID(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}
