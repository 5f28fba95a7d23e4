//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"lovefindme/domain"
	"lovefindme/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IMessageRepository interface {
	Store(sender, receiver domain.UserID, content string) (domain.Message, error)
	GetConversation(a, b domain.UserID) ([]domain.Message, error)
	DeleteConversation(a, b domain.UserID) error
	DeleteMessage(id domain.MessageID) error
}

// MessageRepository is the durable, append-only ledger of 1:1 messages.
type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) MessageRepository {
	return MessageRepository{db: db, log: log}
}

// diskMessage is the on-disk representation of a message record.
type diskMessage struct {
	ID       string `json:"id"`
	Sender   string `json:"sender"`
	Receiver string `json:"receiver"`
	Content  string `json:"content"`
	At       int64  `json:"at"`
}

const (
	msgPrefix = "msg:"
	refPrefix = "msgref:"
)

// Store persists a message and assigns its id.
// The primary key is "msg:{pairKey}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
//
// The public id "{timestamp_padded}-{uuid}" inherits that ordering, and a
// secondary "msgref:{id}" key maps it back to the primary key so a record can
// be deleted knowing only its id.
func (m MessageRepository) Store(sender, receiver domain.UserID, content string) (domain.Message, error) {
	now := time.Now().UTC()
	id := fmt.Sprintf("%019d-%s", now.UnixNano(), uuid.NewString())

	message := domain.Message{
		ID:        domain.MessageID(id),
		Sender:    sender,
		Receiver:  receiver,
		Content:   content,
		CreatedAt: now,
	}

	key := primaryKey(sender, receiver, id)
	bytes, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}

	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, bytes); err != nil {
			return err
		}
		return txn.Set([]byte(refPrefix+id), key)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// GetConversation retrieves both directions of the pair using a prefix scan.
// Thanks to the padded timestamp in the key, messages come out sorted by time.
func (m MessageRepository) GetConversation(a, b domain.UserID) ([]domain.Message, error) {
	var byteMessages [][]byte
	prefix := []byte(msgPrefix + domain.PairKey(a, b) + ":")

	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				byteMessages = append(byteMessages, append([]byte(nil), value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	for _, raw := range byteMessages {
		var dm diskMessage
		if err = json.Unmarshal(raw, &dm); err != nil {
			return nil, err
		}
		messages = append(messages, toMessage(dm))
	}
	return messages, nil
}

// DeleteConversation removes every record of the pair, in both directions,
// along with the id references. Irreversible.
func (m MessageRepository) DeleteConversation(a, b domain.UserID) error {
	prefix := []byte(msgPrefix + domain.PairKey(a, b) + ":")

	var primaryKeys [][]byte
	var ids []string
	err := m.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().KeyCopy(nil)
			primaryKeys = append(primaryKeys, key)
			ids = append(ids, idFromPrimaryKey(key, prefix))
		}
		return nil
	})
	if err != nil {
		return err
	}

	return m.db.Update(func(txn *badger.Txn) error {
		for i, key := range primaryKeys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			if err := txn.Delete([]byte(refPrefix + ids[i])); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteMessage removes a single record by id. Irreversible.
func (m MessageRepository) DeleteMessage(id domain.MessageID) error {
	return m.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(refPrefix + string(id)))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrNotFound
			}
			return err
		}
		primary, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := txn.Delete(primary); err != nil {
			return err
		}
		return txn.Delete([]byte(refPrefix + string(id)))
	})
}

func primaryKey(sender, receiver domain.UserID, id string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", msgPrefix, domain.PairKey(sender, receiver), id))
}

// idFromPrimaryKey recovers the public id, which is the key part after the
// pair prefix.
func idFromPrimaryKey(key, prefix []byte) string {
	return string(key[len(prefix):])
}

func fromMessage(message domain.Message) diskMessage {
	return diskMessage{
		ID:       string(message.ID),
		Sender:   string(message.Sender),
		Receiver: string(message.Receiver),
		Content:  message.Content,
		At:       message.CreatedAt.UnixNano(),
	}
}

func toMessage(dm diskMessage) domain.Message {
	return domain.Message{
		ID:        domain.MessageID(dm.ID),
		Sender:    domain.UserID(dm.Sender),
		Receiver:  domain.UserID(dm.Receiver),
		Content:   dm.Content,
		CreatedAt: time.Unix(0, dm.At).UTC(),
	}
}

// Messages returns every stored record, oldest first per pair. Used by the
// inspect CLI, not by the delivery path.
func (m MessageRepository) Messages() ([]domain.Message, error) {
	var messages []domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(msgPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(value []byte) error {
				var dm diskMessage
				if err := json.Unmarshal(value, &dm); err != nil {
					return err
				}
				messages = append(messages, toMessage(dm))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return messages, err
}
