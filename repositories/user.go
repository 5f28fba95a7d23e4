//go:generate go run go.uber.org/mock/mockgen -source=user.go -destination=../mocks/mock_user_repository.go -package=mocks
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lovefindme/domain"
	"lovefindme/errors"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	CreateUser(username, email, hashedPassword string) (domain.UserID, error)
	GetUserByEmail(email string) (domain.User, error)
	GetUserByID(id domain.UserID) (domain.User, error)
	ListUsers() ([]domain.User, error)
	Relationships(id domain.UserID) (domain.Relationship, error)
	Block(actor, target domain.UserID) error
	Accept(actor, target domain.UserID) error
}

// UserRepository stores directory records and the per-user relationship sets.
// Keys:
//
//	user:id:{id}       -> user record
//	user:email:{email} -> id (unique-email guard + login lookup)
//	user:name:{name}   -> id (unique-username guard)
//	rel:{id}           -> blocked/accepted sets
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

type diskUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
	CreatedAt    int64  `json:"created_at"`
}

type diskRelationship struct {
	Blocked  []string `json:"blocked"`
	Accepted []string `json:"accepted"`
}

func userKey(id domain.UserID) []byte { return []byte("user:id:" + string(id)) }
func emailKey(email string) []byte    { return []byte("user:email:" + email) }
func usernameKey(name string) []byte  { return []byte("user:name:" + name) }
func relKey(id domain.UserID) []byte  { return []byte("rel:" + string(id)) }

// CreateUser persists a new user and returns the generated id.
// Email and username are both unique, as in the original directory.
func (u *UserRepository) CreateUser(username, email, hashedPassword string) (domain.UserID, error) {
	newID := domain.NewUserID()
	record := diskUser{
		ID:           string(newID),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    time.Now().Unix(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal failed: %w", err)
	}

	err = u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(emailKey(email)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if _, err := txn.Get(usernameKey(username)); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(userKey(newID), data); err != nil {
			return err
		}
		if err := txn.Set(emailKey(email), []byte(newID)); err != nil {
			return err
		}
		return txn.Set(usernameKey(username), []byte(newID))
	})
	if err != nil {
		return "", err
	}
	return newID, nil
}

func (u *UserRepository) GetUserByEmail(email string) (domain.User, error) {
	var id []byte
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(emailKey(email))
		if err != nil {
			return err
		}
		id, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.User{}, errors.ErrNotFound
		}
		return domain.User{}, err
	}
	return u.GetUserByID(domain.UserID(id))
}

func (u *UserRepository) GetUserByID(id domain.UserID) (domain.User, error) {
	var record diskUser
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return domain.User{}, errors.ErrNotFound
		}
		return domain.User{}, err
	}
	return toUser(record), nil
}

// DisplayName resolves an id to the username shown in the roster.
func (u *UserRepository) DisplayName(_ context.Context, id domain.UserID) (string, error) {
	user, err := u.GetUserByID(id)
	if err != nil {
		return "", err
	}
	return user.Username, nil
}

// ListUsers returns every directory record, without password hashes.
func (u *UserRepository) ListUsers() ([]domain.User, error) {
	var users []domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("user:id:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record diskUser
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				record.PasswordHash = ""
				users = append(users, toUser(record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return users, err
}

// Relationships reads the blocked/accepted sets of a user. A user with no
// record yet has empty sets, which is not an error.
func (u *UserRepository) Relationships(id domain.UserID) (domain.Relationship, error) {
	var record diskRelationship
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(relKey(id))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return domain.Relationship{}, err
	}
	return toRelationship(record), nil
}

// Block adds target to actor's blocked set and evicts it from accepted.
// Idempotent. The actor must exist; the mutation happens inside a single
// transaction so concurrent block/accept calls serialize per record.
func (u *UserRepository) Block(actor, target domain.UserID) error {
	return u.mutateRelationship(actor, func(rel *domain.Relationship) {
		rel.AddBlocked(target)
	})
}

// Accept is the mirror of Block: target moves to the accepted set.
func (u *UserRepository) Accept(actor, target domain.UserID) error {
	return u.mutateRelationship(actor, func(rel *domain.Relationship) {
		rel.AddAccepted(target)
	})
}

func (u *UserRepository) mutateRelationship(actor domain.UserID, mutate func(*domain.Relationship)) error {
	return u.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(userKey(actor)); err != nil {
			if err == badger.ErrKeyNotFound {
				return errors.ErrNotFound
			}
			return err
		}

		var record diskRelationship
		item, err := txn.Get(relKey(actor))
		if err == nil {
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			})
			if err != nil {
				return err
			}
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		rel := toRelationship(record)
		mutate(&rel)

		data, err := json.Marshal(fromRelationship(rel))
		if err != nil {
			return err
		}
		return txn.Set(relKey(actor), data)
	})
}

func toUser(record diskUser) domain.User {
	return domain.User{
		ID:           domain.UserID(record.ID),
		Username:     record.Username,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		CreatedAt:    time.Unix(record.CreatedAt, 0).UTC(),
	}
}

func toRelationship(record diskRelationship) domain.Relationship {
	rel := domain.Relationship{}
	for _, id := range record.Blocked {
		rel.Blocked = append(rel.Blocked, domain.UserID(id))
	}
	for _, id := range record.Accepted {
		rel.Accepted = append(rel.Accepted, domain.UserID(id))
	}
	return rel
}

func fromRelationship(rel domain.Relationship) diskRelationship {
	record := diskRelationship{Blocked: []string{}, Accepted: []string{}}
	for _, id := range rel.Blocked {
		record.Blocked = append(record.Blocked, string(id))
	}
	for _, id := range rel.Accepted {
		record.Accepted = append(record.Accepted, string(id))
	}
	return record
}
