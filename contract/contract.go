//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"lovefindme/domain"
	"lovefindme/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink receives outbound events for one live connection.
// Consume must never block the caller: a slow client drops events rather
// than stalling delivery to everyone else.
type EventSink interface {
	Consume(ctx context.Context, e event.Outbound) error
}

// SessionID identifies one live connection. A session binds to exactly one
// user for its whole life.
type SessionID string

// IRegistry is the presence bookkeeping shared by the gateway and the router.
type IRegistry interface {
	Join(ctx context.Context, userID domain.UserID, sessionID SessionID, sink EventSink) error
	Leave(sessionID SessionID)
	Sinks(userID domain.UserID) []EventSink
	Roster() []string
}

// IRouter validates, persists and fans out messages, and mutates
// relationship state.
type IRouter interface {
	Send(ctx context.Context, sender, receiver domain.UserID, content string) (domain.Message, error)
	Block(actor, target domain.UserID) error
	Accept(actor, target domain.UserID) error
	Fetch(a, b domain.UserID) ([]domain.Message, error)
	DeleteConversation(a, b domain.UserID) error
	DeleteMessage(id domain.MessageID) error
}
