// Package runtime owns the presence registry and the delivery router: the
// process-wide state that many connection goroutines touch concurrently.
package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"lovefindme/contract"
	"lovefindme/domain"
	"lovefindme/domain/event"
	"lovefindme/errors"
	"lovefindme/moderation"
	"lovefindme/observability"
	"lovefindme/repositories"
)

// Router gates every send on relationship state, persists through the ledger
// and fans the persisted record out to the live sessions of both ends.
// Push is best-effort: a persisted message whose receiver is offline is
// simply durable, there is no retry queue.
type Router struct {
	log        *slog.Logger
	users      repositories.IUserRepository
	messages   repositories.IMessageRepository
	registry   contract.IRegistry
	moderator  *moderation.Moderator
	index      chan<- domain.Message
	monitoring *observability.Monitoring
}

func NewRouter(log *slog.Logger, users repositories.IUserRepository,
	messages repositories.IMessageRepository, registry contract.IRegistry,
	moderator *moderation.Moderator, index chan<- domain.Message,
	monitoring *observability.Monitoring) *Router {
	return &Router{
		log:        log,
		users:      users,
		messages:   messages,
		registry:   registry,
		moderator:  moderator,
		index:      index,
		monitoring: monitoring,
	}
}

// Send validates, gates, persists and pushes one message.
// Errors surface to the sender only; nothing is broadcast.
func (r *Router) Send(ctx context.Context, sender, receiver domain.UserID, content string) (domain.Message, error) {
	if !sender.Valid() || !receiver.Valid() {
		return domain.Message{}, errors.ErrInvalidIdentity
	}

	blocked, err := r.blockedEitherWay(sender, receiver)
	if err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorageFailure, err)
	}
	if blocked {
		r.monitoring.IncrBlocked()
		return domain.Message{}, errors.ErrBlocked
	}

	if r.moderator != nil {
		content = r.censor(sender, content)
	}

	message, err := r.messages.Store(sender, receiver, content)
	if err != nil {
		r.monitoring.IncrFailed()
		return domain.Message{}, fmt.Errorf("%w: %v", errors.ErrStorageFailure, err)
	}

	// Push to the receiver's sessions and echo to the sender's own, so the
	// originating client sees the server-assigned record. Sinks never block.
	delivered := event.FromMessage(message)
	for _, sink := range r.registry.Sinks(receiver) {
		_ = sink.Consume(ctx, delivered)
	}
	for _, sink := range r.registry.Sinks(sender) {
		_ = sink.Consume(ctx, delivered)
	}

	r.monitoring.IncrDelivered()
	r.emitIndex(message)
	return message, nil
}

// Block adds target to the actor's blocked set, removing it from accepted.
func (r *Router) Block(actor, target domain.UserID) error {
	if err := validatePair(actor, target); err != nil {
		return err
	}
	return r.users.Block(actor, target)
}

// Accept adds target to the actor's accepted set, removing it from blocked.
func (r *Router) Accept(actor, target domain.UserID) error {
	if err := validatePair(actor, target); err != nil {
		return err
	}
	return r.users.Accept(actor, target)
}

// Fetch returns the conversation between a and b, both directions, oldest
// first. (A,B) and (B,A) resolve to the same set.
func (r *Router) Fetch(a, b domain.UserID) ([]domain.Message, error) {
	if !a.Valid() || !b.Valid() {
		return nil, errors.ErrInvalidIdentity
	}
	messages, err := r.messages.GetConversation(a, b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStorageFailure, err)
	}
	return messages, nil
}

func (r *Router) DeleteConversation(a, b domain.UserID) error {
	if !a.Valid() || !b.Valid() {
		return errors.ErrInvalidIdentity
	}
	if err := r.messages.DeleteConversation(a, b); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageFailure, err)
	}
	return nil
}

func (r *Router) DeleteMessage(id domain.MessageID) error {
	err := r.messages.DeleteMessage(id)
	if err == errors.ErrNotFound {
		return err
	}
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStorageFailure, err)
	}
	return nil
}

// blockedEitherWay reads both relationship records: a block in either
// direction suppresses delivery. Acceptance stays advisory and grants no
// enforcement power here.
func (r *Router) blockedEitherWay(sender, receiver domain.UserID) (bool, error) {
	senderRel, err := r.users.Relationships(sender)
	if err != nil {
		return false, err
	}
	if senderRel.HasBlocked(receiver) {
		return true, nil
	}
	receiverRel, err := r.users.Relationships(receiver)
	if err != nil {
		return false, err
	}
	return receiverRel.HasBlocked(sender), nil
}

func (r *Router) censor(sender domain.UserID, content string) string {
	sanitized, foundWords := r.moderator.Censor(content)
	if len(foundWords) > 0 {
		r.log.Warn("Message censored",
			"sender", sender,
			"words", len(foundWords),
			"lang", moderation.DetectLanguage(content))
	}
	return sanitized
}

// emitIndex hands the persisted record to the search indexer. Indexing is
// off the send path: a full buffer drops the event rather than delaying
// delivery.
func (r *Router) emitIndex(message domain.Message) {
	if r.index == nil {
		return
	}
	select {
	case r.index <- message:
	default:
		r.log.Debug("Index channel full, message not indexed", "id", message.ID)
	}
}

func validatePair(actor, target domain.UserID) error {
	if !actor.Valid() || !target.Valid() {
		return errors.ErrInvalidIdentity
	}
	if actor == target {
		return errors.ErrSelfReference
	}
	return nil
}
