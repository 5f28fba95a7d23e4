package runtime

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"lovefindme/contract"
	"lovefindme/domain"
	"lovefindme/domain/event"
)

// NameResolver turns a user id into the display name shown in the roster.
// Implemented by the user repository.
type NameResolver interface {
	DisplayName(ctx context.Context, id domain.UserID) (string, error)
}

// Registry is the presence bookkeeping: which users are reachable and
// through which live connections. A user may hold several sessions at once;
// the roster lists a user iff its session set is non-empty.
//
// All mutations and the broadcast snapshot are serialized behind one RWMutex.
// Pushes happen outside the lock through non-blocking sinks, so a slow client
// never stalls a join or leave.
type Registry struct {
	mu       sync.RWMutex
	log      *slog.Logger
	resolver NameResolver

	sessions map[contract.SessionID]domain.UserID
	members  map[domain.UserID]map[contract.SessionID]contract.EventSink
	names    map[domain.UserID]string
}

func NewRegistry(log *slog.Logger, resolver NameResolver) *Registry {
	return &Registry{
		log:      log,
		resolver: resolver,
		sessions: make(map[contract.SessionID]domain.UserID),
		members:  make(map[domain.UserID]map[contract.SessionID]contract.EventSink),
		names:    make(map[domain.UserID]string),
	}
}

// Join binds a live connection to a user and rebroadcasts the full roster.
// An unresolvable identity is terminal for this join attempt: logged, no
// registry change, no broadcast.
func (r *Registry) Join(ctx context.Context, userID domain.UserID, sessionID contract.SessionID, sink contract.EventSink) error {
	name, err := r.resolver.DisplayName(ctx, userID)
	if err != nil {
		r.log.Warn("Join rejected, identity not resolved", "user_id", userID, "error", err)
		return err
	}

	r.mu.Lock()
	r.sessions[sessionID] = userID
	if _, ok := r.members[userID]; !ok {
		r.members[userID] = make(map[contract.SessionID]contract.EventSink)
	}
	r.members[userID][sessionID] = sink
	r.names[userID] = name
	sinks, roster := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info("User joined", "user_id", userID, "session_id", sessionID, "online", len(roster))
	broadcast(ctx, sinks, event.RosterUpdate{Users: roster})
	return nil
}

// Leave removes a connection from whichever user owns it. The last session
// of a user removes it from the roster. Safe to call for an unknown session,
// so abnormal disconnects and explicit leaves can both funnel here.
func (r *Registry) Leave(sessionID contract.SessionID) {
	r.mu.Lock()
	userID, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, sessionID)
	delete(r.members[userID], sessionID)
	if len(r.members[userID]) == 0 {
		delete(r.members, userID)
		delete(r.names, userID)
	}
	sinks, roster := r.snapshotLocked()
	r.mu.Unlock()

	r.log.Info("User left", "user_id", userID, "session_id", sessionID, "online", len(roster))
	broadcast(context.Background(), sinks, event.RosterUpdate{Users: roster})
}

// Sinks returns the live connections of a user, empty when offline.
func (r *Registry) Sinks(userID domain.UserID) []contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions, ok := r.members[userID]
	if !ok {
		return nil
	}
	sinks := make([]contract.EventSink, 0, len(sessions))
	for _, sink := range sessions {
		sinks = append(sinks, sink)
	}
	return sinks
}

// Roster returns the sorted display names of every online user.
func (r *Registry) Roster() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.rosterLocked()
}

// OnlineCount reports how many users currently hold at least one session.
func (r *Registry) OnlineCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// SessionCount reports the number of live connections.
func (r *Registry) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// snapshotLocked collects every live sink plus the current roster while the
// caller holds the lock, so the broadcast itself can run without it.
func (r *Registry) snapshotLocked() ([]contract.EventSink, []string) {
	var sinks []contract.EventSink
	for _, sessions := range r.members {
		for _, sink := range sessions {
			sinks = append(sinks, sink)
		}
	}
	return sinks, r.rosterLocked()
}

func (r *Registry) rosterLocked() []string {
	roster := make([]string, 0, len(r.names))
	for _, name := range r.names {
		roster = append(roster, name)
	}
	sort.Strings(roster)
	return roster
}

func broadcast(ctx context.Context, sinks []contract.EventSink, e event.Outbound) {
	for _, sink := range sinks {
		_ = sink.Consume(ctx, e)
	}
}
