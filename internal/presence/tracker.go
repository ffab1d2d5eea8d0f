package presence

import (
	"context"
	"log/slog"

	"chat-server/pkg/chat"
)

// StatusUpdater persists presence transitions on the durable user record.
type StatusUpdater interface {
	UpdateStatus(userID, status string) error
}

// Tracker is the single source of truth for who is online. It reconciles the
// session registry with the shared store and announces transitions. Shared
// store failures degrade silently to the in-process set; they never fail the
// connection lifecycle.
type Tracker struct {
	registry    *SessionRegistry
	shared      OnlineStore // nil when no shared store is configured
	local       *MemoryStore
	broadcaster chat.Broadcaster
	users       StatusUpdater
	log         *slog.Logger
}

func NewTracker(registry *SessionRegistry, shared OnlineStore, broadcaster chat.Broadcaster, users StatusUpdater, log *slog.Logger) *Tracker {
	return &Tracker{
		registry:    registry,
		shared:      shared,
		local:       NewMemoryStore(),
		broadcaster: broadcaster,
		users:       users,
		log:         log,
	}
}

// HandleConnect registers the connection, announces the online transition if
// this was the identity's first connection, and sends the new connection a
// snapshot of the online set.
func (t *Tracker) HandleConnect(ctx context.Context, userID, connID string) {
	first := t.registry.Register(userID, connID)
	if first {
		t.addOnline(ctx, userID)
		if err := t.users.UpdateStatus(userID, chat.StatusOnline); err != nil {
			t.log.Error("failed to persist online status", "user", userID, "error", err)
		}
		// The connecting client learns its own state from the snapshot;
		// echoing its own user_online would arrive before it.
		t.broadcaster.SendToAll(chat.EventUserOnline, chat.PresenceEvent{
			UserID: userID,
			Status: chat.StatusOnline,
		}, connID)
		t.log.Info("user online", "user", userID)
	}

	t.broadcaster.SendTo(connID, chat.EventOnlineUsers, t.Snapshot(ctx))
}

// HandleDisconnect unregisters the connection. Only when the identity's last
// connection closes does it flip to offline, persist last-seen, and announce.
func (t *Tracker) HandleDisconnect(ctx context.Context, userID, connID string) {
	last := t.registry.Unregister(userID, connID)
	if !last {
		return
	}

	t.removeOnline(ctx, userID)
	if err := t.users.UpdateStatus(userID, chat.StatusOffline); err != nil {
		t.log.Error("failed to persist offline status", "user", userID, "error", err)
	}
	t.broadcaster.SendToAll(chat.EventUserOffline, chat.PresenceEvent{
		UserID: userID,
		Status: chat.StatusOffline,
	})
	t.log.Info("user offline", "user", userID)
}

func (t *Tracker) IsOnline(userID string) bool {
	return t.registry.IsOnline(userID)
}

// Snapshot returns the online identity set, preferring the shared store so a
// clustered deployment sees users on sibling processes.
func (t *Tracker) Snapshot(ctx context.Context) []string {
	if t.shared != nil {
		members, err := t.shared.Members(ctx)
		if err == nil {
			return members
		}
		t.log.Debug("shared store snapshot failed, using local set", "error", err)
	}
	members, _ := t.local.Members(ctx)
	return members
}

// The local set mirrors every mutation so the fallback is warm when the
// shared store drops mid-flight.
func (t *Tracker) addOnline(ctx context.Context, userID string) {
	_ = t.local.Add(ctx, userID)
	if t.shared == nil {
		return
	}
	if err := t.shared.Add(ctx, userID); err != nil {
		t.log.Debug("shared store add failed", "user", userID, "error", err)
	}
}

func (t *Tracker) removeOnline(ctx context.Context, userID string) {
	_ = t.local.Remove(ctx, userID)
	if t.shared == nil {
		return
	}
	if err := t.shared.Remove(ctx, userID); err != nil {
		t.log.Debug("shared store remove failed", "user", userID, "error", err)
	}
}
