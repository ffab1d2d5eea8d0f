package ws

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"chat-server/pkg/chat"
)

// DefaultTypingTimeout is the idle window after which a typing indicator
// auto-expires without an explicit stop.
const DefaultTypingTimeout = 3 * time.Second

type typingEntry struct {
	timer    *time.Timer
	connID   string
	username string
	seq      uint64 // invalidates expiry callbacks that lost a race with a refresh
}

// TypingTracker runs the per-(user, channel) typing state machine. The
// auto-expiry guarantees a crashed or partitioned client never leaves a
// stuck indicator.
type TypingTracker struct {
	mu      sync.Mutex
	entries map[string]*typingEntry // "userID:channelID"

	idle        time.Duration
	broadcaster chat.Broadcaster
	log         *slog.Logger
}

func NewTypingTracker(idle time.Duration, broadcaster chat.Broadcaster, log *slog.Logger) *TypingTracker {
	if idle <= 0 {
		idle = DefaultTypingTimeout
	}
	return &TypingTracker{
		entries:     make(map[string]*typingEntry),
		idle:        idle,
		broadcaster: broadcaster,
		log:         log,
	}
}

func typingKey(userID, channelID string) string {
	return userID + ":" + channelID
}

// Start transitions Idle -> Typing, broadcasting typing_start to the room
// once. A start while already typing only re-arms the expiry timer, so a
// client signalling on every keystroke causes no event storm.
func (t *TypingTracker) Start(userID, username, channelID, connID string) {
	key := typingKey(userID, channelID)

	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, ok := t.entries[key]; ok {
		entry.timer.Stop()
		entry.connID = connID
		entry.seq++
		entry.timer = t.expiryTimer(key, channelID, userID, username, entry.seq)
		return
	}

	entry := &typingEntry{connID: connID, username: username}
	entry.timer = t.expiryTimer(key, channelID, userID, username, 0)
	t.entries[key] = entry

	t.broadcaster.SendToRoom(channelID, chat.EventTypingStart, chat.TypingEvent{
		ChannelID: channelID,
		UserID:    userID,
		Username:  username,
	}, connID)
}

// Stop transitions Typing -> Idle immediately. Broadcasts typing_stop only
// when the user was actually typing, so an explicit stop racing the expiry
// timer still yields exactly one broadcast.
func (t *TypingTracker) Stop(userID, username, channelID, connID string) {
	key := typingKey(userID, channelID)

	t.mu.Lock()
	entry, ok := t.entries[key]
	if ok {
		entry.timer.Stop()
		delete(t.entries, key)
	}
	t.mu.Unlock()

	if !ok {
		return
	}

	t.broadcaster.SendToRoom(channelID, chat.EventTypingStop, chat.TypingEvent{
		ChannelID: channelID,
		UserID:    userID,
		Username:  username,
	}, connID)
}

// HandleDisconnect forces Idle for every channel where the dropped
// connection was the one typing, broadcasting typing_stop for each.
func (t *TypingTracker) HandleDisconnect(userID, connID string) {
	prefix := userID + ":"

	t.mu.Lock()
	var stopped []chat.TypingEvent
	for key, entry := range t.entries {
		if !strings.HasPrefix(key, prefix) || entry.connID != connID {
			continue
		}
		entry.timer.Stop()
		delete(t.entries, key)
		stopped = append(stopped, chat.TypingEvent{
			ChannelID: strings.TrimPrefix(key, prefix),
			UserID:    userID,
			Username:  entry.username,
		})
	}
	t.mu.Unlock()

	for _, evt := range stopped {
		t.broadcaster.SendToRoom(evt.ChannelID, chat.EventTypingStop, evt, connID)
	}
}

func (t *TypingTracker) expiryTimer(key, channelID, userID, username string, seq uint64) *time.Timer {
	return time.AfterFunc(t.idle, func() {
		t.expire(key, channelID, userID, username, seq)
	})
}

// expire fires when the idle window elapses with no refresh. The sequence
// check discards callbacks that were already queued when a refresh, an
// explicit stop or a disconnect invalidated them.
func (t *TypingTracker) expire(key, channelID, userID, username string, seq uint64) {
	t.mu.Lock()
	entry, ok := t.entries[key]
	if !ok || entry.seq != seq {
		t.mu.Unlock()
		return
	}
	connID := entry.connID
	delete(t.entries, key)
	t.mu.Unlock()

	t.broadcaster.SendToRoom(channelID, chat.EventTypingStop, chat.TypingEvent{
		ChannelID: channelID,
		UserID:    userID,
		Username:  username,
	}, connID)
}

// Typing reports whether the (user, channel) pair is currently in the
// Typing state.
func (t *TypingTracker) Typing(userID, channelID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[typingKey(userID, channelID)]
	return ok
}
