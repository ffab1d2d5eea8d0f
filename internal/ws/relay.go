package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"chat-server/pkg/chat"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/redis/go-redis/v9"
)

const relayChannel = "chat:relay"

// Relay extends the process-local hub across a cluster over Redis pub/sub.
// Room, user and global broadcasts are published so sibling processes can
// re-deliver them to their own connections; single-connection sends stay
// local because connection IDs only mean something in their own process.
// When Redis is down the relay degrades to hub-only delivery.
type Relay struct {
	id    string
	local chat.Broadcaster
	rdb   *redis.Client
	log   *slog.Logger
}

type relayFrame struct {
	Origin string          `json:"origin"`
	Scope  string          `json:"scope"` // "room", "user" or "all"
	Target string          `json:"target,omitempty"`
	Event  string          `json:"event"`
	Data   json.RawMessage `json:"data"`
}

func NewRelay(rdb *redis.Client, local chat.Broadcaster, log *slog.Logger) *Relay {
	return &Relay{
		id:    nanoid.Must(8),
		local: local,
		rdb:   rdb,
		log:   log,
	}
}

// Run consumes frames published by sibling processes until ctx is done.
func (r *Relay) Run(ctx context.Context) {
	sub := r.rdb.Subscribe(ctx, relayChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.receive([]byte(msg.Payload))
		}
	}
}

func (r *Relay) receive(payload []byte) {
	var frame relayFrame
	if err := json.Unmarshal(payload, &frame); err != nil {
		r.log.Warn("bad relay frame", "error", err)
		return
	}
	if frame.Origin == r.id {
		return
	}

	switch frame.Scope {
	case "room":
		r.local.SendToRoom(frame.Target, frame.Event, frame.Data)
	case "user":
		r.local.SendToUser(frame.Target, frame.Event, frame.Data)
	case "all":
		r.local.SendToAll(frame.Event, frame.Data)
	}
}

func (r *Relay) publish(scope, target, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		r.log.Error("failed to encode relay payload", "event", event, "error", err)
		return
	}
	frame, err := json.Marshal(relayFrame{
		Origin: r.id,
		Scope:  scope,
		Target: target,
		Event:  event,
		Data:   data,
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeWait)
	defer cancel()
	if err := r.rdb.Publish(ctx, relayChannel, frame).Err(); err != nil {
		// Accepted degradation: fanout stays process-local while Redis is out.
		r.log.Debug("relay publish failed", "event", event, "error", err)
	}
}

func (r *Relay) SendTo(connID, event string, payload any) {
	r.local.SendTo(connID, event, payload)
}

func (r *Relay) SendToRoom(roomID, event string, payload any, exclude ...string) {
	r.local.SendToRoom(roomID, event, payload, exclude...)
	r.publish("room", roomID, event, payload)
}

func (r *Relay) SendToUser(userID, event string, payload any) {
	r.local.SendToUser(userID, event, payload)
	r.publish("user", userID, event, payload)
}

// Exclusions are connection IDs, which only exist on this process, so the
// published frame carries none.
func (r *Relay) SendToAll(event string, payload any, exclude ...string) {
	r.local.SendToAll(event, payload, exclude...)
	r.publish("all", "", event, payload)
}
