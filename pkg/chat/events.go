package chat

import (
	"encoding/json"
	"time"
)

// Inbound event names (client -> server).
const (
	EventJoinChannel    = "join_channel"
	EventLeaveChannel   = "leave_channel"
	EventSendMessage    = "send_message"
	EventEditMessage    = "edit_message"
	EventDeleteMessage  = "delete_message"
	EventAddReaction    = "add_reaction"
	EventRemoveReaction = "remove_reaction"
	EventTypingStart    = "typing_start"
	EventTypingStop     = "typing_stop"
	EventReadReceipt    = "read_receipt"
)

// Outbound event names (server -> client).
const (
	EventNewMessage      = "new_message"
	EventMessageEdited   = "message_edited"
	EventMessageDeleted  = "message_deleted"
	EventReactionAdded   = "reaction_added"
	EventReactionRemoved = "reaction_removed"
	EventUserOnline      = "user_online"
	EventUserOffline     = "user_offline"
	EventOnlineUsers     = "online_users"
	EventChannelCreated  = "channel_created"
	EventChannelInvited  = "channel_invited"
	EventError           = "error"
)

// Envelope is the wire frame for every real-time event, both directions.
// Inbound data stays raw until the dispatcher knows which payload to decode.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutEnvelope is the outbound counterpart with an already-materialized payload.
type OutEnvelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type SendMessagePayload struct {
	ChannelID   string  `json:"channelId" validate:"required"`
	Content     string  `json:"content" validate:"required,max=4000"`
	MessageType string  `json:"messageType" validate:"omitempty,oneof=text image file"`
	ParentID    *string `json:"parentId"`
}

type EditMessagePayload struct {
	MessageID string `json:"messageId" validate:"required"`
	Content   string `json:"content" validate:"required,max=4000"`
}

type DeleteMessagePayload struct {
	MessageID string `json:"messageId" validate:"required"`
}

type ReactionPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	Emoji     string `json:"emoji" validate:"required,max=32"`
}

// ChannelPayload covers join_channel, leave_channel and both typing events.
type ChannelPayload struct {
	ChannelID string `json:"channelId" validate:"required"`
}

type ReadReceiptPayload struct {
	ChannelID string `json:"channelId" validate:"required"`
	MessageID string `json:"messageId" validate:"required"`
}

// MessageView is the canonical enriched message fanned out to rooms and
// returned by the history endpoint.
type MessageView struct {
	ID              string    `json:"id"`
	ChannelID       string    `json:"channel_id"`
	SenderID        string    `json:"sender_id"`
	SenderUsername  string    `json:"sender_username"`
	SenderAvatarURL *string   `json:"sender_avatar_url"`
	Content         string    `json:"content"`
	MessageType     string    `json:"message_type"`
	ParentID        *string   `json:"parent_id"`
	Mentions        []string  `json:"mentions"`
	Edited          bool      `json:"edited"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type ReactionView struct {
	ID        string `json:"id"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Emoji     string `json:"emoji"`
}

type MessageDeletedEvent struct {
	MessageID string `json:"messageId"`
	ChannelID string `json:"channelId"`
}

type ReactionRemovedEvent struct {
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	Emoji     string `json:"emoji"`
}

type TypingEvent struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
}

type PresenceEvent struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type ReadReceiptEvent struct {
	ChannelID string `json:"channelId"`
	UserID    string `json:"userId"`
	MessageID string `json:"messageId"`
}

type ChannelEvent struct {
	ChannelID string `json:"channelId"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}
