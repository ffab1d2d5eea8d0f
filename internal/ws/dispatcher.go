package ws

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"chat-server/internal/membership"
	"chat-server/internal/message"
	"chat-server/pkg/chat"

	"github.com/go-playground/validator/v10"
)

// MembershipChecker is the durable-membership collaborator. Room presence is
// never trusted as an authorization proxy; every mutation re-checks here.
type MembershipChecker interface {
	IsMember(userID, channelID string) (bool, error)
	UpdateLastRead(userID, channelID string, at time.Time) error
}

// MessageDomain is the message collaborator; each operation returns the
// canonical enriched object to fan out.
type MessageDomain interface {
	Send(senderID, channelID, content, messageType string, parentID *string) (*chat.MessageView, error)
	Edit(userID, messageID, content string) (*chat.MessageView, error)
	Delete(userID, messageID string) (channelID string, err error)
	AddReaction(userID, messageID, emoji string) (*chat.ReactionView, string, error)
	RemoveReaction(userID, messageID, emoji string) (channelID string, err error)
}

// Dispatcher is the single entry point for inbound real-time commands. It
// validates, delegates to the collaborators, and fans results out. Failures
// go back to the originating connection only.
type Dispatcher struct {
	hub         *Hub
	broadcaster chat.Broadcaster
	members     MembershipChecker
	messages    MessageDomain
	typing      *TypingTracker
	validate    *validator.Validate
	log         *slog.Logger
}

func NewDispatcher(hub *Hub, broadcaster chat.Broadcaster, members MembershipChecker, messages MessageDomain, typing *TypingTracker, log *slog.Logger) *Dispatcher {
	return &Dispatcher{
		hub:         hub,
		broadcaster: broadcaster,
		members:     members,
		messages:    messages,
		typing:      typing,
		validate:    validator.New(),
		log:         log,
	}
}

// Dispatch handles one inbound frame from one connection.
func (d *Dispatcher) Dispatch(c *Client, raw []byte) {
	var env chat.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		d.sendError(c, "Invalid message format")
		return
	}

	cmd, err := decodeCommand(env)
	if err != nil {
		if errors.Is(err, errUnknownCommand) {
			d.sendError(c, "Unknown command")
		} else {
			d.sendError(c, "Invalid message format")
		}
		return
	}

	switch cmd := cmd.(type) {
	case joinChannelCmd:
		d.handleJoin(c, cmd.ChannelPayload)
	case leaveChannelCmd:
		d.hub.LeaveRoom(c, cmd.ChannelID)
	case sendMessageCmd:
		d.handleSend(c, cmd.SendMessagePayload)
	case editMessageCmd:
		d.handleEdit(c, cmd.EditMessagePayload)
	case deleteMessageCmd:
		d.handleDelete(c, cmd.DeleteMessagePayload)
	case addReactionCmd:
		d.handleAddReaction(c, cmd.ReactionPayload)
	case removeReactionCmd:
		d.handleRemoveReaction(c, cmd.ReactionPayload)
	case typingStartCmd:
		if d.checkPayload(c, cmd.ChannelPayload) {
			d.typing.Start(c.userID, c.username, cmd.ChannelID, c.id)
		}
	case typingStopCmd:
		if d.checkPayload(c, cmd.ChannelPayload) {
			d.typing.Stop(c.userID, c.username, cmd.ChannelID, c.id)
		}
	case readReceiptCmd:
		d.handleReadReceipt(c, cmd.ReadReceiptPayload)
	}
}

func (d *Dispatcher) handleJoin(c *Client, p chat.ChannelPayload) {
	if !d.checkPayload(c, p) {
		return
	}

	ok, err := d.members.IsMember(c.userID, p.ChannelID)
	if err != nil {
		d.log.Error("membership lookup failed", "user", c.userID, "channel", p.ChannelID, "error", err)
		d.sendError(c, "Failed to join channel")
		return
	}
	if !ok {
		d.sendError(c, "Not a member of this channel")
		return
	}

	d.hub.JoinRoom(c, p.ChannelID)
	d.log.Debug("joined room", "user", c.userID, "channel", p.ChannelID)
}

// handleSend has no idempotency key: a client retry creates a new message.
// Duplicate suppression is the client's responsibility.
func (d *Dispatcher) handleSend(c *Client, p chat.SendMessagePayload) {
	if !d.checkPayload(c, p) {
		return
	}

	view, err := d.messages.Send(c.userID, p.ChannelID, p.Content, p.MessageType, p.ParentID)
	if err != nil {
		d.commandFailed(c, "send_message", err, "Failed to send message")
		return
	}

	// The sender's connection is included: its other tabs need the event,
	// and the client de-duplicates by message ID.
	d.broadcaster.SendToRoom(p.ChannelID, chat.EventNewMessage, view)
}

func (d *Dispatcher) handleEdit(c *Client, p chat.EditMessagePayload) {
	if !d.checkPayload(c, p) {
		return
	}

	view, err := d.messages.Edit(c.userID, p.MessageID, p.Content)
	if err != nil {
		d.commandFailed(c, "edit_message", err, "Failed to edit message")
		return
	}

	d.broadcaster.SendToRoom(view.ChannelID, chat.EventMessageEdited, view)
}

func (d *Dispatcher) handleDelete(c *Client, p chat.DeleteMessagePayload) {
	if !d.checkPayload(c, p) {
		return
	}

	channelID, err := d.messages.Delete(c.userID, p.MessageID)
	if err != nil {
		d.commandFailed(c, "delete_message", err, "Failed to delete message")
		return
	}

	d.broadcaster.SendToRoom(channelID, chat.EventMessageDeleted, chat.MessageDeletedEvent{
		MessageID: p.MessageID,
		ChannelID: channelID,
	})
}

func (d *Dispatcher) handleAddReaction(c *Client, p chat.ReactionPayload) {
	if !d.checkPayload(c, p) {
		return
	}

	view, channelID, err := d.messages.AddReaction(c.userID, p.MessageID, p.Emoji)
	if err != nil {
		d.commandFailed(c, "add_reaction", err, "Failed to add reaction")
		return
	}

	d.broadcaster.SendToRoom(channelID, chat.EventReactionAdded, view)
}

func (d *Dispatcher) handleRemoveReaction(c *Client, p chat.ReactionPayload) {
	if !d.checkPayload(c, p) {
		return
	}

	channelID, err := d.messages.RemoveReaction(c.userID, p.MessageID, p.Emoji)
	if err != nil {
		d.commandFailed(c, "remove_reaction", err, "Failed to remove reaction")
		return
	}

	d.broadcaster.SendToRoom(channelID, chat.EventReactionRemoved, chat.ReactionRemovedEvent{
		MessageID: p.MessageID,
		UserID:    c.userID,
		Emoji:     p.Emoji,
	})
}

func (d *Dispatcher) handleReadReceipt(c *Client, p chat.ReadReceiptPayload) {
	if !d.checkPayload(c, p) {
		return
	}

	if err := d.members.UpdateLastRead(c.userID, p.ChannelID, time.Now()); err != nil {
		d.commandFailed(c, "read_receipt", err, "Failed to update read state")
		return
	}

	// The reader already knows; everyone else in the room learns.
	d.broadcaster.SendToRoom(p.ChannelID, chat.EventReadReceipt, chat.ReadReceiptEvent{
		ChannelID: p.ChannelID,
		UserID:    c.userID,
		MessageID: p.MessageID,
	}, c.id)
}

func (d *Dispatcher) checkPayload(c *Client, payload any) bool {
	if err := d.validate.Struct(payload); err != nil {
		d.sendError(c, "Invalid message format")
		return false
	}
	return true
}

// commandFailed logs the real error and emits a scoped, human-readable one
// to the originating connection. Collaborator errors are never broadcast.
func (d *Dispatcher) commandFailed(c *Client, cmd string, err error, fallback string) {
	d.log.Warn("command failed", "command", cmd, "user", c.userID, "error", err)

	switch {
	case errors.Is(err, membership.ErrNotMember):
		d.sendError(c, "Not a member of this channel")
	case errors.Is(err, message.ErrNotFound):
		d.sendError(c, "Message not found")
	case errors.Is(err, message.ErrForbidden):
		d.sendError(c, "Not allowed to modify this message")
	default:
		d.sendError(c, fallback)
	}
}

func (d *Dispatcher) sendError(c *Client, msg string) {
	d.broadcaster.SendTo(c.id, chat.EventError, chat.ErrorEvent{Message: msg})
}
