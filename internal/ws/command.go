package ws

import (
	"encoding/json"
	"fmt"

	"chat-server/pkg/chat"
)

// Inbound commands as a tagged variant: adding a command means adding a type
// here and a case to the dispatcher's switch, both compile-checked.
type command interface{ isCommand() }

type joinChannelCmd struct{ chat.ChannelPayload }
type leaveChannelCmd struct{ chat.ChannelPayload }
type sendMessageCmd struct{ chat.SendMessagePayload }
type editMessageCmd struct{ chat.EditMessagePayload }
type deleteMessageCmd struct{ chat.DeleteMessagePayload }
type addReactionCmd struct{ chat.ReactionPayload }
type removeReactionCmd struct{ chat.ReactionPayload }
type typingStartCmd struct{ chat.ChannelPayload }
type typingStopCmd struct{ chat.ChannelPayload }
type readReceiptCmd struct{ chat.ReadReceiptPayload }

func (joinChannelCmd) isCommand()    {}
func (leaveChannelCmd) isCommand()   {}
func (sendMessageCmd) isCommand()    {}
func (editMessageCmd) isCommand()    {}
func (deleteMessageCmd) isCommand()  {}
func (addReactionCmd) isCommand()    {}
func (removeReactionCmd) isCommand() {}
func (typingStartCmd) isCommand()    {}
func (typingStopCmd) isCommand()     {}
func (readReceiptCmd) isCommand()    {}

var errUnknownCommand = fmt.Errorf("unknown command")

func decodeCommand(env chat.Envelope) (command, error) {
	switch env.Event {
	case chat.EventJoinChannel:
		return decodePayload(env.Data, func(p chat.ChannelPayload) command { return joinChannelCmd{p} })
	case chat.EventLeaveChannel:
		return decodePayload(env.Data, func(p chat.ChannelPayload) command { return leaveChannelCmd{p} })
	case chat.EventSendMessage:
		return decodePayload(env.Data, func(p chat.SendMessagePayload) command { return sendMessageCmd{p} })
	case chat.EventEditMessage:
		return decodePayload(env.Data, func(p chat.EditMessagePayload) command { return editMessageCmd{p} })
	case chat.EventDeleteMessage:
		return decodePayload(env.Data, func(p chat.DeleteMessagePayload) command { return deleteMessageCmd{p} })
	case chat.EventAddReaction:
		return decodePayload(env.Data, func(p chat.ReactionPayload) command { return addReactionCmd{p} })
	case chat.EventRemoveReaction:
		return decodePayload(env.Data, func(p chat.ReactionPayload) command { return removeReactionCmd{p} })
	case chat.EventTypingStart:
		return decodePayload(env.Data, func(p chat.ChannelPayload) command { return typingStartCmd{p} })
	case chat.EventTypingStop:
		return decodePayload(env.Data, func(p chat.ChannelPayload) command { return typingStopCmd{p} })
	case chat.EventReadReceipt:
		return decodePayload(env.Data, func(p chat.ReadReceiptPayload) command { return readReceiptCmd{p} })
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownCommand, env.Event)
	}
}

func decodePayload[T any](data json.RawMessage, wrap func(T) command) (command, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return wrap(p), nil
}
