package message

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"chat-server/internal/membership"
	"chat-server/pkg/chat"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("message not found")
	ErrForbidden = errors.New("not allowed to modify this message")

	mentionPattern = regexp.MustCompile(`@([a-zA-Z0-9_-]{3,50})`)
)

type Service struct {
	db      *gorm.DB
	members *membership.Service
}

func NewService(db *gorm.DB, members *membership.Service) *Service {
	return &Service{db: db, members: members}
}

// Send creates a message after verifying channel membership and, for thread
// replies, that the parent lives in the same channel. Returns the enriched
// canonical view that gets fanned out.
func (s *Service) Send(senderID, channelID, content, messageType string, parentID *string) (*chat.MessageView, error) {
	if err := s.requireMember(senderID, channelID); err != nil {
		return nil, err
	}

	if messageType == "" {
		messageType = "text"
	}

	if parentID != nil && *parentID != "" {
		var parent chat.Message
		if err := s.db.First(&parent, "id = ?", *parentID).Error; err != nil {
			return nil, fmt.Errorf("%w: parent message", ErrNotFound)
		}
		if parent.ChannelID != channelID {
			return nil, fmt.Errorf("%w: parent message not in this channel", ErrNotFound)
		}
	} else {
		parentID = nil
	}

	msg := chat.Message{
		ChannelID:   channelID,
		SenderID:    senderID,
		Content:     content,
		MessageType: messageType,
		ParentID:    parentID,
		Mentions:    strings.Join(extractMentions(content), ","),
	}

	if err := s.db.Create(&msg).Error; err != nil {
		return nil, err
	}

	return s.view(msg.ID)
}

func (s *Service) Edit(userID, messageID, content string) (*chat.MessageView, error) {
	var msg chat.Message
	if err := s.db.First(&msg, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, ErrForbidden
	}
	if err := s.requireMember(userID, msg.ChannelID); err != nil {
		return nil, err
	}

	updates := map[string]any{
		"content":  content,
		"mentions": strings.Join(extractMentions(content), ","),
		"edited":   true,
	}
	if err := s.db.Model(&msg).Updates(updates).Error; err != nil {
		return nil, err
	}

	return s.view(messageID)
}

// Delete soft-deletes and reports the channel the message lived in so the
// caller can route the message_deleted broadcast.
func (s *Service) Delete(userID, messageID string) (channelID string, err error) {
	var msg chat.Message
	if err := s.db.First(&msg, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	if msg.SenderID != userID {
		return "", ErrForbidden
	}
	if err := s.requireMember(userID, msg.ChannelID); err != nil {
		return "", err
	}

	if err := s.db.Delete(&msg).Error; err != nil {
		return "", err
	}
	return msg.ChannelID, nil
}

func (s *Service) AddReaction(userID, messageID, emoji string) (*chat.ReactionView, string, error) {
	msg, err := s.find(messageID)
	if err != nil {
		return nil, "", err
	}
	if err := s.requireMember(userID, msg.ChannelID); err != nil {
		return nil, "", err
	}

	reaction := chat.Reaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     emoji,
	}
	if err := s.db.Create(&reaction).Error; err != nil {
		return nil, "", err
	}

	var reactor chat.User
	if err := s.db.First(&reactor, "id = ?", userID).Error; err != nil {
		return nil, "", err
	}

	return &chat.ReactionView{
		ID:        reaction.ID,
		MessageID: messageID,
		UserID:    userID,
		Username:  reactor.Username,
		Emoji:     emoji,
	}, msg.ChannelID, nil
}

func (s *Service) RemoveReaction(userID, messageID, emoji string) (channelID string, err error) {
	msg, err := s.find(messageID)
	if err != nil {
		return "", err
	}
	if err := s.requireMember(userID, msg.ChannelID); err != nil {
		return "", err
	}

	result := s.db.Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&chat.Reaction{})
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return msg.ChannelID, nil
}

// ChannelMessages returns a chronological page of a channel's history and
// whether an older page exists.
func (s *Service) ChannelMessages(userID, channelID string, limit int, beforeID string) ([]chat.MessageView, bool, error) {
	if err := s.requireMember(userID, channelID); err != nil {
		return nil, false, err
	}

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := s.db.Preload("Sender").Where("channel_id = ?", channelID)
	if beforeID != "" {
		var before chat.Message
		if err := s.db.First(&before, "id = ?", beforeID).Error; err == nil {
			query = query.Where("created_at < ?", before.CreatedAt)
		}
	}

	// One extra row tells us whether an older page exists.
	var messages []chat.Message
	if err := query.Order("created_at DESC").Limit(limit + 1).Find(&messages).Error; err != nil {
		return nil, false, err
	}

	hasMore := len(messages) > limit
	if hasMore {
		messages = messages[:limit]
	}

	// Oldest first for rendering.
	lo.Reverse(messages)

	return lo.Map(messages, func(m chat.Message, _ int) chat.MessageView {
		return toView(m)
	}), hasMore, nil
}

func (s *Service) find(messageID string) (*chat.Message, error) {
	var msg chat.Message
	if err := s.db.First(&msg, "id = ?", messageID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &msg, nil
}

func (s *Service) view(messageID string) (*chat.MessageView, error) {
	var msg chat.Message
	if err := s.db.Preload("Sender").First(&msg, "id = ?", messageID).Error; err != nil {
		return nil, err
	}
	v := toView(msg)
	return &v, nil
}

func (s *Service) requireMember(userID, channelID string) error {
	ok, err := s.members.IsMember(userID, channelID)
	if err != nil {
		return err
	}
	if !ok {
		return membership.ErrNotMember
	}
	return nil
}

func toView(m chat.Message) chat.MessageView {
	var mentions []string
	if m.Mentions != "" {
		mentions = strings.Split(m.Mentions, ",")
	}
	return chat.MessageView{
		ID:              m.ID,
		ChannelID:       m.ChannelID,
		SenderID:        m.SenderID,
		SenderUsername:  m.Sender.Username,
		SenderAvatarURL: m.Sender.AvatarURL,
		Content:         m.Content,
		MessageType:     m.MessageType,
		ParentID:        m.ParentID,
		Mentions:        mentions,
		Edited:          m.Edited,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func extractMentions(content string) []string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	names := lo.Map(matches, func(m []string, _ int) string { return m[1] })
	return lo.Uniq(names)
}
