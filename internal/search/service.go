package search

import (
	"strings"

	"chat-server/internal/membership"
	"chat-server/pkg/chat"

	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	members *membership.Service
}

func NewService(db *gorm.DB, members *membership.Service) *Service {
	return &Service{db: db, members: members}
}

// Messages searches a channel's history for the given term. Only members may
// search; the check mirrors the history endpoint.
func (s *Service) Messages(userID, channelID, term string, limit int) ([]chat.Message, error) {
	ok, err := s.members.IsMember(userID, channelID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, membership.ErrNotMember
	}

	if limit <= 0 || limit > 50 {
		limit = 20
	}

	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}

	var messages []chat.Message
	err = s.db.Preload("Sender").
		Where("channel_id = ? AND content LIKE ?", channelID, "%"+term+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	return messages, err
}
