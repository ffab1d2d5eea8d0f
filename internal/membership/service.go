package membership

import (
	"errors"
	"time"

	"chat-server/pkg/chat"

	"gorm.io/gorm"
)

var ErrNotMember = errors.New("user is not a member of this channel")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// IsMember is the authorization check every real-time mutation goes through.
func (s *Service) IsMember(userID, channelID string) (bool, error) {
	var count int64
	err := s.db.Model(&chat.Membership{}).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Service) GetMembership(userID, channelID string) (*chat.Membership, error) {
	var m chat.Membership
	err := s.db.Where("user_id = ? AND channel_id = ?", userID, channelID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotMember
		}
		return nil, err
	}
	return &m, nil
}

func (s *Service) AddMember(userID, channelID, role string) (*chat.Membership, error) {
	m := chat.Membership{
		UserID:    userID,
		ChannelID: channelID,
		Role:      role,
	}
	if err := s.db.Create(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Service) RemoveMember(userID, channelID string) error {
	return s.db.Where("user_id = ? AND channel_id = ?", userID, channelID).
		Delete(&chat.Membership{}).Error
}

// UpdateLastRead stamps the membership row for read receipts.
func (s *Service) UpdateLastRead(userID, channelID string, at time.Time) error {
	result := s.db.Model(&chat.Membership{}).
		Where("user_id = ? AND channel_id = ?", userID, channelID).
		Update("last_read_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotMember
	}
	return nil
}

func (s *Service) ChannelMembers(channelID string) ([]chat.User, error) {
	var users []chat.User
	err := s.db.
		Joins("JOIN memberships ON users.id = memberships.user_id").
		Where("memberships.channel_id = ?", channelID).
		Find(&users).Error
	return users, err
}
