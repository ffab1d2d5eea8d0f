package channel

import (
	"errors"

	"chat-server/internal/membership"
	"chat-server/pkg/chat"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("channel not found")
	ErrAlreadyMember = errors.New("user already in channel")
	ErrOwnerLeaving  = errors.New("channel owner cannot leave channel")
)

type Service struct {
	db          *gorm.DB
	members     *membership.Service
	broadcaster chat.Broadcaster
}

func NewService(db *gorm.DB, members *membership.Service, broadcaster chat.Broadcaster) *Service {
	return &Service{db: db, members: members, broadcaster: broadcaster}
}

// Create makes the channel, enrolls the owner, and announces public channels
// to every live connection.
func (s *Service) Create(ownerID, name string, isPrivate bool) (*chat.Channel, error) {
	if name == "" {
		return nil, errors.New("channel name cannot be empty")
	}

	ch := chat.Channel{
		Name:      name,
		OwnerID:   ownerID,
		IsPrivate: isPrivate,
	}
	if err := s.db.Create(&ch).Error; err != nil {
		return nil, err
	}

	if _, err := s.members.AddMember(ownerID, ch.ID, chat.RoleOwner); err != nil {
		return nil, err
	}

	if !ch.IsPrivate {
		s.broadcaster.SendToAll(chat.EventChannelCreated, chat.ChannelEvent{
			ChannelID: ch.ID,
			Name:      ch.Name,
			OwnerID:   ch.OwnerID,
		})
	}

	return &ch, nil
}

func (s *Service) Get(channelID string) (*chat.Channel, error) {
	var ch chat.Channel
	err := s.db.Preload("Owner").First(&ch, "id = ?", channelID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ch, nil
}

func (s *Service) PublicChannels() ([]chat.Channel, error) {
	var channels []chat.Channel
	err := s.db.Where("is_private = ?", false).Preload("Owner").Find(&channels).Error
	return channels, err
}

func (s *Service) UserChannels(userID string) ([]chat.Channel, error) {
	var channels []chat.Channel
	err := s.db.
		Joins("JOIN memberships ON channels.id = memberships.channel_id").
		Where("memberships.user_id = ?", userID).
		Preload("Owner").
		Find(&channels).Error
	return channels, err
}

// Join enrolls a user in a public channel. Private channels are invite-only.
func (s *Service) Join(userID, channelID string) error {
	ch, err := s.Get(channelID)
	if err != nil {
		return err
	}

	already, err := s.members.IsMember(userID, channelID)
	if err != nil {
		return err
	}
	if already {
		return ErrAlreadyMember
	}

	if ch.IsPrivate {
		return membership.ErrNotMember
	}

	_, err = s.members.AddMember(userID, channelID, chat.RoleMember)
	return err
}

// Invite enrolls another user and notifies all of their live connections.
func (s *Service) Invite(inviterID, targetUserID, channelID string) error {
	m, err := s.members.GetMembership(inviterID, channelID)
	if err != nil {
		return err
	}
	if m.Role != chat.RoleOwner {
		return membership.ErrNotMember
	}

	already, err := s.members.IsMember(targetUserID, channelID)
	if err != nil {
		return err
	}
	if already {
		return ErrAlreadyMember
	}

	if _, err := s.members.AddMember(targetUserID, channelID, chat.RoleMember); err != nil {
		return err
	}

	s.broadcaster.SendToUser(targetUserID, chat.EventChannelInvited, chat.ChannelPayload{
		ChannelID: channelID,
	})
	return nil
}

func (s *Service) Leave(userID, channelID string) error {
	ch, err := s.Get(channelID)
	if err != nil {
		return err
	}
	if ch.OwnerID == userID {
		return ErrOwnerLeaving
	}
	return s.members.RemoveMember(userID, channelID)
}

func (s *Service) Delete(userID, channelID string) error {
	ch, err := s.Get(channelID)
	if err != nil {
		return err
	}
	if ch.OwnerID != userID {
		return errors.New("only channel owner can delete channel")
	}

	if err := s.db.Where("channel_id = ?", channelID).Delete(&chat.Membership{}).Error; err != nil {
		return err
	}
	return s.db.Delete(&chat.Channel{}, "id = ?", channelID).Error
}
