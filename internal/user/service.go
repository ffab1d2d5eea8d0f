package user

import (
	"errors"
	"fmt"
	"time"

	"chat-server/pkg/chat"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("user not found")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Get(userID string) (*chat.User, error) {
	var user chat.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *Service) GetByUsername(username string) (*chat.User, error) {
	var user chat.User
	if err := s.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (s *Service) List() ([]chat.User, error) {
	var users []chat.User
	if err := s.db.Order("username").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateStatus records the presence transition. Going offline also stamps
// last_seen_at so clients can render "last seen" after the user drops.
func (s *Service) UpdateStatus(userID, status string) error {
	updates := map[string]any{"status": status}
	if status == chat.StatusOffline {
		updates["last_seen_at"] = time.Now()
	}

	result := s.db.Model(&chat.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
