package auth

import (
	"errors"

	"chat-server/pkg/chat"

	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("username already taken")
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Register(username, password string) (*chat.User, error) {
	if username == "" {
		return nil, errors.New("username cannot be empty")
	}
	if password == "" {
		return nil, errors.New("password cannot be empty")
	}

	var existing chat.User
	if err := s.db.First(&existing, "username = ?", username).Error; err == nil {
		return nil, ErrUsernameTaken
	}

	hashed, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := chat.User{
		Username: username,
		Password: hashed,
		Status:   chat.StatusOffline,
	}

	return &user, s.db.Create(&user).Error
}

func (s *Service) Login(username, password string) (*chat.User, error) {
	var user chat.User

	err := s.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPassword(password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}
