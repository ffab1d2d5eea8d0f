package chat

import (
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/gorm"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"

	RoleOwner  = "owner"
	RoleMember = "member"
)

type User struct {
	ID         string `gorm:"primaryKey"`
	Username   string `gorm:"uniqueIndex;not null"`
	Password   string `gorm:"not null"`
	Status     string `gorm:"default:offline"`
	AvatarURL  *string
	LastSeenAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Channel struct {
	ID        string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;not null"`
	OwnerID   string `gorm:"not null"`
	IsPrivate bool
	CreatedAt time.Time
	UpdatedAt time.Time

	Owner User `gorm:"foreignKey:OwnerID"`
}

// Membership ties a user to a channel. LastReadAt backs read receipts.
type Membership struct {
	ID         string `gorm:"primaryKey"`
	UserID     string `gorm:"not null;index:idx_member,unique"`
	ChannelID  string `gorm:"not null;index:idx_member,unique"`
	Role       string `gorm:"default:member"`
	LastReadAt *time.Time
	CreatedAt  time.Time

	User    User    `gorm:"foreignKey:UserID"`
	Channel Channel `gorm:"foreignKey:ChannelID"`
}

type Message struct {
	ID          string `gorm:"primaryKey"`
	ChannelID   string `gorm:"not null;index"`
	SenderID    string `gorm:"not null"`
	Content     string `gorm:"not null"`
	MessageType string `gorm:"default:text"`
	ParentID    *string
	Mentions    string // comma-joined usernames extracted from content
	Edited      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	Sender User `gorm:"foreignKey:SenderID"`
}

type Reaction struct {
	ID        string `gorm:"primaryKey"`
	MessageID string `gorm:"not null;index:idx_reaction,unique"`
	UserID    string `gorm:"not null;index:idx_reaction,unique"`
	Emoji     string `gorm:"not null;index:idx_reaction,unique"`
	CreatedAt time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID, err = nanoid.New(8)
	}
	return
}

func (c *Channel) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID, err = nanoid.New(6)
	}
	return
}

func (m *Membership) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID, err = nanoid.New(10)
	}
	return
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID, err = nanoid.New(12)
	}
	return
}

func (r *Reaction) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID, err = nanoid.New(10)
	}
	return
}
