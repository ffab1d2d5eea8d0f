package storage

import (
	"chat-server/pkg/chat"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&chat.User{},
		&chat.Channel{},
		&chat.Membership{},
		&chat.Message{},
		&chat.Reaction{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}
