package migration_0

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:150;not null"`
	Email        string `gorm:"size:150;uniqueIndex;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
}

type Conversation struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"index;not null"`
	User      User   `gorm:"constraint:OnDelete:CASCADE"`
	Persona   string `gorm:"size:100;not null"`
	CreatedAt time.Time
}

type Message struct {
	ID             uint         `gorm:"primaryKey"`
	ConversationID uint         `gorm:"index;not null"`
	Conversation   Conversation `gorm:"constraint:OnDelete:CASCADE"`
	Sender         string       `gorm:"size:50;not null"`
	Content        string       `gorm:"type:text;not null"`
	Timestamp      time.Time
}

type Feedback struct {
	ID             uint         `gorm:"primaryKey"`
	ConversationID uint         `gorm:"index;not null"`
	Conversation   Conversation `gorm:"constraint:OnDelete:CASCADE"`
	Content        string       `gorm:"type:text;not null"`
	CreatedAt      time.Time
}

func (Feedback) TableName() string {
	return "feedback"
}

func Migration(db *gorm.DB) error {
	return db.AutoMigrate(&User{}, &Conversation{}, &Message{}, &Feedback{})
}
