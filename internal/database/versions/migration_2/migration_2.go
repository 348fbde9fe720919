package migration_2

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID uint `gorm:"primaryKey"`
}

type Product struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"size:100;not null"`
}

type ReferFeedback struct {
	ID             uint `gorm:"primaryKey"`
	UserID         uint `gorm:"index;not null"`
	User           User
	ProductID      uint `gorm:"index;not null"`
	Product        Product
	ConversationID *uint
	Score          int
	Category       string    `gorm:"size:100"`
	Timestamp      time.Time `gorm:"index"`
}

func (ReferFeedback) TableName() string {
	return "refer_feedback"
}

func Migration(db *gorm.DB) error {
	if err := db.AutoMigrate(&Product{}, &ReferFeedback{}); err != nil {
		return fmt.Errorf("error creating analytics tables: %w", err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropTable(&ReferFeedback{}, &Product{}); err != nil {
		return fmt.Errorf("error dropping analytics tables: %w", err)
	}
	return nil
}
