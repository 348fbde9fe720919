package migration_1

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const feedbackIndex = "idx_feedback_conversation_id"

type Feedback struct {
	ConversationID uint `gorm:"uniqueIndex:idx_feedback_conversation_id"`
	Items          datatypes.JSON
}

func (Feedback) TableName() string {
	return "feedback"
}

func Migration(db *gorm.DB) error {
	if err := db.Migrator().AddColumn(&Feedback{}, "Items"); err != nil {
		return fmt.Errorf("error adding items column: %w", err)
	}

	// Keep the oldest feedback row for each conversation so the unique index can be built.
	if err := db.Exec("DELETE FROM feedback WHERE id NOT IN (SELECT MIN(id) FROM feedback GROUP BY conversation_id)").Error; err != nil {
		return fmt.Errorf("error removing duplicate feedback rows: %w", err)
	}

	if err := db.Migrator().CreateIndex(&Feedback{}, feedbackIndex); err != nil {
		return fmt.Errorf("error creating %s: %w", feedbackIndex, err)
	}
	return nil
}

func Rollback(db *gorm.DB) error {
	if err := db.Migrator().DropIndex(&Feedback{}, feedbackIndex); err != nil {
		return fmt.Errorf("error dropping %s: %w", feedbackIndex, err)
	}
	if err := db.Migrator().DropColumn(&Feedback{}, "Items"); err != nil {
		return fmt.Errorf("error dropping items column: %w", err)
	}
	return nil
}
