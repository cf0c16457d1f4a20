package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is an append-only note on a task. CreatedAt is always stored in
// UTC; conversion to a display timezone happens at the DTO boundary.
type Comment struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	TaskID    uint64         `gorm:"not null" json:"task_id"`
	AuthorID  uint64         `gorm:"not null" json:"author_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Task   Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	Author User `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
}
