package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// ValidTaskStatus reports whether s is one of the known task statuses.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type Task struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	ProjectID  uint64         `gorm:"not null" json:"project_id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Status     TaskStatus     `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	StartDate  *time.Time     `json:"start_date"`
	EndDate    *time.Time     `json:"end_date"`
	AssigneeID *uint64        `json:"assignee_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project  Project   `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Assignee *User     `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Comments []Comment `gorm:"foreignKey:TaskID" json:"comments,omitempty"`
}
