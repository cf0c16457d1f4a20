package models

import "time"

// ProjectRole is the in-project role attached to a membership.
type ProjectRole string

const (
	RoleLead   ProjectRole = "lead"
	RoleMember ProjectRole = "member"
)

type ProjectMember struct {
	ProjectID uint64      `gorm:"primarykey" json:"project_id"`
	UserID    uint64      `gorm:"primarykey" json:"user_id"`
	Role      ProjectRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt  time.Time   `json:"joined_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
