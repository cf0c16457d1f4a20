package models

import (
	"time"

	"gorm.io/gorm"
)

// GlobalRole is the account-level role assigned at registration. It is
// distinct from ProjectRole, which is scoped to a single project.
type GlobalRole string

const (
	GlobalRoleAdmin  GlobalRole = "admin"
	GlobalRoleMember GlobalRole = "member"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	GlobalRole   GlobalRole     `gorm:"type:varchar(20);not null" json:"global_role"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedProjects []Project       `gorm:"foreignKey:CreatorID" json:"-"`
	Memberships     []ProjectMember `gorm:"foreignKey:UserID" json:"-"`
	AssignedTasks   []Task          `gorm:"foreignKey:AssigneeID" json:"-"`
}
