package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role names. RoleAdmin implies every permission.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// UserAuth represents a user of one tenant.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type UserAuth struct {
	ID          string                       `gorm:"primaryKey;size:36" json:"id"`
	Email       string                       `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password    string                       `gorm:"not null" json:"-"`
	Name        string                       `gorm:"size:200" json:"name,omitempty"`
	Role        string                       `gorm:"size:20;default:'user'" json:"role"`
	Permissions datatypes.JSONType[[]string] `json:"permissions"`
	EmployeeID  *uint                        `gorm:"index" json:"employeeId,omitempty"`
	IsActive    bool                         `gorm:"not null" json:"isActive"`
	LastLogin   *time.Time                   `json:"lastLogin,omitempty"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for UserAuth model
func (UserAuth) TableName() string {
	return "user_auths"
}

// BeforeCreate assigns the UUID primary key.
func (u *UserAuth) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// PermissionList returns the granted permission strings.
func (u *UserAuth) PermissionList() []string {
	return u.Permissions.Data()
}
