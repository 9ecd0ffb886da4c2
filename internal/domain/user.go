package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Email     string         `gorm:"column:email;not null;uniqueIndex" json:"email"`
	Password  string         `gorm:"column:password;not null" json:"-"`
	FirstName string         `gorm:"column:first_name" json:"first_name"`
	LastName  string         `gorm:"column:last_name" json:"last_name"`
	Role      string         `gorm:"column:role;not null;default:'editor'" json:"role"` // admin|editor|viewer
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
