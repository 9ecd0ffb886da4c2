package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Project is the namespace for test cases, fixtures and releases. ScriptRoot
// is the directory generated spec files are written under; two projects never
// share a root.
type Project struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name        string         `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	ScriptRoot  string         `gorm:"column:script_root;not null" json:"script_root"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedBy   string         `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Project) TableName() string { return "project" }
