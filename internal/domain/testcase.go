package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// TestCase owns a live ordered step set and a monotonically advancing version
// string. Manual test cases never regenerate source files.
type TestCase struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID   uuid.UUID      `gorm:"type:uuid;not null;index:idx_test_case_project_name,unique,priority:1" json:"project_id"`
	Project     *Project       `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Name        string         `gorm:"column:name;not null;index:idx_test_case_project_name,unique,priority:2" json:"name"`
	Description string         `gorm:"column:description;type:text" json:"description,omitempty"`
	Tags        datatypes.JSON `gorm:"column:tags;type:jsonb" json:"tags,omitempty"`
	Version     string         `gorm:"column:version;not null;default:'1.0'" json:"version"`
	IsManual    bool           `gorm:"column:is_manual;not null;default:false" json:"is_manual"`
	CreatedBy   string         `gorm:"column:created_by" json:"created_by,omitempty"`
	UpdatedBy   string         `gorm:"column:updated_by" json:"updated_by,omitempty"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (TestCase) TableName() string { return "test_case" }
