package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	FixtureKindExtend = "extend"
	FixtureKindInline = "inline"
)

// Fixture is a reusable step sequence test cases can delegate to. The
// ExportIdentifier is the symbol generated spec files import it by.
type Fixture struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID        uuid.UUID `gorm:"type:uuid;not null;index:idx_fixture_project_name,unique,priority:1" json:"project_id"`
	Project          *Project  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Name             string    `gorm:"column:name;not null;index:idx_fixture_project_name,unique,priority:2" json:"name"`
	Kind             string    `gorm:"column:kind;not null;default:'inline'" json:"kind"` // extend|inline
	ExportIdentifier string    `gorm:"column:export_identifier;not null" json:"export_identifier"`
	Version          string    `gorm:"column:version;not null;default:'1.0'" json:"version"`
	CreatedBy        string    `gorm:"column:created_by" json:"created_by,omitempty"`
	UpdatedBy        string    `gorm:"column:updated_by" json:"updated_by,omitempty"`
	CreatedAt        time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Fixture) TableName() string { return "fixture" }
