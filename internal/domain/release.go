package domain

import (
	"time"

	"github.com/google/uuid"
)

type Release struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_release_project_name,unique,priority:1" json:"project_id"`
	Project     *Project   `gorm:"constraint:OnDelete:CASCADE;foreignKey:ProjectID;references:ID" json:"project,omitempty"`
	Name        string     `gorm:"column:name;not null;index:idx_release_project_name,unique,priority:2" json:"name"`
	Description string     `gorm:"column:description;type:text" json:"description,omitempty"`
	ReleaseDate *time.Time `gorm:"column:release_date" json:"release_date,omitempty"`
	CreatedBy   string     `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (Release) TableName() string { return "release" }

// ReleaseTestCase binds a test case into a release, pinning the test case's
// version string at binding time. The pin never changes, even when the test
// case is edited afterward.
type ReleaseTestCase struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ReleaseID     uuid.UUID `gorm:"type:uuid;not null;index:idx_release_test_case,unique,priority:1" json:"release_id"`
	Release       *Release  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ReleaseID;references:ID" json:"release,omitempty"`
	TestCaseID    uuid.UUID `gorm:"type:uuid;not null;index:idx_release_test_case,unique,priority:2" json:"test_case_id"`
	TestCase      *TestCase `gorm:"constraint:OnDelete:CASCADE;foreignKey:TestCaseID;references:ID" json:"test_case,omitempty"`
	PinnedVersion string    `gorm:"column:pinned_version;not null" json:"pinned_version"`
	CreatedBy     string    `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ReleaseTestCase) TableName() string { return "release_test_case" }
