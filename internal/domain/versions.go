package domain

import (
	"time"

	"github.com/google/uuid"
)

// TestCaseVersion is an immutable, self-contained snapshot of a test case's
// full live step set at one point in time. Rows are append-only: they are
// never updated, only added, and carry the parent's version and name at the
// moment of the change.
type TestCaseVersion struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TestCaseID uuid.UUID `gorm:"type:uuid;not null;index" json:"test_case_id"`
	TestCase   *TestCase `gorm:"constraint:OnDelete:CASCADE;foreignKey:TestCaseID;references:ID" json:"test_case,omitempty"`
	Version    string    `gorm:"column:version;not null" json:"version"`
	Name       string    `gorm:"column:name;not null" json:"name"`
	Script     *string   `gorm:"column:script;type:text" json:"script,omitempty"`
	CreatedBy  string    `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:now();index" json:"created_at"`

	Steps []*StepVersion `gorm:"foreignKey:TestCaseVersionID;references:ID" json:"steps,omitempty"`
}

func (TestCaseVersion) TableName() string { return "test_case_version" }

// FixtureVersion is the fixture counterpart of TestCaseVersion.
type FixtureVersion struct {
	ID               uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FixtureID        uuid.UUID `gorm:"type:uuid;not null;index" json:"fixture_id"`
	Fixture          *Fixture  `gorm:"constraint:OnDelete:CASCADE;foreignKey:FixtureID;references:ID" json:"fixture,omitempty"`
	Version          string    `gorm:"column:version;not null" json:"version"`
	Name             string    `gorm:"column:name;not null" json:"name"`
	ExportIdentifier string    `gorm:"column:export_identifier" json:"export_identifier,omitempty"`
	CreatedBy        string    `gorm:"column:created_by" json:"created_by,omitempty"`
	CreatedAt        time.Time `gorm:"not null;default:now();index" json:"created_at"`

	Steps []*StepVersion `gorm:"foreignKey:FixtureVersionID;references:ID" json:"steps,omitempty"`
}

func (FixtureVersion) TableName() string { return "fixture_version" }

// StepVersion is an immutable copy of one step, owned by exactly one
// TestCaseVersion or FixtureVersion. DelegateFixtureVersionID records which
// FixtureVersion was current for a delegated fixture at snapshot time; it is
// nulled if that fixture is later deleted, in which case revert recreates the
// step without a delegation.
type StepVersion struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`

	TestCaseVersionID *uuid.UUID       `gorm:"type:uuid;column:test_case_version_id;index" json:"test_case_version_id,omitempty"`
	TestCaseVersion   *TestCaseVersion `gorm:"constraint:OnDelete:CASCADE;foreignKey:TestCaseVersionID;references:ID" json:"-"`
	FixtureVersionID  *uuid.UUID       `gorm:"type:uuid;column:fixture_version_id;index" json:"fixture_version_id,omitempty"`
	FixtureVersion    *FixtureVersion  `gorm:"constraint:OnDelete:CASCADE;foreignKey:FixtureVersionID;references:ID" json:"-"`

	DelegateFixtureVersionID *uuid.UUID      `gorm:"type:uuid;column:delegate_fixture_version_id;index" json:"delegate_fixture_version_id,omitempty"`
	DelegateFixtureVersion   *FixtureVersion `gorm:"constraint:OnDelete:SET NULL;foreignKey:DelegateFixtureVersionID;references:ID" json:"-"`

	Order             int     `gorm:"column:step_order;not null" json:"order"`
	ActionDescription string  `gorm:"column:action_description;not null;type:text" json:"action_description"`
	InputData         *string `gorm:"column:input_data;type:text" json:"input_data,omitempty"`
	ExpectedResult    *string `gorm:"column:expected_result;type:text" json:"expected_result,omitempty"`
	GeneratedCodeLine *string `gorm:"column:generated_code_line;type:text" json:"generated_code_line,omitempty"`
	Disabled          bool    `gorm:"column:disabled;not null;default:false" json:"disabled"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (StepVersion) TableName() string { return "step_version" }
