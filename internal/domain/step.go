package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ParentKind string

const (
	ParentTestCase ParentKind = "testcase"
	ParentFixture  ParentKind = "fixture"
)

// ParentRef is the tagged owner of a step: exactly one parent, either a test
// case or a fixture. Modeled as kind+id columns rather than two nullable
// foreign keys so the "exactly one" invariant lives in the type, not in a
// runtime assertion.
type ParentRef struct {
	Kind ParentKind `gorm:"column:parent_kind;not null;index:idx_step_parent,priority:1" json:"parent_kind"`
	ID   uuid.UUID  `gorm:"column:parent_id;type:uuid;not null;index:idx_step_parent,priority:2" json:"parent_id"`
}

func TestCaseParent(id uuid.UUID) ParentRef { return ParentRef{Kind: ParentTestCase, ID: id} }
func FixtureParent(id uuid.UUID) ParentRef  { return ParentRef{Kind: ParentFixture, ID: id} }

func (p ParentRef) Validate() error {
	if p.ID == uuid.Nil {
		return fmt.Errorf("step parent id is required")
	}
	switch p.Kind {
	case ParentTestCase, ParentFixture:
		return nil
	}
	return fmt.Errorf("invalid step parent kind %q", p.Kind)
}

// Step is one ordered unit of test logic. Order values are 0-based, dense and
// unique within the parent scope between mutations; density is enforced by
// the ordering service inside the owning transaction, not by a DB constraint,
// because reorder shifts would transiently collide with a unique index.
type Step struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Parent ParentRef `gorm:"embedded" json:"parent"`

	// Optional delegation: a test-case step may execute a fixture instead of
	// a raw code line. Never set on fixture-owned steps.
	FixtureID *uuid.UUID `gorm:"type:uuid;column:fixture_id;index" json:"fixture_id,omitempty"`
	Fixture   *Fixture   `gorm:"constraint:OnDelete:SET NULL;foreignKey:FixtureID;references:ID" json:"fixture,omitempty"`

	Order             int     `gorm:"column:step_order;not null" json:"order"`
	ActionDescription string  `gorm:"column:action_description;not null;type:text" json:"action_description"`
	InputData         *string `gorm:"column:input_data;type:text" json:"input_data,omitempty"`
	ExpectedResult    *string `gorm:"column:expected_result;type:text" json:"expected_result,omitempty"`
	GeneratedCodeLine *string `gorm:"column:generated_code_line;type:text" json:"generated_code_line,omitempty"`
	Disabled          bool    `gorm:"column:disabled;not null;default:false" json:"disabled"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Step) TableName() string { return "step" }
