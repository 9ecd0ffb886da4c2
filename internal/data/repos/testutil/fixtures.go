package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/caseforge/caseforge-backend/internal/domain"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, name string) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:         uuid.New(),
		Name:       name,
		ScriptRoot: tb.TempDir(),
		Metadata:   datatypes.JSON([]byte("{}")),
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedTestCase(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string) *types.TestCase {
	tb.Helper()
	tc := &types.TestCase{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      name,
		Tags:      datatypes.JSON([]byte("[]")),
		Version:   "1.0",
	}
	if err := tx.WithContext(ctx).Create(tc).Error; err != nil {
		tb.Fatalf("seed test case: %v", err)
	}
	return tc
}

func SeedFixture(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string) *types.Fixture {
	tb.Helper()
	f := &types.Fixture{
		ID:               uuid.New(),
		ProjectID:        projectID,
		Name:             name,
		Kind:             types.FixtureKindInline,
		ExportIdentifier: fmt.Sprintf("fixture_%s", uuid.NewString()[:8]),
		Version:          "1.0",
	}
	if err := tx.WithContext(ctx).Create(f).Error; err != nil {
		tb.Fatalf("seed fixture: %v", err)
	}
	return f
}

func SeedStep(tb testing.TB, ctx context.Context, tx *gorm.DB, parent types.ParentRef, order int) *types.Step {
	tb.Helper()
	line := fmt.Sprintf("await page.click('#btn-%d');", order)
	s := &types.Step{
		ID:                uuid.New(),
		Parent:            parent,
		Order:             order,
		ActionDescription: fmt.Sprintf("step %d", order),
		GeneratedCodeLine: &line,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed step: %v", err)
	}
	return s
}

func PtrString(v string) *string { return &v }

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
