package materialize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/codegen"
	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

// ErrManualTestCase marks a materialization request for a manual test case;
// manual cases never regenerate source files and callers treat this as a skip.
var ErrManualTestCase = errors.New("manual test case has no generated file")

// Materializer renders a parent's current state to a source file under the
// owning project's script root. It runs after the data transaction has
// committed: a failure here is logged and surfaced as a warning, never rolled
// back into the mutation that triggered it. Writes are idempotent, so any
// failed materialization can simply be retried.
type Materializer interface {
	MaterializeTestCase(ctx context.Context, testCaseID uuid.UUID) (string, error)
	MaterializeFixture(ctx context.Context, fixtureID uuid.UUID) (string, error)
	// RematerializeProject regenerates every file of the project, skipping
	// manual test cases.
	RematerializeProject(ctx context.Context, projectID uuid.UUID) error
}

type materializer struct {
	db           *gorm.DB
	log          *logger.Logger
	projectRepo  repos.ProjectRepo
	testCaseRepo repos.TestCaseRepo
	fixtureRepo  repos.FixtureRepo
	stepRepo     repos.StepRepo
}

func New(
	db *gorm.DB,
	baseLog *logger.Logger,
	projectRepo repos.ProjectRepo,
	testCaseRepo repos.TestCaseRepo,
	fixtureRepo repos.FixtureRepo,
	stepRepo repos.StepRepo,
) Materializer {
	return &materializer{
		db:           db,
		log:          baseLog.With("service", "Materializer"),
		projectRepo:  projectRepo,
		testCaseRepo: testCaseRepo,
		fixtureRepo:  fixtureRepo,
		stepRepo:     stepRepo,
	}
}

// TestCasePath is where a test case's spec file lands under the script root.
func TestCasePath(scriptRoot, testCaseName string) string {
	return filepath.Join(scriptRoot, codegen.FileStem(testCaseName)+".spec.ts")
}

// FixturePath is where a fixture's module lands; the fixtures subdirectory
// matches the import path generated spec files use.
func FixturePath(scriptRoot, fixtureName string) string {
	return filepath.Join(scriptRoot, "fixtures", codegen.FileStem(fixtureName)+".ts")
}

func (m *materializer) MaterializeTestCase(ctx context.Context, testCaseID uuid.UUID) (string, error) {
	cases, err := m.testCaseRepo.GetByIDs(ctx, nil, []uuid.UUID{testCaseID})
	if err != nil {
		return "", err
	}
	if len(cases) == 0 {
		return "", fmt.Errorf("test case %s not found", testCaseID)
	}
	tc := cases[0]
	if tc.IsManual {
		return "", ErrManualTestCase
	}
	projects, err := m.projectRepo.GetByIDs(ctx, nil, []uuid.UUID{tc.ProjectID})
	if err != nil {
		return "", err
	}
	if len(projects) == 0 {
		return "", fmt.Errorf("project %s not found", tc.ProjectID)
	}
	steps, err := m.stepRepo.GetByParent(ctx, nil, types.TestCaseParent(tc.ID))
	if err != nil {
		return "", err
	}
	fixtures, err := m.delegatedFixtures(ctx, steps)
	if err != nil {
		return "", err
	}
	content, err := codegen.Render(codegen.KindTest, codegen.TestParamsFrom(tc, steps, fixtures))
	if err != nil {
		return "", err
	}
	path := TestCasePath(projects[0].ScriptRoot, tc.Name)
	if err := writeFile(path, content); err != nil {
		return "", err
	}
	m.log.Info("materialized test case", "test_case_id", tc.ID, "path", path)
	return path, nil
}

func (m *materializer) MaterializeFixture(ctx context.Context, fixtureID uuid.UUID) (string, error) {
	fixtures, err := m.fixtureRepo.GetByIDs(ctx, nil, []uuid.UUID{fixtureID})
	if err != nil {
		return "", err
	}
	if len(fixtures) == 0 {
		return "", fmt.Errorf("fixture %s not found", fixtureID)
	}
	fx := fixtures[0]
	projects, err := m.projectRepo.GetByIDs(ctx, nil, []uuid.UUID{fx.ProjectID})
	if err != nil {
		return "", err
	}
	if len(projects) == 0 {
		return "", fmt.Errorf("project %s not found", fx.ProjectID)
	}
	steps, err := m.stepRepo.GetByParent(ctx, nil, types.FixtureParent(fx.ID))
	if err != nil {
		return "", err
	}
	content, err := codegen.Render(codegen.KindFixture, codegen.FixtureParamsFrom(fx, steps))
	if err != nil {
		return "", err
	}
	path := FixturePath(projects[0].ScriptRoot, fx.Name)
	if err := writeFile(path, content); err != nil {
		return "", err
	}
	m.log.Info("materialized fixture", "fixture_id", fx.ID, "path", path)
	return path, nil
}

func (m *materializer) RematerializeProject(ctx context.Context, projectID uuid.UUID) error {
	testCases, err := m.testCaseRepo.GetByProjectIDs(ctx, nil, []uuid.UUID{projectID})
	if err != nil {
		return err
	}
	fixtures, err := m.fixtureRepo.GetByProjectIDs(ctx, nil, []uuid.UUID{projectID})
	if err != nil {
		return err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, fx := range fixtures {
		id := fx.ID
		g.Go(func() error {
			_, err := m.MaterializeFixture(gctx, id)
			return err
		})
	}
	for _, tc := range testCases {
		if tc.IsManual {
			continue
		}
		id := tc.ID
		g.Go(func() error {
			_, err := m.MaterializeTestCase(gctx, id)
			return err
		})
	}
	return g.Wait()
}

func (m *materializer) delegatedFixtures(ctx context.Context, steps []*types.Step) (map[uuid.UUID]*types.Fixture, error) {
	ids := make([]uuid.UUID, 0, len(steps))
	seen := map[uuid.UUID]bool{}
	for _, st := range steps {
		if st.FixtureID != nil && !seen[*st.FixtureID] {
			seen[*st.FixtureID] = true
			ids = append(ids, *st.FixtureID)
		}
	}
	fixtures, err := m.fixtureRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Fixture, len(fixtures))
	for _, fx := range fixtures {
		byID[fx.ID] = fx
	}
	return byID, nil
}

func writeFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write generated file: %w", err)
	}
	return nil
}
