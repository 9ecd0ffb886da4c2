package services

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/codegen"
	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/platform/version"
	"github.com/caseforge/caseforge-backend/internal/requestdata"
)

// VersionLedger is the append-only snapshot store. Snapshot* advances the
// parent's version string and writes one immutable version row plus one step
// snapshot per live step — disabled steps included — inside the caller's
// transaction. A step mutation whose transaction commits without a snapshot
// is a correctness violation, so callers never commit between the two.
type VersionLedger interface {
	SnapshotTestCase(ctx context.Context, tx *gorm.DB, tc *types.TestCase) (*types.TestCaseVersion, error)
	SnapshotFixture(ctx context.Context, tx *gorm.DB, fx *types.Fixture) (*types.FixtureVersion, error)
	LatestTestCaseVersion(ctx context.Context, tx *gorm.DB, testCaseID uuid.UUID) (*types.TestCaseVersion, error)
	LatestFixtureVersion(ctx context.Context, tx *gorm.DB, fixtureID uuid.UUID) (*types.FixtureVersion, error)
}

type versionLedger struct {
	db            *gorm.DB
	log           *logger.Logger
	testCaseRepo  repos.TestCaseRepo
	fixtureRepo   repos.FixtureRepo
	stepRepo      repos.StepRepo
	tcVersionRepo repos.TestCaseVersionRepo
	fxVersionRepo repos.FixtureVersionRepo
	stepVerRepo   repos.StepVersionRepo
}

func NewVersionLedger(
	db *gorm.DB,
	baseLog *logger.Logger,
	testCaseRepo repos.TestCaseRepo,
	fixtureRepo repos.FixtureRepo,
	stepRepo repos.StepRepo,
	tcVersionRepo repos.TestCaseVersionRepo,
	fxVersionRepo repos.FixtureVersionRepo,
	stepVerRepo repos.StepVersionRepo,
) VersionLedger {
	return &versionLedger{
		db:            db,
		log:           baseLog.With("service", "VersionLedger"),
		testCaseRepo:  testCaseRepo,
		fixtureRepo:   fixtureRepo,
		stepRepo:      stepRepo,
		tcVersionRepo: tcVersionRepo,
		fxVersionRepo: fxVersionRepo,
		stepVerRepo:   stepVerRepo,
	}
}

func (l *versionLedger) SnapshotTestCase(ctx context.Context, tx *gorm.DB, tc *types.TestCase) (*types.TestCaseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = l.db
	}

	steps, err := l.stepRepo.GetByParent(ctx, transaction, types.TestCaseParent(tc.ID))
	if err != nil {
		return nil, err
	}

	tc.Version = version.Next(tc.Version)
	tc.UpdatedBy = requestdata.UserEmail(ctx)
	if err := l.testCaseRepo.Update(ctx, transaction, tc); err != nil {
		return nil, err
	}

	tcv := &types.TestCaseVersion{
		ID:         uuid.New(),
		TestCaseID: tc.ID,
		Version:    tc.Version,
		Name:       tc.Name,
		CreatedBy:  requestdata.UserEmail(ctx),
	}

	// Best-effort script snapshot: rendering problems must never block the
	// ledger write itself.
	fixtures, err := l.delegatedFixtures(ctx, transaction, steps)
	if err != nil {
		return nil, err
	}
	if script, rerr := codegen.Render(codegen.KindTest, codegen.TestParamsFrom(tc, steps, fixtures)); rerr == nil {
		tcv.Script = &script
	} else {
		l.log.Warn("script snapshot skipped", "test_case_id", tc.ID, "error", rerr)
	}

	if _, err := l.tcVersionRepo.Create(ctx, transaction, []*types.TestCaseVersion{tcv}); err != nil {
		return nil, err
	}

	stepVersions := make([]*types.StepVersion, 0, len(steps))
	for _, st := range steps {
		sv := copyStepToVersion(st)
		sv.TestCaseVersionID = &tcv.ID
		if st.FixtureID != nil {
			fv, err := l.fxVersionRepo.Latest(ctx, transaction, *st.FixtureID)
			if err != nil {
				return nil, err
			}
			if fv != nil {
				sv.DelegateFixtureVersionID = &fv.ID
			}
		}
		stepVersions = append(stepVersions, sv)
	}
	if _, err := l.stepVerRepo.Create(ctx, transaction, stepVersions); err != nil {
		return nil, err
	}

	l.log.Debug("test case snapshot written", "test_case_id", tc.ID, "version", tcv.Version, "steps", len(stepVersions))
	return tcv, nil
}

func (l *versionLedger) SnapshotFixture(ctx context.Context, tx *gorm.DB, fx *types.Fixture) (*types.FixtureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = l.db
	}

	steps, err := l.stepRepo.GetByParent(ctx, transaction, types.FixtureParent(fx.ID))
	if err != nil {
		return nil, err
	}

	fx.Version = version.Next(fx.Version)
	fx.UpdatedBy = requestdata.UserEmail(ctx)
	if err := l.fixtureRepo.Update(ctx, transaction, fx); err != nil {
		return nil, err
	}

	fxv := &types.FixtureVersion{
		ID:               uuid.New(),
		FixtureID:        fx.ID,
		Version:          fx.Version,
		Name:             fx.Name,
		ExportIdentifier: fx.ExportIdentifier,
		CreatedBy:        requestdata.UserEmail(ctx),
	}
	if _, err := l.fxVersionRepo.Create(ctx, transaction, []*types.FixtureVersion{fxv}); err != nil {
		return nil, err
	}

	stepVersions := make([]*types.StepVersion, 0, len(steps))
	for _, st := range steps {
		sv := copyStepToVersion(st)
		sv.FixtureVersionID = &fxv.ID
		stepVersions = append(stepVersions, sv)
	}
	if _, err := l.stepVerRepo.Create(ctx, transaction, stepVersions); err != nil {
		return nil, err
	}

	l.log.Debug("fixture snapshot written", "fixture_id", fx.ID, "version", fxv.Version, "steps", len(stepVersions))
	return fxv, nil
}

func (l *versionLedger) LatestTestCaseVersion(ctx context.Context, tx *gorm.DB, testCaseID uuid.UUID) (*types.TestCaseVersion, error) {
	return l.tcVersionRepo.Latest(ctx, tx, testCaseID)
}

func (l *versionLedger) LatestFixtureVersion(ctx context.Context, tx *gorm.DB, fixtureID uuid.UUID) (*types.FixtureVersion, error) {
	return l.fxVersionRepo.Latest(ctx, tx, fixtureID)
}

func (l *versionLedger) delegatedFixtures(ctx context.Context, tx *gorm.DB, steps []*types.Step) (map[uuid.UUID]*types.Fixture, error) {
	var ids []uuid.UUID
	seen := map[uuid.UUID]bool{}
	for _, st := range steps {
		if st.FixtureID != nil && !seen[*st.FixtureID] {
			seen[*st.FixtureID] = true
			ids = append(ids, *st.FixtureID)
		}
	}
	fixtures, err := l.fixtureRepo.GetByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*types.Fixture, len(fixtures))
	for _, fx := range fixtures {
		byID[fx.ID] = fx
	}
	return byID, nil
}

func copyStepToVersion(st *types.Step) *types.StepVersion {
	return &types.StepVersion{
		ID:                uuid.New(),
		Order:             st.Order,
		ActionDescription: st.ActionDescription,
		InputData:         st.InputData,
		ExpectedResult:    st.ExpectedResult,
		GeneratedCodeLine: st.GeneratedCodeLine,
		Disabled:          st.Disabled,
	}
}
