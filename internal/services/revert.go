package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/platform/version"
)

// RevertService rolls a parent forward to the shape of a historical version.
// It never rewrites history: the pre-revert live state is snapshotted first,
// the live steps are replaced from the target snapshot, and the parent's
// version advances past its pre-revert value.
type RevertService interface {
	RevertTestCase(ctx context.Context, tx *gorm.DB, testCaseID, targetVersionID uuid.UUID) (*types.TestCase, error)
	RevertFixture(ctx context.Context, tx *gorm.DB, fixtureID, targetVersionID uuid.UUID) (*types.Fixture, error)
	ListTestCaseHistory(ctx context.Context, tx *gorm.DB, testCaseID uuid.UUID) ([]*types.TestCaseVersion, error)
	ListFixtureHistory(ctx context.Context, tx *gorm.DB, fixtureID uuid.UUID) ([]*types.FixtureVersion, error)
}

type revertService struct {
	db           *gorm.DB
	log          *logger.Logger
	testCaseRepo repos.TestCaseRepo
	fixtureRepo  repos.FixtureRepo
	stepRepo     repos.StepRepo
	tcVersions   repos.TestCaseVersionRepo
	fxVersions   repos.FixtureVersionRepo
	stepVersions repos.StepVersionRepo
	ordering     OrderingService
	ledger       VersionLedger
}

func NewRevertService(
	db *gorm.DB,
	baseLog *logger.Logger,
	testCaseRepo repos.TestCaseRepo,
	fixtureRepo repos.FixtureRepo,
	stepRepo repos.StepRepo,
	tcVersions repos.TestCaseVersionRepo,
	fxVersions repos.FixtureVersionRepo,
	stepVersions repos.StepVersionRepo,
	ordering OrderingService,
	ledger VersionLedger,
) RevertService {
	return &revertService{
		db:           db,
		log:          baseLog.With("service", "RevertService"),
		testCaseRepo: testCaseRepo,
		fixtureRepo:  fixtureRepo,
		stepRepo:     stepRepo,
		tcVersions:   tcVersions,
		fxVersions:   fxVersions,
		stepVersions: stepVersions,
		ordering:     ordering,
		ledger:       ledger,
	}
}

func (s *revertService) RevertTestCase(ctx context.Context, tx *gorm.DB, testCaseID, targetVersionID uuid.UUID) (*types.TestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.TestCase
	err := transaction.Transaction(func(txn *gorm.DB) error {
		tc, err := s.testCaseRepo.GetForUpdate(ctx, txn, testCaseID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("test case %s: %w", testCaseID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		preVersion := tc.Version

		target, err := s.findTestCaseTarget(ctx, txn, testCaseID, targetVersionID)
		if err != nil {
			return err
		}
		snapshots, err := s.targetTestCaseSteps(ctx, txn, target.ID)
		if err != nil {
			return err
		}

		// Preserve the pre-revert live state before touching it.
		if _, err := s.ledger.SnapshotTestCase(ctx, txn, tc); err != nil {
			return err
		}

		parent := types.TestCaseParent(tc.ID)
		if err := s.stepRepo.DeleteByParent(ctx, txn, parent); err != nil {
			return err
		}
		live := make([]*types.Step, 0, len(snapshots))
		for _, sv := range snapshots {
			step := stepFromSnapshot(parent, sv)
			step.FixtureID, err = s.resolveDelegate(ctx, txn, sv.DelegateFixtureVersionID)
			if err != nil {
				return err
			}
			live = append(live, step)
		}
		if _, err := s.stepRepo.Create(ctx, txn, live); err != nil {
			return err
		}
		if err := s.ordering.VerifyDense(ctx, txn, parent); err != nil {
			return err
		}

		// The bump applies to the pre-revert version, which SnapshotTestCase
		// already advanced past. Re-assert it against preVersion so the two
		// stay the same value by construction.
		tc.Version = version.Next(preVersion)
		if err := s.testCaseRepo.Update(ctx, txn, tc); err != nil {
			return err
		}
		out = tc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *revertService) RevertFixture(ctx context.Context, tx *gorm.DB, fixtureID, targetVersionID uuid.UUID) (*types.Fixture, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.Fixture
	err := transaction.Transaction(func(txn *gorm.DB) error {
		fx, err := s.fixtureRepo.GetForUpdate(ctx, txn, fixtureID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("fixture %s: %w", fixtureID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		preVersion := fx.Version

		target, err := s.findFixtureTarget(ctx, txn, fixtureID, targetVersionID)
		if err != nil {
			return err
		}
		snapshots, err := s.targetFixtureSteps(ctx, txn, target.ID)
		if err != nil {
			return err
		}

		if _, err := s.ledger.SnapshotFixture(ctx, txn, fx); err != nil {
			return err
		}

		parent := types.FixtureParent(fx.ID)
		if err := s.stepRepo.DeleteByParent(ctx, txn, parent); err != nil {
			return err
		}
		live := make([]*types.Step, 0, len(snapshots))
		for _, sv := range snapshots {
			live = append(live, stepFromSnapshot(parent, sv))
		}
		if _, err := s.stepRepo.Create(ctx, txn, live); err != nil {
			return err
		}
		if err := s.ordering.VerifyDense(ctx, txn, parent); err != nil {
			return err
		}

		fx.Version = version.Next(preVersion)
		if err := s.fixtureRepo.Update(ctx, txn, fx); err != nil {
			return err
		}
		out = fx
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *revertService) ListTestCaseHistory(ctx context.Context, tx *gorm.DB, testCaseID uuid.UUID) ([]*types.TestCaseVersion, error) {
	return s.tcVersions.GetByTestCaseIDs(ctx, tx, []uuid.UUID{testCaseID})
}

func (s *revertService) ListFixtureHistory(ctx context.Context, tx *gorm.DB, fixtureID uuid.UUID) ([]*types.FixtureVersion, error) {
	return s.fxVersions.GetByFixtureIDs(ctx, tx, []uuid.UUID{fixtureID})
}

func (s *revertService) findTestCaseTarget(ctx context.Context, txn *gorm.DB, testCaseID, targetVersionID uuid.UUID) (*types.TestCaseVersion, error) {
	versions, err := s.tcVersions.GetByIDs(ctx, txn, []uuid.UUID{targetVersionID})
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 || versions[0].TestCaseID != testCaseID {
		return nil, ErrVersionNotFound
	}
	return versions[0], nil
}

func (s *revertService) findFixtureTarget(ctx context.Context, txn *gorm.DB, fixtureID, targetVersionID uuid.UUID) (*types.FixtureVersion, error) {
	versions, err := s.fxVersions.GetByIDs(ctx, txn, []uuid.UUID{targetVersionID})
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 || versions[0].FixtureID != fixtureID {
		return nil, ErrVersionNotFound
	}
	return versions[0], nil
}

// targetTestCaseSteps loads the target snapshot's step rows, re-fetching once
// before treating an empty set as corruption.
func (s *revertService) targetTestCaseSteps(ctx context.Context, txn *gorm.DB, versionID uuid.UUID) ([]*types.StepVersion, error) {
	snapshots, err := s.stepVersions.GetByTestCaseVersionIDs(ctx, txn, []uuid.UUID{versionID})
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		snapshots, err = s.stepVersions.GetByTestCaseVersionIDs(ctx, txn, []uuid.UUID{versionID})
		if err != nil {
			return nil, err
		}
	}
	if len(snapshots) == 0 {
		return nil, ErrEmptyHistorySnapshot
	}
	return snapshots, nil
}

func (s *revertService) targetFixtureSteps(ctx context.Context, txn *gorm.DB, versionID uuid.UUID) ([]*types.StepVersion, error) {
	snapshots, err := s.stepVersions.GetByFixtureVersionIDs(ctx, txn, []uuid.UUID{versionID})
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		snapshots, err = s.stepVersions.GetByFixtureVersionIDs(ctx, txn, []uuid.UUID{versionID})
		if err != nil {
			return nil, err
		}
	}
	if len(snapshots) == 0 {
		return nil, ErrEmptyHistorySnapshot
	}
	return snapshots, nil
}

// resolveDelegate maps a frozen FixtureVersion reference back to the live
// Fixture it belonged to. A fixture deleted since the snapshot was taken
// drops the reference instead of failing the revert.
func (s *revertService) resolveDelegate(ctx context.Context, txn *gorm.DB, delegateVersionID *uuid.UUID) (*uuid.UUID, error) {
	if delegateVersionID == nil {
		return nil, nil
	}
	versions, err := s.fxVersions.GetByIDs(ctx, txn, []uuid.UUID{*delegateVersionID})
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, nil
	}
	fixtures, err := s.fixtureRepo.GetByIDs(ctx, txn, []uuid.UUID{versions[0].FixtureID})
	if err != nil {
		return nil, err
	}
	if len(fixtures) == 0 {
		s.log.Warn("delegated fixture gone, dropping reference on revert", "fixture_version_id", *delegateVersionID)
		return nil, nil
	}
	id := fixtures[0].ID
	return &id, nil
}

func stepFromSnapshot(parent types.ParentRef, sv *types.StepVersion) *types.Step {
	return &types.Step{
		ID:                uuid.New(),
		Parent:            parent,
		Order:             sv.Order,
		ActionDescription: sv.ActionDescription,
		InputData:         sv.InputData,
		ExpectedResult:    sv.ExpectedResult,
		GeneratedCodeLine: sv.GeneratedCodeLine,
		Disabled:          sv.Disabled,
	}
}
