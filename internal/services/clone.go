package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/codegen"
	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/platform/version"
	"github.com/caseforge/caseforge-backend/internal/requestdata"
)

// CloneService deep-copies a test case or fixture under a probed unique name.
// Clones are independent entities: version resets to "1.0", history starts
// empty, and the source is never touched. Delegated fixtures are deep-cloned
// too, once per source fixture no matter how many steps reference it.
type CloneService interface {
	CloneTestCase(ctx context.Context, tx *gorm.DB, testCaseID uuid.UUID) (*types.TestCase, error)
	CloneFixture(ctx context.Context, tx *gorm.DB, fixtureID uuid.UUID) (*types.Fixture, error)
}

type cloneService struct {
	db           *gorm.DB
	log          *logger.Logger
	testCaseRepo repos.TestCaseRepo
	fixtureRepo  repos.FixtureRepo
	stepRepo     repos.StepRepo
}

func NewCloneService(
	db *gorm.DB,
	baseLog *logger.Logger,
	testCaseRepo repos.TestCaseRepo,
	fixtureRepo repos.FixtureRepo,
	stepRepo repos.StepRepo,
) CloneService {
	return &cloneService{
		db:           db,
		log:          baseLog.With("service", "CloneService"),
		testCaseRepo: testCaseRepo,
		fixtureRepo:  fixtureRepo,
		stepRepo:     stepRepo,
	}
}

func (s *cloneService) CloneTestCase(ctx context.Context, tx *gorm.DB, testCaseID uuid.UUID) (*types.TestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.TestCase
	err := transaction.Transaction(func(txn *gorm.DB) error {
		src, err := s.testCaseRepo.GetForUpdate(ctx, txn, testCaseID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("test case %s: %w", testCaseID, ErrNotFound)
		}
		if err != nil {
			return err
		}
		srcSteps, err := s.stepRepo.GetByParent(ctx, txn, types.TestCaseParent(src.ID))
		if err != nil {
			return err
		}

		name, err := nextFreeName(src.Name, func(candidate string) (bool, error) {
			return s.testCaseRepo.NameExists(ctx, txn, src.ProjectID, candidate)
		})
		if err != nil {
			return err
		}

		clone := &types.TestCase{
			ID:          uuid.New(),
			ProjectID:   src.ProjectID,
			Name:        name,
			Description: src.Description,
			Tags:        src.Tags,
			Version:     version.Initial,
			IsManual:    src.IsManual,
			CreatedBy:   requestdata.UserEmail(ctx),
			UpdatedBy:   requestdata.UserEmail(ctx),
		}
		if _, err := s.testCaseRepo.Create(ctx, txn, []*types.TestCase{clone}); err != nil {
			return err
		}

		fixtureClones := map[uuid.UUID]uuid.UUID{}
		parent := types.TestCaseParent(clone.ID)
		steps := make([]*types.Step, 0, len(srcSteps))
		for _, st := range srcSteps {
			cp := &types.Step{
				ID:                uuid.New(),
				Parent:            parent,
				Order:             st.Order,
				ActionDescription: st.ActionDescription,
				InputData:         st.InputData,
				ExpectedResult:    st.ExpectedResult,
				GeneratedCodeLine: st.GeneratedCodeLine,
				Disabled:          st.Disabled,
			}
			if st.FixtureID != nil {
				clonedID, err := s.cloneFixtureOnce(ctx, txn, *st.FixtureID, fixtureClones)
				if err != nil {
					return err
				}
				cp.FixtureID = &clonedID
			}
			steps = append(steps, cp)
		}
		if _, err := s.stepRepo.Create(ctx, txn, steps); err != nil {
			return err
		}
		out = clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *cloneService) CloneFixture(ctx context.Context, tx *gorm.DB, fixtureID uuid.UUID) (*types.Fixture, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.Fixture
	err := transaction.Transaction(func(txn *gorm.DB) error {
		clone, err := s.cloneFixtureTx(ctx, txn, fixtureID)
		if err != nil {
			return err
		}
		out = clone
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// cloneFixtureOnce memoizes fixture clones within one clone operation so two
// steps delegating to the same fixture share a single copy.
func (s *cloneService) cloneFixtureOnce(ctx context.Context, txn *gorm.DB, fixtureID uuid.UUID, memo map[uuid.UUID]uuid.UUID) (uuid.UUID, error) {
	if id, ok := memo[fixtureID]; ok {
		return id, nil
	}
	clone, err := s.cloneFixtureTx(ctx, txn, fixtureID)
	if err != nil {
		return uuid.Nil, err
	}
	memo[fixtureID] = clone.ID
	return clone.ID, nil
}

func (s *cloneService) cloneFixtureTx(ctx context.Context, txn *gorm.DB, fixtureID uuid.UUID) (*types.Fixture, error) {
	src, err := s.fixtureRepo.GetForUpdate(ctx, txn, fixtureID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("fixture %s: %w", fixtureID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	srcSteps, err := s.stepRepo.GetByParent(ctx, txn, types.FixtureParent(src.ID))
	if err != nil {
		return nil, err
	}

	name, err := nextFreeName(src.Name, func(candidate string) (bool, error) {
		return s.fixtureRepo.NameExists(ctx, txn, src.ProjectID, candidate)
	})
	if err != nil {
		return nil, err
	}
	exportID, err := s.freeExportIdentifier(ctx, txn, src.ProjectID, name)
	if err != nil {
		return nil, err
	}

	clone := &types.Fixture{
		ID:               uuid.New(),
		ProjectID:        src.ProjectID,
		Name:             name,
		Kind:             src.Kind,
		ExportIdentifier: exportID,
		Version:          version.Initial,
		CreatedBy:        requestdata.UserEmail(ctx),
		UpdatedBy:        requestdata.UserEmail(ctx),
	}
	if _, err := s.fixtureRepo.Create(ctx, txn, []*types.Fixture{clone}); err != nil {
		return nil, err
	}

	parent := types.FixtureParent(clone.ID)
	steps := make([]*types.Step, 0, len(srcSteps))
	for _, st := range srcSteps {
		steps = append(steps, &types.Step{
			ID:                uuid.New(),
			Parent:            parent,
			Order:             st.Order,
			ActionDescription: st.ActionDescription,
			InputData:         st.InputData,
			ExpectedResult:    st.ExpectedResult,
			GeneratedCodeLine: st.GeneratedCodeLine,
			Disabled:          st.Disabled,
		})
	}
	if _, err := s.stepRepo.Create(ctx, txn, steps); err != nil {
		return nil, err
	}
	return clone, nil
}

// freeExportIdentifier derives the export symbol from the clone's name and
// probes for project-level uniqueness; name sanitization can collide even
// when names differ.
func (s *cloneService) freeExportIdentifier(ctx context.Context, txn *gorm.DB, projectID uuid.UUID, name string) (string, error) {
	base := codegen.ExportIdentifier(name)
	for n := 0; n < copyNameBudget; n++ {
		candidate := base
		if n > 0 {
			candidate = fmt.Sprintf("%s%d", base, n+1)
		}
		taken, err := s.fixtureRepo.ExportIdentifierExists(ctx, txn, projectID, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrCopyNameExhausted
}
