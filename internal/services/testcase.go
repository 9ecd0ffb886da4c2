package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/platform/version"
	"github.com/caseforge/caseforge-backend/internal/requestdata"
)

type CreateTestCaseInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Tags        datatypes.JSON `json:"tags,omitempty"`
	IsManual    bool           `json:"is_manual"`
}

type UpdateTestCaseInput struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	Tags        *datatypes.JSON `json:"tags,omitempty"`
	IsManual    *bool           `json:"is_manual,omitempty"`
}

// TestCaseService covers test case lifecycle outside the step set. Metadata
// edits (rename, tags, description) do not touch steps and therefore do not
// snapshot or bump the version.
type TestCaseService interface {
	CreateTestCase(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, input CreateTestCaseInput) (*types.TestCase, error)
	GetTestCase(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TestCase, error)
	ListTestCases(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.TestCase, error)
	UpdateTestCase(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateTestCaseInput) (*types.TestCase, error)
	DeleteTestCase(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type testCaseService struct {
	db           *gorm.DB
	log          *logger.Logger
	testCaseRepo repos.TestCaseRepo
	stepRepo     repos.StepRepo
	tcVersions   repos.TestCaseVersionRepo
	stepVersions repos.StepVersionRepo
	bindings     repos.ReleaseTestCaseRepo
}

func NewTestCaseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	testCaseRepo repos.TestCaseRepo,
	stepRepo repos.StepRepo,
	tcVersions repos.TestCaseVersionRepo,
	stepVersions repos.StepVersionRepo,
	bindings repos.ReleaseTestCaseRepo,
) TestCaseService {
	return &testCaseService{
		db:           db,
		log:          baseLog.With("service", "TestCaseService"),
		testCaseRepo: testCaseRepo,
		stepRepo:     stepRepo,
		tcVersions:   tcVersions,
		stepVersions: stepVersions,
		bindings:     bindings,
	}
}

func (s *testCaseService) CreateTestCase(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, input CreateTestCaseInput) (*types.TestCase, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("test case name is required")
	}
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.TestCase
	err := transaction.Transaction(func(txn *gorm.DB) error {
		taken, err := s.testCaseRepo.NameExists(ctx, txn, projectID, name)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("test case %q: %w", name, ErrNameTaken)
		}
		tc := &types.TestCase{
			ID:          uuid.New(),
			ProjectID:   projectID,
			Name:        name,
			Description: input.Description,
			Tags:        input.Tags,
			Version:     version.Initial,
			IsManual:    input.IsManual,
			CreatedBy:   requestdata.UserEmail(ctx),
			UpdatedBy:   requestdata.UserEmail(ctx),
		}
		if _, err := s.testCaseRepo.Create(ctx, txn, []*types.TestCase{tc}); err != nil {
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

func (s *testCaseService) GetTestCase(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TestCase, error) {
	cases, err := s.testCaseRepo.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("test case %s: %w", id, ErrNotFound)
	}
	return cases[0], nil
}

func (s *testCaseService) ListTestCases(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.TestCase, error) {
	return s.testCaseRepo.GetByProjectIDs(ctx, tx, []uuid.UUID{projectID})
}

func (s *testCaseService) UpdateTestCase(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateTestCaseInput) (*types.TestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.TestCase
	err := transaction.Transaction(func(txn *gorm.DB) error {
		tc, err := s.testCaseRepo.GetForUpdate(ctx, txn, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("test case %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return fmt.Errorf("test case name is required")
			}
			if name != tc.Name {
				taken, err := s.testCaseRepo.NameExists(ctx, txn, tc.ProjectID, name)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("test case %q: %w", name, ErrNameTaken)
				}
				tc.Name = name
			}
		}
		if input.Description != nil {
			tc.Description = *input.Description
		}
		if input.Tags != nil {
			tc.Tags = *input.Tags
		}
		if input.IsManual != nil {
			tc.IsManual = *input.IsManual
		}
		tc.UpdatedBy = requestdata.UserEmail(ctx)
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

// DeleteTestCase removes the test case together with its live steps, its
// whole version history and any release bindings. Migrations run without
// database-enforced foreign keys, so the cascade is explicit here.
func (s *testCaseService) DeleteTestCase(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return transaction.Transaction(func(txn *gorm.DB) error {
		tc, err := s.testCaseRepo.GetForUpdate(ctx, txn, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("test case %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		history, err := s.tcVersions.GetByTestCaseIDs(ctx, txn, []uuid.UUID{tc.ID})
		if err != nil {
			return err
		}
		versionIDs := make([]uuid.UUID, 0, len(history))
		for _, v := range history {
			versionIDs = append(versionIDs, v.ID)
		}
		if err := s.stepVersions.DeleteByTestCaseVersionIDs(ctx, txn, versionIDs); err != nil {
			return err
		}
		if err := s.tcVersions.DeleteByTestCaseIDs(ctx, txn, []uuid.UUID{tc.ID}); err != nil {
			return err
		}
		if err := s.stepRepo.DeleteByParent(ctx, txn, types.TestCaseParent(tc.ID)); err != nil {
			return err
		}
		if err := s.bindings.DeleteByTestCaseIDs(ctx, txn, []uuid.UUID{tc.ID}); err != nil {
			return err
		}
		return s.testCaseRepo.DeleteByIDs(ctx, txn, []uuid.UUID{tc.ID})
	})
}
