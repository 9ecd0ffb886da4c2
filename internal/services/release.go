package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/requestdata"
)

type CreateReleaseInput struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ReleaseDate *time.Time `json:"release_date,omitempty"`
}

// ReleaseService manages releases and their test case bindings. Binding pins
// the test case's version string as of binding time; later edits to the test
// case never move the pin.
type ReleaseService interface {
	CreateRelease(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, input CreateReleaseInput) (*types.Release, error)
	GetRelease(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Release, error)
	ListReleases(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Release, error)
	DeleteRelease(ctx context.Context, tx *gorm.DB, id uuid.UUID) error

	BindTestCase(ctx context.Context, tx *gorm.DB, releaseID, testCaseID uuid.UUID) (*types.ReleaseTestCase, error)
	UnbindTestCase(ctx context.Context, tx *gorm.DB, releaseID, testCaseID uuid.UUID) error
	ListBindings(ctx context.Context, tx *gorm.DB, releaseID uuid.UUID) ([]*types.ReleaseTestCase, error)
}

type releaseService struct {
	db           *gorm.DB
	log          *logger.Logger
	releaseRepo  repos.ReleaseRepo
	bindings     repos.ReleaseTestCaseRepo
	testCaseRepo repos.TestCaseRepo
}

func NewReleaseService(
	db *gorm.DB,
	baseLog *logger.Logger,
	releaseRepo repos.ReleaseRepo,
	bindings repos.ReleaseTestCaseRepo,
	testCaseRepo repos.TestCaseRepo,
) ReleaseService {
	return &releaseService{
		db:           db,
		log:          baseLog.With("service", "ReleaseService"),
		releaseRepo:  releaseRepo,
		bindings:     bindings,
		testCaseRepo: testCaseRepo,
	}
}

func (s *releaseService) CreateRelease(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, input CreateReleaseInput) (*types.Release, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("release name is required")
	}
	r := &types.Release{
		ID:          uuid.New(),
		ProjectID:   projectID,
		Name:        name,
		Description: input.Description,
		ReleaseDate: input.ReleaseDate,
		CreatedBy:   requestdata.UserEmail(ctx),
	}
	if _, err := s.releaseRepo.Create(ctx, tx, []*types.Release{r}); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *releaseService) GetRelease(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Release, error) {
	releases, err := s.releaseRepo.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(releases) == 0 {
		return nil, fmt.Errorf("release %s: %w", id, ErrNotFound)
	}
	return releases[0], nil
}

func (s *releaseService) ListReleases(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Release, error) {
	return s.releaseRepo.GetByProjectIDs(ctx, tx, []uuid.UUID{projectID})
}

func (s *releaseService) DeleteRelease(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return transaction.Transaction(func(txn *gorm.DB) error {
		if _, err := s.GetRelease(ctx, txn, id); err != nil {
			return err
		}
		if err := s.bindings.DeleteByReleaseIDs(ctx, txn, []uuid.UUID{id}); err != nil {
			return err
		}
		return s.releaseRepo.DeleteByIDs(ctx, txn, []uuid.UUID{id})
	})
}

func (s *releaseService) BindTestCase(ctx context.Context, tx *gorm.DB, releaseID, testCaseID uuid.UUID) (*types.ReleaseTestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.ReleaseTestCase
	err := transaction.Transaction(func(txn *gorm.DB) error {
		release, err := s.GetRelease(ctx, txn, releaseID)
		if err != nil {
			return err
		}
		cases, err := s.testCaseRepo.GetByIDs(ctx, txn, []uuid.UUID{testCaseID})
		if err != nil {
			return err
		}
		if len(cases) == 0 {
			return fmt.Errorf("test case %s: %w", testCaseID, ErrNotFound)
		}
		tc := cases[0]
		if tc.ProjectID != release.ProjectID {
			return fmt.Errorf("test case %s belongs to a different project than release %s", testCaseID, releaseID)
		}
		exists, err := s.bindings.Exists(ctx, txn, releaseID, testCaseID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("test case %s is already bound to release %s", testCaseID, releaseID)
		}
		binding := &types.ReleaseTestCase{
			ID:            uuid.New(),
			ReleaseID:     releaseID,
			TestCaseID:    testCaseID,
			PinnedVersion: tc.Version,
			CreatedBy:     requestdata.UserEmail(ctx),
		}
		if _, err := s.bindings.Create(ctx, txn, []*types.ReleaseTestCase{binding}); err != nil {
			return err
		}
		out = binding
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *releaseService) UnbindTestCase(ctx context.Context, tx *gorm.DB, releaseID, testCaseID uuid.UUID) error {
	return s.bindings.Delete(ctx, tx, releaseID, testCaseID)
}

func (s *releaseService) ListBindings(ctx context.Context, tx *gorm.DB, releaseID uuid.UUID) ([]*types.ReleaseTestCase, error) {
	return s.bindings.GetByReleaseIDs(ctx, tx, []uuid.UUID{releaseID})
}
