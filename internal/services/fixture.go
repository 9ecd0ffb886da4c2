package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/codegen"
	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/platform/version"
	"github.com/caseforge/caseforge-backend/internal/requestdata"
)

type CreateFixtureInput struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	// ExportIdentifier is optional; when empty it is derived from the name.
	ExportIdentifier string `json:"export_identifier,omitempty"`
}

type UpdateFixtureInput struct {
	Name             *string `json:"name,omitempty"`
	Kind             *string `json:"kind,omitempty"`
	ExportIdentifier *string `json:"export_identifier,omitempty"`
}

type FixtureService interface {
	CreateFixture(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, input CreateFixtureInput) (*types.Fixture, error)
	GetFixture(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Fixture, error)
	ListFixtures(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Fixture, error)
	UpdateFixture(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateFixtureInput) (*types.Fixture, error)
	DeleteFixture(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type fixtureService struct {
	db           *gorm.DB
	log          *logger.Logger
	fixtureRepo  repos.FixtureRepo
	stepRepo     repos.StepRepo
	fxVersions   repos.FixtureVersionRepo
	stepVersions repos.StepVersionRepo
}

func NewFixtureService(
	db *gorm.DB,
	baseLog *logger.Logger,
	fixtureRepo repos.FixtureRepo,
	stepRepo repos.StepRepo,
	fxVersions repos.FixtureVersionRepo,
	stepVersions repos.StepVersionRepo,
) FixtureService {
	return &fixtureService{
		db:           db,
		log:          baseLog.With("service", "FixtureService"),
		fixtureRepo:  fixtureRepo,
		stepRepo:     stepRepo,
		fxVersions:   fxVersions,
		stepVersions: stepVersions,
	}
}

func validFixtureKind(kind string) bool {
	return kind == types.FixtureKindExtend || kind == types.FixtureKindInline
}

func (s *fixtureService) CreateFixture(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, input CreateFixtureInput) (*types.Fixture, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("fixture name is required")
	}
	kind := input.Kind
	if kind == "" {
		kind = types.FixtureKindInline
	}
	if !validFixtureKind(kind) {
		return nil, fmt.Errorf("invalid fixture kind %q", kind)
	}
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.Fixture
	err := transaction.Transaction(func(txn *gorm.DB) error {
		taken, err := s.fixtureRepo.NameExists(ctx, txn, projectID, name)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("fixture %q: %w", name, ErrNameTaken)
		}
		exportID := strings.TrimSpace(input.ExportIdentifier)
		if exportID == "" {
			exportID = codegen.ExportIdentifier(name)
		}
		taken, err = s.fixtureRepo.ExportIdentifierExists(ctx, txn, projectID, exportID)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("export identifier %q: %w", exportID, ErrNameTaken)
		}
		fx := &types.Fixture{
			ID:               uuid.New(),
			ProjectID:        projectID,
			Name:             name,
			Kind:             kind,
			ExportIdentifier: exportID,
			Version:          version.Initial,
			CreatedBy:        requestdata.UserEmail(ctx),
			UpdatedBy:        requestdata.UserEmail(ctx),
		}
		if _, err := s.fixtureRepo.Create(ctx, txn, []*types.Fixture{fx}); err != nil {
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

func (s *fixtureService) GetFixture(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Fixture, error) {
	fixtures, err := s.fixtureRepo.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(fixtures) == 0 {
		return nil, fmt.Errorf("fixture %s: %w", id, ErrNotFound)
	}
	return fixtures[0], nil
}

func (s *fixtureService) ListFixtures(ctx context.Context, tx *gorm.DB, projectID uuid.UUID) ([]*types.Fixture, error) {
	return s.fixtureRepo.GetByProjectIDs(ctx, tx, []uuid.UUID{projectID})
}

// UpdateFixture edits metadata only; renames keep the export identifier
// stable so already-generated spec files keep importing the same symbol.
func (s *fixtureService) UpdateFixture(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateFixtureInput) (*types.Fixture, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.Fixture
	err := transaction.Transaction(func(txn *gorm.DB) error {
		fx, err := s.fixtureRepo.GetForUpdate(ctx, txn, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("fixture %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return fmt.Errorf("fixture name is required")
			}
			if name != fx.Name {
				taken, err := s.fixtureRepo.NameExists(ctx, txn, fx.ProjectID, name)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("fixture %q: %w", name, ErrNameTaken)
				}
				fx.Name = name
			}
		}
		if input.Kind != nil {
			if !validFixtureKind(*input.Kind) {
				return fmt.Errorf("invalid fixture kind %q", *input.Kind)
			}
			fx.Kind = *input.Kind
		}
		if input.ExportIdentifier != nil {
			exportID := strings.TrimSpace(*input.ExportIdentifier)
			if exportID == "" {
				return fmt.Errorf("export identifier is required")
			}
			if exportID != fx.ExportIdentifier {
				taken, err := s.fixtureRepo.ExportIdentifierExists(ctx, txn, fx.ProjectID, exportID)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("export identifier %q: %w", exportID, ErrNameTaken)
				}
				fx.ExportIdentifier = exportID
			}
		}
		fx.UpdatedBy = requestdata.UserEmail(ctx)
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

// DeleteFixture removes the fixture, its live steps and its version history,
// then detaches everything still pointing at it: live test case steps lose
// their delegation, and historical step snapshots lose their frozen
// fixture-version reference. Reverting those snapshots later recreates the
// steps without a fixture.
func (s *fixtureService) DeleteFixture(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return transaction.Transaction(func(txn *gorm.DB) error {
		fx, err := s.fixtureRepo.GetForUpdate(ctx, txn, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("fixture %s: %w", id, ErrNotFound)
		}
		if err != nil {
			return err
		}
		history, err := s.fxVersions.GetByFixtureIDs(ctx, txn, []uuid.UUID{fx.ID})
		if err != nil {
			return err
		}
		versionIDs := make([]uuid.UUID, 0, len(history))
		for _, v := range history {
			versionIDs = append(versionIDs, v.ID)
		}
		if err := s.stepVersions.DeleteByFixtureVersionIDs(ctx, txn, versionIDs); err != nil {
			return err
		}
		if err := s.fxVersions.DeleteByFixtureIDs(ctx, txn, []uuid.UUID{fx.ID}); err != nil {
			return err
		}
		if err := s.stepRepo.DeleteByParent(ctx, txn, types.FixtureParent(fx.ID)); err != nil {
			return err
		}
		if err := s.stepRepo.ClearFixtureRefs(ctx, txn, fx.ID); err != nil {
			return err
		}
		return s.fixtureRepo.DeleteByIDs(ctx, txn, []uuid.UUID{fx.ID})
	})
}
