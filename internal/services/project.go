package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/requestdata"
)

type CreateProjectInput struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ScriptRoot  string         `json:"script_root"`
	Metadata    datatypes.JSON `json:"metadata,omitempty"`
}

type UpdateProjectInput struct {
	Name        *string         `json:"name,omitempty"`
	Description *string         `json:"description,omitempty"`
	ScriptRoot  *string         `json:"script_root,omitempty"`
	Metadata    *datatypes.JSON `json:"metadata,omitempty"`
}

type ProjectService interface {
	CreateProject(ctx context.Context, tx *gorm.DB, input CreateProjectInput) (*types.Project, error)
	GetProject(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Project, error)
	ListProjects(ctx context.Context, tx *gorm.DB) ([]*types.Project, error)
	UpdateProject(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateProjectInput) (*types.Project, error)
	DeleteProject(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type projectService struct {
	db          *gorm.DB
	log         *logger.Logger
	projectRepo repos.ProjectRepo
}

func NewProjectService(db *gorm.DB, baseLog *logger.Logger, projectRepo repos.ProjectRepo) ProjectService {
	return &projectService{
		db:          db,
		log:         baseLog.With("service", "ProjectService"),
		projectRepo: projectRepo,
	}
}

func (s *projectService) CreateProject(ctx context.Context, tx *gorm.DB, input CreateProjectInput) (*types.Project, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	scriptRoot := strings.TrimSpace(input.ScriptRoot)
	if scriptRoot == "" {
		return nil, fmt.Errorf("project script root is required")
	}
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.Project
	err := transaction.Transaction(func(txn *gorm.DB) error {
		taken, err := s.projectRepo.NameExists(ctx, txn, name)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("project %q: %w", name, ErrNameTaken)
		}
		p := &types.Project{
			ID:          uuid.New(),
			Name:        name,
			Description: input.Description,
			ScriptRoot:  scriptRoot,
			Metadata:    input.Metadata,
			CreatedBy:   requestdata.UserEmail(ctx),
		}
		if _, err := s.projectRepo.Create(ctx, txn, []*types.Project{p}); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *projectService) GetProject(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Project, error) {
	projects, err := s.projectRepo.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return projects[0], nil
}

func (s *projectService) ListProjects(ctx context.Context, tx *gorm.DB) ([]*types.Project, error) {
	return s.projectRepo.List(ctx, tx)
}

func (s *projectService) UpdateProject(ctx context.Context, tx *gorm.DB, id uuid.UUID, input UpdateProjectInput) (*types.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	var out *types.Project
	err := transaction.Transaction(func(txn *gorm.DB) error {
		p, err := s.GetProject(ctx, txn, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return fmt.Errorf("project name is required")
			}
			if name != p.Name {
				taken, err := s.projectRepo.NameExists(ctx, txn, name)
				if err != nil {
					return err
				}
				if taken {
					return fmt.Errorf("project %q: %w", name, ErrNameTaken)
				}
				p.Name = name
			}
		}
		if input.Description != nil {
			p.Description = *input.Description
		}
		if input.ScriptRoot != nil {
			scriptRoot := strings.TrimSpace(*input.ScriptRoot)
			if scriptRoot == "" {
				return fmt.Errorf("project script root is required")
			}
			p.ScriptRoot = scriptRoot
		}
		if input.Metadata != nil {
			p.Metadata = *input.Metadata
		}
		if err := s.projectRepo.Update(ctx, txn, p); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteProject soft-deletes the project record. Test cases and fixtures stay
// in place but become unreachable through the project listing; generated
// files on disk are left alone.
func (s *projectService) DeleteProject(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return transaction.Transaction(func(txn *gorm.DB) error {
		if _, err := s.GetProject(ctx, txn, id); err != nil {
			return err
		}
		return s.projectRepo.SoftDeleteByIDs(ctx, txn, []uuid.UUID{id})
	})
}
