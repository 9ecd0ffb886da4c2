package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type ProjectRepo interface {
	Create(ctx context.Context, tx *gorm.DB, projects []*types.Project) ([]*types.Project, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Project, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Project, error)
	NameExists(ctx context.Context, tx *gorm.DB, name string) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, p *types.Project) error
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{db: db, log: baseLog.With("repo", "ProjectRepo")}
}

func (r *projectRepo) Create(ctx context.Context, tx *gorm.DB, projects []*types.Project) ([]*types.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(projects) == 0 {
		return []*types.Project{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func (r *projectRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Project
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *projectRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Project, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Project
	if err := transaction.WithContext(ctx).
		Order("name asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *projectRepo) NameExists(ctx context.Context, tx *gorm.DB, name string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Project{}).
		Where("name = ?", name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *projectRepo) Update(ctx context.Context, tx *gorm.DB, p *types.Project) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(p).Error
}

func (r *projectRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Project{}).Error
}
