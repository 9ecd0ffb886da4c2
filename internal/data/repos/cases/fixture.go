package cases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type FixtureRepo interface {
	Create(ctx context.Context, tx *gorm.DB, fixtures []*types.Fixture) ([]*types.Fixture, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Fixture, error)
	GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.Fixture, error)
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Fixture, error)
	NameExists(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string) (bool, error)
	ExportIdentifierExists(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, exportIdentifier string) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, f *types.Fixture) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type fixtureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFixtureRepo(db *gorm.DB, baseLog *logger.Logger) FixtureRepo {
	return &fixtureRepo{db: db, log: baseLog.With("repo", "FixtureRepo")}
}

func (r *fixtureRepo) Create(ctx context.Context, tx *gorm.DB, fixtures []*types.Fixture) ([]*types.Fixture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fixtures) == 0 {
		return []*types.Fixture{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&fixtures).Error; err != nil {
		return nil, err
	}
	return fixtures, nil
}

func (r *fixtureRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Fixture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Fixture
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

func (r *fixtureRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.Fixture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Fixture
	if len(projectIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Order("name asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *fixtureRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Fixture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.Fixture
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *fixtureRepo) NameExists(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Fixture{}).
		Where("project_id = ? AND name = ?", projectID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *fixtureRepo) ExportIdentifierExists(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, exportIdentifier string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Fixture{}).
		Where("project_id = ? AND export_identifier = ?", projectID, exportIdentifier).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *fixtureRepo) Update(ctx context.Context, tx *gorm.DB, f *types.Fixture) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(f).Error
}

func (r *fixtureRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Fixture{}).Error
}
