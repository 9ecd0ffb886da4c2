package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type ReleaseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, releases []*types.Release) ([]*types.Release, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Release, error)
	GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.Release, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type releaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReleaseRepo(db *gorm.DB, baseLog *logger.Logger) ReleaseRepo {
	return &releaseRepo{db: db, log: baseLog.With("repo", "ReleaseRepo")}
}

func (r *releaseRepo) Create(ctx context.Context, tx *gorm.DB, releases []*types.Release) ([]*types.Release, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(releases) == 0 {
		return []*types.Release{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&releases).Error; err != nil {
		return nil, err
	}
	return releases, nil
}

func (r *releaseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Release, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Release
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

func (r *releaseRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.Release, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Release
	if len(projectIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("project_id IN ?", projectIDs).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *releaseRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Release{}).Error
}
