package cases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type FixtureVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, versions []*types.FixtureVersion) ([]*types.FixtureVersion, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.FixtureVersion, error)
	GetByFixtureIDs(ctx context.Context, tx *gorm.DB, fixtureIDs []uuid.UUID) ([]*types.FixtureVersion, error)
	Latest(ctx context.Context, tx *gorm.DB, fixtureID uuid.UUID) (*types.FixtureVersion, error)
	DeleteByFixtureIDs(ctx context.Context, tx *gorm.DB, fixtureIDs []uuid.UUID) error
}

type fixtureVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFixtureVersionRepo(db *gorm.DB, baseLog *logger.Logger) FixtureVersionRepo {
	return &fixtureVersionRepo{db: db, log: baseLog.With("repo", "FixtureVersionRepo")}
}

func (r *fixtureVersionRepo) Create(ctx context.Context, tx *gorm.DB, versions []*types.FixtureVersion) ([]*types.FixtureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(versions) == 0 {
		return []*types.FixtureVersion{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *fixtureVersionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.FixtureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.FixtureVersion
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

func (r *fixtureVersionRepo) GetByFixtureIDs(ctx context.Context, tx *gorm.DB, fixtureIDs []uuid.UUID) ([]*types.FixtureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.FixtureVersion
	if len(fixtureIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("fixture_id IN ?", fixtureIDs).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *fixtureVersionRepo) Latest(ctx context.Context, tx *gorm.DB, fixtureID uuid.UUID) (*types.FixtureVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.FixtureVersion
	err := transaction.WithContext(ctx).
		Where("fixture_id = ?", fixtureID).
		Order("created_at desc").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *fixtureVersionRepo) DeleteByFixtureIDs(ctx context.Context, tx *gorm.DB, fixtureIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(fixtureIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("fixture_id IN ?", fixtureIDs).
		Delete(&types.FixtureVersion{}).Error
}
