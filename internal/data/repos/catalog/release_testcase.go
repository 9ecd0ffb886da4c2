package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type ReleaseTestCaseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, bindings []*types.ReleaseTestCase) ([]*types.ReleaseTestCase, error)
	GetByReleaseIDs(ctx context.Context, tx *gorm.DB, releaseIDs []uuid.UUID) ([]*types.ReleaseTestCase, error)
	Exists(ctx context.Context, tx *gorm.DB, releaseID, testCaseID uuid.UUID) (bool, error)
	Delete(ctx context.Context, tx *gorm.DB, releaseID, testCaseID uuid.UUID) error
	DeleteByTestCaseIDs(ctx context.Context, tx *gorm.DB, testCaseIDs []uuid.UUID) error
	DeleteByReleaseIDs(ctx context.Context, tx *gorm.DB, releaseIDs []uuid.UUID) error
}

type releaseTestCaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReleaseTestCaseRepo(db *gorm.DB, baseLog *logger.Logger) ReleaseTestCaseRepo {
	return &releaseTestCaseRepo{db: db, log: baseLog.With("repo", "ReleaseTestCaseRepo")}
}

func (r *releaseTestCaseRepo) Create(ctx context.Context, tx *gorm.DB, bindings []*types.ReleaseTestCase) ([]*types.ReleaseTestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(bindings) == 0 {
		return []*types.ReleaseTestCase{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&bindings).Error; err != nil {
		return nil, err
	}
	return bindings, nil
}

func (r *releaseTestCaseRepo) GetByReleaseIDs(ctx context.Context, tx *gorm.DB, releaseIDs []uuid.UUID) ([]*types.ReleaseTestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.ReleaseTestCase
	if len(releaseIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("release_id IN ?", releaseIDs).
		Order("created_at asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *releaseTestCaseRepo) Exists(ctx context.Context, tx *gorm.DB, releaseID, testCaseID uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.ReleaseTestCase{}).
		Where("release_id = ? AND test_case_id = ?", releaseID, testCaseID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *releaseTestCaseRepo) Delete(ctx context.Context, tx *gorm.DB, releaseID, testCaseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("release_id = ? AND test_case_id = ?", releaseID, testCaseID).
		Delete(&types.ReleaseTestCase{}).Error
}

func (r *releaseTestCaseRepo) DeleteByTestCaseIDs(ctx context.Context, tx *gorm.DB, testCaseIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(testCaseIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("test_case_id IN ?", testCaseIDs).
		Delete(&types.ReleaseTestCase{}).Error
}

func (r *releaseTestCaseRepo) DeleteByReleaseIDs(ctx context.Context, tx *gorm.DB, releaseIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(releaseIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("release_id IN ?", releaseIDs).
		Delete(&types.ReleaseTestCase{}).Error
}
