package cases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type TestCaseVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, versions []*types.TestCaseVersion) ([]*types.TestCaseVersion, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TestCaseVersion, error)
	// GetByTestCaseIDs returns history newest-first.
	GetByTestCaseIDs(ctx context.Context, tx *gorm.DB, testCaseIDs []uuid.UUID) ([]*types.TestCaseVersion, error)
	Latest(ctx context.Context, tx *gorm.DB, testCaseID uuid.UUID) (*types.TestCaseVersion, error)
	DeleteByTestCaseIDs(ctx context.Context, tx *gorm.DB, testCaseIDs []uuid.UUID) error
}

type testCaseVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestCaseVersionRepo(db *gorm.DB, baseLog *logger.Logger) TestCaseVersionRepo {
	return &testCaseVersionRepo{db: db, log: baseLog.With("repo", "TestCaseVersionRepo")}
}

func (r *testCaseVersionRepo) Create(ctx context.Context, tx *gorm.DB, versions []*types.TestCaseVersion) ([]*types.TestCaseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(versions) == 0 {
		return []*types.TestCaseVersion{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

func (r *testCaseVersionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TestCaseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TestCaseVersion
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

func (r *testCaseVersionRepo) GetByTestCaseIDs(ctx context.Context, tx *gorm.DB, testCaseIDs []uuid.UUID) ([]*types.TestCaseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TestCaseVersion
	if len(testCaseIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("test_case_id IN ?", testCaseIDs).
		Order("created_at desc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *testCaseVersionRepo) Latest(ctx context.Context, tx *gorm.DB, testCaseID uuid.UUID) (*types.TestCaseVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TestCaseVersion
	err := transaction.WithContext(ctx).
		Where("test_case_id = ?", testCaseID).
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

func (r *testCaseVersionRepo) DeleteByTestCaseIDs(ctx context.Context, tx *gorm.DB, testCaseIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(testCaseIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("test_case_id IN ?", testCaseIDs).
		Delete(&types.TestCaseVersion{}).Error
}
