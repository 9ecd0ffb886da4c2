package cases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type TestCaseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, testCases []*types.TestCase) ([]*types.TestCase, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TestCase, error)
	GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.TestCase, error)
	// GetForUpdate locks the row for the remainder of the transaction. Every
	// mutation of a test case's step set takes this lock first so concurrent
	// editors of the same parent are serialized.
	GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TestCase, error)
	NameExists(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string) (bool, error)
	Update(ctx context.Context, tx *gorm.DB, tc *types.TestCase) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type testCaseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTestCaseRepo(db *gorm.DB, baseLog *logger.Logger) TestCaseRepo {
	return &testCaseRepo{db: db, log: baseLog.With("repo", "TestCaseRepo")}
}

func (r *testCaseRepo) Create(ctx context.Context, tx *gorm.DB, testCases []*types.TestCase) ([]*types.TestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(testCases) == 0 {
		return []*types.TestCase{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&testCases).Error; err != nil {
		return nil, err
	}
	return testCases, nil
}

func (r *testCaseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.TestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TestCase
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

func (r *testCaseRepo) GetByProjectIDs(ctx context.Context, tx *gorm.DB, projectIDs []uuid.UUID) ([]*types.TestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.TestCase
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

func (r *testCaseRepo) GetForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.TestCase, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result types.TestCase
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&result).Error; err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *testCaseRepo) NameExists(ctx context.Context, tx *gorm.DB, projectID uuid.UUID, name string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.TestCase{}).
		Where("project_id = ? AND name = ?", projectID, name).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *testCaseRepo) Update(ctx context.Context, tx *gorm.DB, tc *types.TestCase) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(tc).Error
}

func (r *testCaseRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.TestCase{}).Error
}
