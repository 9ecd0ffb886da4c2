package cases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type StepVersionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, steps []*types.StepVersion) ([]*types.StepVersion, error)
	// GetByTestCaseVersionIDs returns step snapshots ordered by step_order asc.
	GetByTestCaseVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) ([]*types.StepVersion, error)
	GetByFixtureVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) ([]*types.StepVersion, error)
	CountByTestCaseVersionID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (int64, error)
	DeleteByTestCaseVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) error
	DeleteByFixtureVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) error
}

type stepVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStepVersionRepo(db *gorm.DB, baseLog *logger.Logger) StepVersionRepo {
	return &stepVersionRepo{db: db, log: baseLog.With("repo", "StepVersionRepo")}
}

func (r *stepVersionRepo) Create(ctx context.Context, tx *gorm.DB, steps []*types.StepVersion) ([]*types.StepVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(steps) == 0 {
		return []*types.StepVersion{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *stepVersionRepo) GetByTestCaseVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) ([]*types.StepVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.StepVersion
	if len(versionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("test_case_version_id IN ?", versionIDs).
		Order("step_order asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stepVersionRepo) GetByFixtureVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) ([]*types.StepVersion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.StepVersion
	if len(versionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("fixture_version_id IN ?", versionIDs).
		Order("step_order asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stepVersionRepo) CountByTestCaseVersionID(ctx context.Context, tx *gorm.DB, versionID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.StepVersion{}).
		Where("test_case_version_id = ?", versionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *stepVersionRepo) DeleteByTestCaseVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(versionIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("test_case_version_id IN ?", versionIDs).
		Delete(&types.StepVersion{}).Error
}

func (r *stepVersionRepo) DeleteByFixtureVersionIDs(ctx context.Context, tx *gorm.DB, versionIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(versionIDs) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("fixture_version_id IN ?", versionIDs).
		Delete(&types.StepVersion{}).Error
}
