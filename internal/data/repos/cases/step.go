package cases

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type StepRepo interface {
	Create(ctx context.Context, tx *gorm.DB, steps []*types.Step) ([]*types.Step, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Step, error)
	// GetByParent returns the parent's live steps ordered by step_order asc.
	GetByParent(ctx context.Context, tx *gorm.DB, parent types.ParentRef) ([]*types.Step, error)
	ListOrders(ctx context.Context, tx *gorm.DB, parent types.ParentRef) ([]int, error)
	MaxOrder(ctx context.Context, tx *gorm.DB, parent types.ParentRef) (int, bool, error)
	Update(ctx context.Context, tx *gorm.DB, step *types.Step) error
	SetOrder(ctx context.Context, tx *gorm.DB, stepID uuid.UUID, order int) error
	// ShiftOrderRange adds delta to step_order for every step of the parent
	// with lo <= step_order <= hi.
	ShiftOrderRange(ctx context.Context, tx *gorm.DB, parent types.ParentRef, lo, hi, delta int) error
	DecrementOrderAfter(ctx context.Context, tx *gorm.DB, parent types.ParentRef, deletedOrder int) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteByParent(ctx context.Context, tx *gorm.DB, parent types.ParentRef) error
	ClearFixtureRefs(ctx context.Context, tx *gorm.DB, fixtureID uuid.UUID) error
}

type stepRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStepRepo(db *gorm.DB, baseLog *logger.Logger) StepRepo {
	return &stepRepo{db: db, log: baseLog.With("repo", "StepRepo")}
}

func (r *stepRepo) Create(ctx context.Context, tx *gorm.DB, steps []*types.Step) ([]*types.Step, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(steps) == 0 {
		return []*types.Step{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}

func (r *stepRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Step, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Step
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

func (r *stepRepo) GetByParent(ctx context.Context, tx *gorm.DB, parent types.ParentRef) ([]*types.Step, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Step
	if err := transaction.WithContext(ctx).
		Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
		Order("step_order asc").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *stepRepo) ListOrders(ctx context.Context, tx *gorm.DB, parent types.ParentRef) ([]int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var orders []int
	if err := transaction.WithContext(ctx).
		Model(&types.Step{}).
		Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
		Order("step_order asc").
		Pluck("step_order", &orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *stepRepo) MaxOrder(ctx context.Context, tx *gorm.DB, parent types.ParentRef) (int, bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var max *int
	if err := transaction.WithContext(ctx).
		Model(&types.Step{}).
		Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
		Select("MAX(step_order)").
		Scan(&max).Error; err != nil {
		return 0, false, err
	}
	if max == nil {
		return 0, false, nil
	}
	return *max, true, nil
}

func (r *stepRepo) Update(ctx context.Context, tx *gorm.DB, step *types.Step) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(step).Error
}

func (r *stepRepo) SetOrder(ctx context.Context, tx *gorm.DB, stepID uuid.UUID, order int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Step{}).
		Where("id = ?", stepID).
		Update("step_order", order).Error
}

func (r *stepRepo) ShiftOrderRange(ctx context.Context, tx *gorm.DB, parent types.ParentRef, lo, hi, delta int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Step{}).
		Where("parent_kind = ? AND parent_id = ? AND step_order BETWEEN ? AND ?", parent.Kind, parent.ID, lo, hi).
		Update("step_order", gorm.Expr("step_order + ?", delta)).Error
}

func (r *stepRepo) DecrementOrderAfter(ctx context.Context, tx *gorm.DB, parent types.ParentRef, deletedOrder int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Step{}).
		Where("parent_kind = ? AND parent_id = ? AND step_order > ?", parent.Kind, parent.ID, deletedOrder).
		Update("step_order", gorm.Expr("step_order - 1")).Error
}

func (r *stepRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Step{}).Error
}

func (r *stepRepo) DeleteByParent(ctx context.Context, tx *gorm.DB, parent types.ParentRef) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("parent_kind = ? AND parent_id = ?", parent.Kind, parent.ID).
		Delete(&types.Step{}).Error
}

func (r *stepRepo) ClearFixtureRefs(ctx context.Context, tx *gorm.DB, fixtureID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&types.Step{}).
		Where("fixture_id = ?", fixtureID).
		Update("fixture_id", nil).Error
}
