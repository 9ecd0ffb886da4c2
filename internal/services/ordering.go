package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

// OrderingService keeps step order values dense and gap-free per parent:
// {0..n-1} with no duplicates between mutations. All methods must run inside
// the caller's transaction, after the caller has locked the parent row.
type OrderingService interface {
	InsertAtEnd(ctx context.Context, tx *gorm.DB, parent types.ParentRef) (int, error)
	Reorder(ctx context.Context, tx *gorm.DB, parent types.ParentRef, fromOrder, toOrder int) error
	CompactAfterDelete(ctx context.Context, tx *gorm.DB, parent types.ParentRef, deletedOrder int) error
	// VerifyDense returns ErrOrderingConflict if the parent's order values
	// are not exactly {0..n-1}.
	VerifyDense(ctx context.Context, tx *gorm.DB, parent types.ParentRef) error
}

type orderingService struct {
	db       *gorm.DB
	log      *logger.Logger
	stepRepo repos.StepRepo
}

func NewOrderingService(db *gorm.DB, baseLog *logger.Logger, stepRepo repos.StepRepo) OrderingService {
	return &orderingService{
		db:       db,
		log:      baseLog.With("service", "OrderingService"),
		stepRepo: stepRepo,
	}
}

func (s *orderingService) InsertAtEnd(ctx context.Context, tx *gorm.DB, parent types.ParentRef) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	max, ok, err := s.stepRepo.MaxOrder(ctx, transaction, parent)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return max + 1, nil
}

func (s *orderingService) Reorder(ctx context.Context, tx *gorm.DB, parent types.ParentRef, fromOrder, toOrder int) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	if fromOrder == toOrder {
		return nil
	}

	steps, err := s.stepRepo.GetByParent(ctx, transaction, parent)
	if err != nil {
		return err
	}
	if fromOrder < 0 || fromOrder >= len(steps) || toOrder < 0 || toOrder >= len(steps) {
		return fmt.Errorf("reorder out of range (%d -> %d of %d): %w", fromOrder, toOrder, len(steps), ErrOrderingConflict)
	}

	var moved *types.Step
	for _, st := range steps {
		if st.Order == fromOrder {
			moved = st
			break
		}
	}
	if moved == nil {
		return fmt.Errorf("no step at order %d: %w", fromOrder, ErrOrderingConflict)
	}

	// Shift everything strictly between the two positions, then land the
	// moved step. Intermediate duplicates are invisible outside this
	// transaction.
	if fromOrder < toOrder {
		err = s.stepRepo.ShiftOrderRange(ctx, transaction, parent, fromOrder+1, toOrder, -1)
	} else {
		err = s.stepRepo.ShiftOrderRange(ctx, transaction, parent, toOrder, fromOrder-1, +1)
	}
	if err != nil {
		return err
	}
	if err := s.stepRepo.SetOrder(ctx, transaction, moved.ID, toOrder); err != nil {
		return err
	}

	return s.VerifyDense(ctx, transaction, parent)
}

func (s *orderingService) CompactAfterDelete(ctx context.Context, tx *gorm.DB, parent types.ParentRef, deletedOrder int) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	if err := s.stepRepo.DecrementOrderAfter(ctx, transaction, parent, deletedOrder); err != nil {
		return err
	}
	return s.VerifyDense(ctx, transaction, parent)
}

func (s *orderingService) VerifyDense(ctx context.Context, tx *gorm.DB, parent types.ParentRef) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}

	orders, err := s.stepRepo.ListOrders(ctx, transaction, parent)
	if err != nil {
		return err
	}
	for i, o := range orders {
		if o != i {
			s.log.Warn("order density violated", "parent_kind", parent.Kind, "parent_id", parent.ID, "expected", i, "got", o)
			return fmt.Errorf("expected order %d, found %d: %w", i, o, ErrOrderingConflict)
		}
	}
	return nil
}
