package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/data/repos"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type StepInput struct {
	ActionDescription string     `json:"action_description"`
	InputData         *string    `json:"input_data,omitempty"`
	ExpectedResult    *string    `json:"expected_result,omitempty"`
	GeneratedCodeLine *string    `json:"generated_code_line,omitempty"`
	Disabled          bool       `json:"disabled"`
	FixtureID         *uuid.UUID `json:"fixture_id,omitempty"`
}

// StepService mutates a parent's live step set. Every mutation runs in one
// transaction that locks the parent row, applies the change, re-checks order
// density and appends exactly one ledger snapshot — so concurrent editors of
// the same parent serialize, and history is never missing an edit.
type StepService interface {
	ListSteps(ctx context.Context, tx *gorm.DB, parent types.ParentRef) ([]*types.Step, error)
	AddStep(ctx context.Context, tx *gorm.DB, parent types.ParentRef, input StepInput) (*types.Step, error)
	// AddStepsFromCode turns raw automation code lines into steps, using the
	// configured inferencer for descriptions when available. One snapshot is
	// written for the whole batch.
	AddStepsFromCode(ctx context.Context, tx *gorm.DB, parent types.ParentRef, rawLines []string) ([]*types.Step, error)
	UpdateStep(ctx context.Context, tx *gorm.DB, stepID uuid.UUID, input StepInput) (*types.Step, error)
	DuplicateStep(ctx context.Context, tx *gorm.DB, stepID uuid.UUID) (*types.Step, error)
	ReorderStep(ctx context.Context, tx *gorm.DB, parent types.ParentRef, fromOrder, toOrder int) error
	// DeleteStep returns the removed step so callers can still reach its parent.
	DeleteStep(ctx context.Context, tx *gorm.DB, stepID uuid.UUID) (*types.Step, error)
}

type stepService struct {
	db           *gorm.DB
	log          *logger.Logger
	stepRepo     repos.StepRepo
	testCaseRepo repos.TestCaseRepo
	fixtureRepo  repos.FixtureRepo
	ordering     OrderingService
	ledger       VersionLedger
	inferencer   StepInferencer // optional
}

func NewStepService(
	db *gorm.DB,
	baseLog *logger.Logger,
	stepRepo repos.StepRepo,
	testCaseRepo repos.TestCaseRepo,
	fixtureRepo repos.FixtureRepo,
	ordering OrderingService,
	ledger VersionLedger,
	inferencer StepInferencer,
) StepService {
	return &stepService{
		db:           db,
		log:          baseLog.With("service", "StepService"),
		stepRepo:     stepRepo,
		testCaseRepo: testCaseRepo,
		fixtureRepo:  fixtureRepo,
		ordering:     ordering,
		ledger:       ledger,
		inferencer:   inferencer,
	}
}

// parentHandle is the locked parent row for the duration of a mutation.
type parentHandle struct {
	ref       types.ParentRef
	tc        *types.TestCase
	fx        *types.Fixture
	projectID uuid.UUID
}

func (s *stepService) lockParent(ctx context.Context, txn *gorm.DB, parent types.ParentRef) (*parentHandle, error) {
	if err := parent.Validate(); err != nil {
		return nil, err
	}
	switch parent.Kind {
	case types.ParentTestCase:
		tc, err := s.testCaseRepo.GetForUpdate(ctx, txn, parent.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("test case %s: %w", parent.ID, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		return &parentHandle{ref: parent, tc: tc, projectID: tc.ProjectID}, nil
	case types.ParentFixture:
		fx, err := s.fixtureRepo.GetForUpdate(ctx, txn, parent.ID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("fixture %s: %w", parent.ID, ErrNotFound)
		}
		if err != nil {
			return nil, err
		}
		return &parentHandle{ref: parent, fx: fx, projectID: fx.ProjectID}, nil
	}
	return nil, fmt.Errorf("invalid parent kind %q", parent.Kind)
}

func (s *stepService) snapshot(ctx context.Context, txn *gorm.DB, owner *parentHandle) error {
	var err error
	if owner.tc != nil {
		_, err = s.ledger.SnapshotTestCase(ctx, txn, owner.tc)
	} else {
		_, err = s.ledger.SnapshotFixture(ctx, txn, owner.fx)
	}
	return err
}

// mutate wraps one step-set mutation: lock parent, apply, verify density,
// snapshot, all in a single transaction.
func (s *stepService) mutate(ctx context.Context, tx *gorm.DB, parent types.ParentRef, fn func(txn *gorm.DB, owner *parentHandle) error) error {
	transaction := tx
	if transaction == nil {
		transaction = s.db
	}
	return transaction.Transaction(func(txn *gorm.DB) error {
		owner, err := s.lockParent(ctx, txn, parent)
		if err != nil {
			return err
		}
		if err := fn(txn, owner); err != nil {
			return err
		}
		if err := s.ordering.VerifyDense(ctx, txn, parent); err != nil {
			return err
		}
		return s.snapshot(ctx, txn, owner)
	})
}

func (s *stepService) validateInput(ctx context.Context, txn *gorm.DB, owner *parentHandle, input StepInput) error {
	if strings.TrimSpace(input.ActionDescription) == "" {
		return fmt.Errorf("action description is required")
	}
	if input.FixtureID == nil {
		return nil
	}
	if owner.ref.Kind != types.ParentTestCase {
		return fmt.Errorf("fixture delegation is only allowed on test case steps")
	}
	fixtures, err := s.fixtureRepo.GetByIDs(ctx, txn, []uuid.UUID{*input.FixtureID})
	if err != nil {
		return err
	}
	if len(fixtures) == 0 {
		return fmt.Errorf("fixture %s: %w", *input.FixtureID, ErrNotFound)
	}
	if fixtures[0].ProjectID != owner.projectID {
		return ErrFixtureProject
	}
	return nil
}

func (s *stepService) ListSteps(ctx context.Context, tx *gorm.DB, parent types.ParentRef) ([]*types.Step, error) {
	if err := parent.Validate(); err != nil {
		return nil, err
	}
	return s.stepRepo.GetByParent(ctx, tx, parent)
}

func (s *stepService) AddStep(ctx context.Context, tx *gorm.DB, parent types.ParentRef, input StepInput) (*types.Step, error) {
	var created *types.Step
	err := s.mutate(ctx, tx, parent, func(txn *gorm.DB, owner *parentHandle) error {
		if err := s.validateInput(ctx, txn, owner, input); err != nil {
			return err
		}
		order, err := s.ordering.InsertAtEnd(ctx, txn, parent)
		if err != nil {
			return err
		}
		step := &types.Step{
			ID:                uuid.New(),
			Parent:            parent,
			FixtureID:         input.FixtureID,
			Order:             order,
			ActionDescription: input.ActionDescription,
			InputData:         input.InputData,
			ExpectedResult:    input.ExpectedResult,
			GeneratedCodeLine: input.GeneratedCodeLine,
			Disabled:          input.Disabled,
		}
		if _, err := s.stepRepo.Create(ctx, txn, []*types.Step{step}); err != nil {
			return err
		}
		created = step
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *stepService) AddStepsFromCode(ctx context.Context, tx *gorm.DB, parent types.ParentRef, rawLines []string) ([]*types.Step, error) {
	lines := make([]string, 0, len(rawLines))
	for _, l := range rawLines {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, strings.TrimSpace(l))
		}
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("no code lines supplied")
	}

	inferred := s.inferSteps(ctx, lines)

	var created []*types.Step
	err := s.mutate(ctx, tx, parent, func(txn *gorm.DB, owner *parentHandle) error {
		order, err := s.ordering.InsertAtEnd(ctx, txn, parent)
		if err != nil {
			return err
		}
		steps := make([]*types.Step, 0, len(lines))
		for i, line := range lines {
			codeLine := line
			step := &types.Step{
				ID:                uuid.New(),
				Parent:            parent,
				Order:             order + i,
				ActionDescription: inferred[i].ActionDescription,
				InputData:         inferred[i].InputData,
				ExpectedResult:    inferred[i].ExpectedResult,
				GeneratedCodeLine: &codeLine,
			}
			steps = append(steps, step)
		}
		if _, err := s.stepRepo.Create(ctx, txn, steps); err != nil {
			return err
		}
		created = steps
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// inferSteps is best-effort: when no inferencer is configured, or it fails,
// the raw code line doubles as the description. AI-authored output gets no
// special handling downstream.
func (s *stepService) inferSteps(ctx context.Context, lines []string) []InferredStep {
	if s.inferencer != nil {
		inferred, err := s.inferencer.InferSteps(ctx, lines)
		if err == nil && len(inferred) == len(lines) {
			// Inferred output is ordinary step input and must satisfy the
			// same required fields; a blank description falls back to the
			// raw line it was inferred from.
			for i := range inferred {
				if strings.TrimSpace(inferred[i].ActionDescription) == "" {
					inferred[i].ActionDescription = lines[i]
				}
			}
			return inferred
		}
		if err != nil {
			s.log.Warn("step inference failed, falling back to raw lines", "error", err)
		}
	}
	out := make([]InferredStep, len(lines))
	for i, l := range lines {
		out[i] = InferredStep{ActionDescription: l}
	}
	return out
}

func (s *stepService) UpdateStep(ctx context.Context, tx *gorm.DB, stepID uuid.UUID, input StepInput) (*types.Step, error) {
	var updated *types.Step
	step, err := s.getStep(ctx, tx, stepID)
	if err != nil {
		return nil, err
	}
	err = s.mutate(ctx, tx, step.Parent, func(txn *gorm.DB, owner *parentHandle) error {
		// Re-read under the parent lock; the pre-lock copy only located the parent.
		cur, err := s.getStep(ctx, txn, stepID)
		if err != nil {
			return err
		}
		if err := s.validateInput(ctx, txn, owner, input); err != nil {
			return err
		}
		cur.ActionDescription = input.ActionDescription
		cur.InputData = input.InputData
		cur.ExpectedResult = input.ExpectedResult
		cur.GeneratedCodeLine = input.GeneratedCodeLine
		cur.Disabled = input.Disabled
		cur.FixtureID = input.FixtureID
		if err := s.stepRepo.Update(ctx, txn, cur); err != nil {
			return err
		}
		updated = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *stepService) DuplicateStep(ctx context.Context, tx *gorm.DB, stepID uuid.UUID) (*types.Step, error) {
	step, err := s.getStep(ctx, tx, stepID)
	if err != nil {
		return nil, err
	}
	var created *types.Step
	err = s.mutate(ctx, tx, step.Parent, func(txn *gorm.DB, owner *parentHandle) error {
		src, err := s.getStep(ctx, txn, stepID)
		if err != nil {
			return err
		}
		order, err := s.ordering.InsertAtEnd(ctx, txn, src.Parent)
		if err != nil {
			return err
		}
		dup := &types.Step{
			ID:                uuid.New(),
			Parent:            src.Parent,
			FixtureID:         src.FixtureID,
			Order:             order,
			ActionDescription: src.ActionDescription,
			InputData:         src.InputData,
			ExpectedResult:    src.ExpectedResult,
			GeneratedCodeLine: src.GeneratedCodeLine,
			Disabled:          src.Disabled,
		}
		if _, err := s.stepRepo.Create(ctx, txn, []*types.Step{dup}); err != nil {
			return err
		}
		created = dup
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *stepService) ReorderStep(ctx context.Context, tx *gorm.DB, parent types.ParentRef, fromOrder, toOrder int) error {
	if fromOrder == toOrder {
		// Nothing moves, so no snapshot and no version bump.
		return nil
	}
	return s.mutate(ctx, tx, parent, func(txn *gorm.DB, owner *parentHandle) error {
		return s.ordering.Reorder(ctx, txn, parent, fromOrder, toOrder)
	})
}

func (s *stepService) DeleteStep(ctx context.Context, tx *gorm.DB, stepID uuid.UUID) (*types.Step, error) {
	step, err := s.getStep(ctx, tx, stepID)
	if err != nil {
		return nil, err
	}
	var removed *types.Step
	err = s.mutate(ctx, tx, step.Parent, func(txn *gorm.DB, owner *parentHandle) error {
		cur, err := s.getStep(ctx, txn, stepID)
		if err != nil {
			return err
		}
		if err := s.stepRepo.DeleteByIDs(ctx, txn, []uuid.UUID{cur.ID}); err != nil {
			return err
		}
		if err := s.ordering.CompactAfterDelete(ctx, txn, cur.Parent, cur.Order); err != nil {
			return err
		}
		removed = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *stepService) getStep(ctx context.Context, tx *gorm.DB, stepID uuid.UUID) (*types.Step, error) {
	steps, err := s.stepRepo.GetByIDs(ctx, tx, []uuid.UUID{stepID})
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("step %s: %w", stepID, ErrNotFound)
	}
	return steps[0], nil
}
