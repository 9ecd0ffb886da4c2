package cases

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge-backend/internal/data/repos/testutil"
	types "github.com/caseforge/caseforge-backend/internal/domain"
)

func TestStepRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewStepRepo(db, testutil.Logger(t))

	p := testutil.SeedProject(t, ctx, tx, "steprepo-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, tx, p.ID, "Step Repo Case")
	parent := types.TestCaseParent(tc.ID)

	if _, found, err := repo.MaxOrder(ctx, tx, parent); err != nil || found {
		t.Fatalf("MaxOrder on empty parent: err=%v found=%v", err, found)
	}

	steps := make([]*types.Step, 0, 4)
	for i := 0; i < 4; i++ {
		steps = append(steps, testutil.SeedStep(t, ctx, tx, parent, i))
	}

	if rows, err := repo.GetByParent(ctx, tx, parent); err != nil || len(rows) != 4 {
		t.Fatalf("GetByParent: err=%v len=%d", err, len(rows))
	}
	if max, found, err := repo.MaxOrder(ctx, tx, parent); err != nil || !found || max != 3 {
		t.Fatalf("MaxOrder: err=%v found=%v max=%d", err, found, max)
	}
	if orders, err := repo.ListOrders(ctx, tx, parent); err != nil || len(orders) != 4 || orders[0] != 0 || orders[3] != 3 {
		t.Fatalf("ListOrders: err=%v orders=%v", err, orders)
	}

	// Shift [1..3] up by one, then place step 0 into the freed slot.
	if err := repo.ShiftOrderRange(ctx, tx, parent, 1, 3, 1); err != nil {
		t.Fatalf("ShiftOrderRange: %v", err)
	}
	if err := repo.SetOrder(ctx, tx, steps[0].ID, 4); err != nil {
		t.Fatalf("SetOrder: %v", err)
	}
	rows, err := repo.GetByParent(ctx, tx, parent)
	if err != nil || len(rows) != 4 {
		t.Fatalf("GetByParent after shift: err=%v len=%d", err, len(rows))
	}
	if rows[3].ID != steps[0].ID {
		t.Fatal("shifted step not at expected position")
	}

	if err := repo.DeleteByIDs(ctx, tx, []uuid.UUID{rows[1].ID}); err != nil {
		t.Fatalf("DeleteByIDs: %v", err)
	}
	if err := repo.DecrementOrderAfter(ctx, tx, parent, rows[1].Order); err != nil {
		t.Fatalf("DecrementOrderAfter: %v", err)
	}
	rows, err = repo.GetByParent(ctx, tx, parent)
	if err != nil || len(rows) != 3 {
		t.Fatalf("GetByParent after delete: err=%v len=%d", err, len(rows))
	}
	for i, st := range rows {
		if st.Order != i {
			t.Fatalf("order gap after DecrementOrderAfter: step %d has order %d", i, st.Order)
		}
	}

	fx := testutil.SeedFixture(t, ctx, tx, p.ID, "Step Repo Fixture")
	delegating := rows[0]
	delegating.FixtureID = &fx.ID
	if err := repo.Update(ctx, tx, delegating); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := repo.ClearFixtureRefs(ctx, tx, fx.ID); err != nil {
		t.Fatalf("ClearFixtureRefs: %v", err)
	}
	if got, err := repo.GetByIDs(ctx, tx, []uuid.UUID{delegating.ID}); err != nil || len(got) != 1 || got[0].FixtureID != nil {
		t.Fatalf("ClearFixtureRefs left reference: err=%v", err)
	}

	if err := repo.DeleteByParent(ctx, tx, parent); err != nil {
		t.Fatalf("DeleteByParent: %v", err)
	}
	if rows, err := repo.GetByParent(ctx, tx, parent); err != nil || len(rows) != 0 {
		t.Fatalf("GetByParent after DeleteByParent: err=%v len=%d", err, len(rows))
	}
}
