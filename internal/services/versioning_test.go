package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/caseforge/caseforge-backend/internal/data/repos"
	"github.com/caseforge/caseforge-backend/internal/data/repos/testutil"
	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type testEnv struct {
	db  *gorm.DB
	tx  *gorm.DB
	log *logger.Logger

	testCaseRepo repos.TestCaseRepo
	fixtureRepo  repos.FixtureRepo
	stepRepo     repos.StepRepo
	tcVersions   repos.TestCaseVersionRepo
	fxVersions   repos.FixtureVersionRepo
	stepVersions repos.StepVersionRepo

	ordering OrderingService
	ledger   VersionLedger
	steps    StepService
	revert   RevertService
	clone    CloneService
	fixtures FixtureService
	releases ReleaseService
}

func newEnv(t *testing.T) (*testEnv, context.Context) {
	t.Helper()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)

	testCaseRepo := repos.NewTestCaseRepo(db, log)
	fixtureRepo := repos.NewFixtureRepo(db, log)
	stepRepo := repos.NewStepRepo(db, log)
	tcVersions := repos.NewTestCaseVersionRepo(db, log)
	fxVersions := repos.NewFixtureVersionRepo(db, log)
	stepVersions := repos.NewStepVersionRepo(db, log)
	releaseRepo := repos.NewReleaseRepo(db, log)
	bindings := repos.NewReleaseTestCaseRepo(db, log)

	ordering := NewOrderingService(db, log, stepRepo)
	ledger := NewVersionLedger(db, log, testCaseRepo, fixtureRepo, stepRepo, tcVersions, fxVersions, stepVersions)

	return &testEnv{
		db:           db,
		tx:           tx,
		log:          log,
		testCaseRepo: testCaseRepo,
		fixtureRepo:  fixtureRepo,
		stepRepo:     stepRepo,
		tcVersions:   tcVersions,
		fxVersions:   fxVersions,
		stepVersions: stepVersions,
		ordering:     ordering,
		ledger:       ledger,
		steps:        NewStepService(db, log, stepRepo, testCaseRepo, fixtureRepo, ordering, ledger, nil),
		revert:       NewRevertService(db, log, testCaseRepo, fixtureRepo, stepRepo, tcVersions, fxVersions, stepVersions, ordering, ledger),
		clone:        NewCloneService(db, log, testCaseRepo, fixtureRepo, stepRepo),
		fixtures:     NewFixtureService(db, log, fixtureRepo, stepRepo, fxVersions, stepVersions),
		releases:     NewReleaseService(db, log, releaseRepo, bindings, testCaseRepo),
	}, context.Background()
}

func (e *testEnv) reloadTestCase(t *testing.T, ctx context.Context, id uuid.UUID) *types.TestCase {
	t.Helper()
	cases, err := e.testCaseRepo.GetByIDs(ctx, e.tx, []uuid.UUID{id})
	if err != nil || len(cases) == 0 {
		t.Fatalf("reload test case: %v", err)
	}
	return cases[0]
}

func (e *testEnv) liveSteps(t *testing.T, ctx context.Context, parent types.ParentRef) []*types.Step {
	t.Helper()
	steps, err := e.stepRepo.GetByParent(ctx, e.tx, parent)
	if err != nil {
		t.Fatalf("list steps: %v", err)
	}
	return steps
}

func (e *testEnv) addStep(t *testing.T, ctx context.Context, parent types.ParentRef, desc string) *types.Step {
	t.Helper()
	line := "await page.click('#x');"
	step, err := e.steps.AddStep(ctx, e.tx, parent, StepInput{
		ActionDescription: desc,
		GeneratedCodeLine: &line,
	})
	if err != nil {
		t.Fatalf("add step %q: %v", desc, err)
	}
	return step
}

func TestVersionLifecycleScenario(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "lifecycle-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Login Flow")
	parent := types.TestCaseParent(tc.ID)

	env.addStep(t, ctx, parent, "Open login page")
	got := env.reloadTestCase(t, ctx, tc.ID)
	if got.Version != "1.0.1" {
		t.Fatalf("version after first step = %q, want 1.0.1", got.Version)
	}
	history, err := env.revert.ListTestCaseHistory(ctx, env.tx, tc.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	firstVersion := history[0]
	firstSteps, err := env.stepVersions.GetByTestCaseVersionIDs(ctx, env.tx, []uuid.UUID{firstVersion.ID})
	if err != nil {
		t.Fatalf("first snapshot steps: %v", err)
	}
	if len(firstSteps) != 1 {
		t.Fatalf("first snapshot step count = %d, want 1", len(firstSteps))
	}

	env.addStep(t, ctx, parent, "Submit credentials")
	got = env.reloadTestCase(t, ctx, tc.ID)
	if got.Version != "1.0.2" {
		t.Fatalf("version after second step = %q, want 1.0.2", got.Version)
	}
	history, err = env.revert.ListTestCaseHistory(ctx, env.tx, tc.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}

	// Revert to the one-step snapshot: the version keeps climbing, live
	// content matches the target, and the two-step state stays in history.
	reverted, err := env.revert.RevertTestCase(ctx, env.tx, tc.ID, firstVersion.ID)
	if err != nil {
		t.Fatalf("revert: %v", err)
	}
	if reverted.Version != "1.0.3" {
		t.Fatalf("version after revert = %q, want 1.0.3", reverted.Version)
	}
	live := env.liveSteps(t, ctx, parent)
	if len(live) != 1 {
		t.Fatalf("live steps after revert = %d, want 1", len(live))
	}
	if live[0].ActionDescription != "Open login page" {
		t.Fatalf("reverted step description = %q", live[0].ActionDescription)
	}

	history, err = env.revert.ListTestCaseHistory(ctx, env.tx, tc.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	twoStepPreserved := false
	for _, v := range history {
		steps, err := env.stepVersions.GetByTestCaseVersionIDs(ctx, env.tx, []uuid.UUID{v.ID})
		if err != nil {
			t.Fatalf("snapshot steps: %v", err)
		}
		if len(steps) == 2 {
			twoStepPreserved = true
		}
	}
	if !twoStepPreserved {
		t.Fatal("pre-revert two-step snapshot missing from history")
	}
}

func TestRevertToForeignVersionRejected(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "foreign-"+uuid.NewString()[:8])
	tcA := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Case A")
	tcB := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Case B")
	env.addStep(t, ctx, types.TestCaseParent(tcA.ID), "a step")
	historyA, err := env.revert.ListTestCaseHistory(ctx, env.tx, tcA.ID)
	if err != nil || len(historyA) == 0 {
		t.Fatalf("history: %v", err)
	}
	_, err = env.revert.RevertTestCase(ctx, env.tx, tcB.ID, historyA[0].ID)
	if !errors.Is(err, ErrVersionNotFound) {
		t.Fatalf("err = %v, want ErrVersionNotFound", err)
	}
}

func TestDeleteRenumbersOrders(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "renumber-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Renumber")
	parent := types.TestCaseParent(tc.ID)

	env.addStep(t, ctx, parent, "first")
	middle := env.addStep(t, ctx, parent, "second")
	env.addStep(t, ctx, parent, "third")

	if _, err := env.steps.DeleteStep(ctx, env.tx, middle.ID); err != nil {
		t.Fatalf("delete step: %v", err)
	}
	live := env.liveSteps(t, ctx, parent)
	if len(live) != 2 {
		t.Fatalf("live steps = %d, want 2", len(live))
	}
	for i, st := range live {
		if st.Order != i {
			t.Fatalf("step %d has order %d", i, st.Order)
		}
	}
	if live[0].ActionDescription != "first" || live[1].ActionDescription != "third" {
		t.Fatalf("unexpected step contents: %q, %q", live[0].ActionDescription, live[1].ActionDescription)
	}
}

func TestReorderKeepsDense(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "reorder-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Reorder")
	parent := types.TestCaseParent(tc.ID)

	for _, d := range []string{"a", "b", "c", "d"} {
		env.addStep(t, ctx, parent, d)
	}
	if err := env.steps.ReorderStep(ctx, env.tx, parent, 3, 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	live := env.liveSteps(t, ctx, parent)
	want := []string{"d", "a", "b", "c"}
	for i, st := range live {
		if st.Order != i {
			t.Fatalf("step %d has order %d", i, st.Order)
		}
		if st.ActionDescription != want[i] {
			t.Fatalf("step %d = %q, want %q", i, st.ActionDescription, want[i])
		}
	}
}

func TestLedgerCompleteness(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "ledger-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Ledger")
	parent := types.TestCaseParent(tc.ID)

	env.addStep(t, ctx, parent, "one")
	env.addStep(t, ctx, parent, "two")
	dup := env.liveSteps(t, ctx, parent)[0]
	if _, err := env.steps.DuplicateStep(ctx, env.tx, dup.ID); err != nil {
		t.Fatalf("duplicate: %v", err)
	}

	history, err := env.revert.ListTestCaseHistory(ctx, env.tx, tc.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	// Newest snapshot must cover all current live steps.
	latest, err := env.ledger.LatestTestCaseVersion(ctx, env.tx, tc.ID)
	if err != nil || latest == nil {
		t.Fatalf("latest: %v", err)
	}
	snapSteps, err := env.stepVersions.GetByTestCaseVersionIDs(ctx, env.tx, []uuid.UUID{latest.ID})
	if err != nil {
		t.Fatalf("snapshot steps: %v", err)
	}
	if len(snapSteps) != len(env.liveSteps(t, ctx, parent)) {
		t.Fatalf("snapshot step count = %d, live = %d", len(snapSteps), len(env.liveSteps(t, ctx, parent)))
	}
}

func TestRevertRoundTrip(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "roundtrip-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Round Trip")
	parent := types.TestCaseParent(tc.ID)

	env.addStep(t, ctx, parent, "alpha")
	env.addStep(t, ctx, parent, "beta")
	target, err := env.ledger.LatestTestCaseVersion(ctx, env.tx, tc.ID)
	if err != nil || target == nil {
		t.Fatalf("latest: %v", err)
	}
	targetSteps, err := env.stepVersions.GetByTestCaseVersionIDs(ctx, env.tx, []uuid.UUID{target.ID})
	if err != nil {
		t.Fatalf("target steps: %v", err)
	}

	// Diverge, then revert back to the two-step state.
	last := env.liveSteps(t, ctx, parent)[1]
	if _, err := env.steps.DeleteStep(ctx, env.tx, last.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := env.revert.RevertTestCase(ctx, env.tx, tc.ID, target.ID); err != nil {
		t.Fatalf("revert: %v", err)
	}

	// Snapshotting the reverted live state reproduces the target's content.
	reloaded := env.reloadTestCase(t, ctx, tc.ID)
	snap, err := env.ledger.SnapshotTestCase(ctx, env.tx, reloaded)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snapSteps, err := env.stepVersions.GetByTestCaseVersionIDs(ctx, env.tx, []uuid.UUID{snap.ID})
	if err != nil {
		t.Fatalf("snapshot steps: %v", err)
	}
	if len(snapSteps) != len(targetSteps) {
		t.Fatalf("round-trip step count = %d, want %d", len(snapSteps), len(targetSteps))
	}
	for i := range snapSteps {
		if snapSteps[i].Order != targetSteps[i].Order ||
			snapSteps[i].ActionDescription != targetSteps[i].ActionDescription ||
			snapSteps[i].Disabled != targetSteps[i].Disabled {
			t.Fatalf("round-trip step %d differs from target", i)
		}
	}
}

func TestCloneNaming(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "clonename-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Login")
	testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Login - Copy")
	env.addStep(t, ctx, types.TestCaseParent(tc.ID), "open page")

	clone, err := env.clone.CloneTestCase(ctx, env.tx, tc.ID)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if clone.Name != "Login - Copy 1" {
		t.Fatalf("clone name = %q, want %q", clone.Name, "Login - Copy 1")
	}
	if clone.Version != "1.0" {
		t.Fatalf("clone version = %q, want 1.0", clone.Version)
	}
	history, err := env.revert.ListTestCaseHistory(ctx, env.tx, clone.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("clone history length = %d, want 0", len(history))
	}
	cloneSteps := env.liveSteps(t, ctx, types.TestCaseParent(clone.ID))
	if len(cloneSteps) != 1 {
		t.Fatalf("clone steps = %d, want 1", len(cloneSteps))
	}
}

func TestCloneIndependence(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "cloneind-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Source")
	parent := types.TestCaseParent(tc.ID)
	env.addStep(t, ctx, parent, "original step")
	srcBefore := env.reloadTestCase(t, ctx, tc.ID)

	clone, err := env.clone.CloneTestCase(ctx, env.tx, tc.ID)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	env.addStep(t, ctx, types.TestCaseParent(clone.ID), "clone-only step")

	srcAfter := env.reloadTestCase(t, ctx, tc.ID)
	if srcAfter.Version != srcBefore.Version {
		t.Fatalf("source version changed: %q -> %q", srcBefore.Version, srcAfter.Version)
	}
	if n := len(env.liveSteps(t, ctx, parent)); n != 1 {
		t.Fatalf("source steps = %d, want 1", n)
	}
	history, err := env.revert.ListTestCaseHistory(ctx, env.tx, tc.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("source history length = %d, want 1", len(history))
	}
}

func TestCloneDeepCopiesDelegatedFixtures(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "clonefx-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Delegating")
	fx := testutil.SeedFixture(t, ctx, env.tx, p.ID, "Session Setup")
	testutil.SeedStep(t, ctx, env.tx, types.FixtureParent(fx.ID), 0)
	parent := types.TestCaseParent(tc.ID)

	for i := 0; i < 2; i++ {
		if _, err := env.steps.AddStep(ctx, env.tx, parent, StepInput{
			ActionDescription: "run session setup",
			FixtureID:         &fx.ID,
		}); err != nil {
			t.Fatalf("add delegated step: %v", err)
		}
	}

	clone, err := env.clone.CloneTestCase(ctx, env.tx, tc.ID)
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	cloneSteps := env.liveSteps(t, ctx, types.TestCaseParent(clone.ID))
	if len(cloneSteps) != 2 {
		t.Fatalf("clone steps = %d, want 2", len(cloneSteps))
	}
	first, second := cloneSteps[0].FixtureID, cloneSteps[1].FixtureID
	if first == nil || second == nil {
		t.Fatal("clone steps lost fixture delegation")
	}
	if *first == fx.ID {
		t.Fatal("clone still references the source fixture")
	}
	if *first != *second {
		t.Fatal("same source fixture cloned twice within one operation")
	}
	clonedFixtureSteps := env.liveSteps(t, ctx, types.FixtureParent(*first))
	if len(clonedFixtureSteps) != 1 {
		t.Fatalf("cloned fixture steps = %d, want 1", len(clonedFixtureSteps))
	}
}

func TestAddStepRejectsCrossProjectFixture(t *testing.T) {
	env, ctx := newEnv(t)
	p1 := testutil.SeedProject(t, ctx, env.tx, "crossa-"+uuid.NewString()[:8])
	p2 := testutil.SeedProject(t, ctx, env.tx, "crossb-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p1.ID, "Cross Project")
	foreign := testutil.SeedFixture(t, ctx, env.tx, p2.ID, "Foreign Fixture")

	_, err := env.steps.AddStep(ctx, env.tx, types.TestCaseParent(tc.ID), StepInput{
		ActionDescription: "use foreign fixture",
		FixtureID:         &foreign.ID,
	})
	if !errors.Is(err, ErrFixtureProject) {
		t.Fatalf("err = %v, want ErrFixtureProject", err)
	}
}

func TestFixtureStepsCannotDelegate(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "fxdeleg-"+uuid.NewString()[:8])
	fx := testutil.SeedFixture(t, ctx, env.tx, p.ID, "Outer")
	inner := testutil.SeedFixture(t, ctx, env.tx, p.ID, "Inner")

	_, err := env.steps.AddStep(ctx, env.tx, types.FixtureParent(fx.ID), StepInput{
		ActionDescription: "nested delegation",
		FixtureID:         &inner.ID,
	})
	if err == nil {
		t.Fatal("expected error for delegation on fixture-owned step")
	}
}

func TestAddStepsFromCodeWithoutInferencer(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "fromcode-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "From Code")
	parent := types.TestCaseParent(tc.ID)
	env.addStep(t, ctx, parent, "existing")

	lines := []string{
		"await page.goto('/login');",
		"await page.fill('#user', 'admin');",
	}
	created, err := env.steps.AddStepsFromCode(ctx, env.tx, parent, lines)
	if err != nil {
		t.Fatalf("add from code: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("created = %d, want 2", len(created))
	}
	live := env.liveSteps(t, ctx, parent)
	if len(live) != 3 {
		t.Fatalf("live steps = %d, want 3", len(live))
	}
	if live[1].ActionDescription != lines[0] || live[2].ActionDescription != lines[1] {
		t.Fatal("raw code lines not used as fallback descriptions")
	}
	if live[1].GeneratedCodeLine == nil || *live[1].GeneratedCodeLine != lines[0] {
		t.Fatal("generated code line not recorded")
	}
}

func TestRevertDropsDeletedFixtureReference(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "dropref-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Drop Ref")
	fx := testutil.SeedFixture(t, ctx, env.tx, p.ID, "Doomed Fixture")
	testutil.SeedStep(t, ctx, env.tx, types.FixtureParent(fx.ID), 0)
	parent := types.TestCaseParent(tc.ID)

	if _, err := env.steps.AddStep(ctx, env.tx, parent, StepInput{
		ActionDescription: "uses doomed fixture",
		FixtureID:         &fx.ID,
	}); err != nil {
		t.Fatalf("add step: %v", err)
	}
	target, err := env.ledger.LatestTestCaseVersion(ctx, env.tx, tc.ID)
	if err != nil || target == nil {
		t.Fatalf("latest: %v", err)
	}
	if err := env.fixtures.DeleteFixture(ctx, env.tx, fx.ID); err != nil {
		t.Fatalf("delete fixture: %v", err)
	}

	// The test case's snapshots are immutable: deleting the fixture must not
	// rewrite their frozen delegate pointers, even though those now dangle.
	targetSteps, err := env.stepVersions.GetByTestCaseVersionIDs(ctx, env.tx, []uuid.UUID{target.ID})
	if err != nil || len(targetSteps) != 1 {
		t.Fatalf("target snapshot steps: err=%v len=%d", err, len(targetSteps))
	}
	if targetSteps[0].DelegateFixtureVersionID == nil {
		t.Fatal("fixture delete mutated a step snapshot's delegate pointer")
	}

	if _, err := env.revert.RevertTestCase(ctx, env.tx, tc.ID, target.ID); err != nil {
		t.Fatalf("revert: %v", err)
	}
	live := env.liveSteps(t, ctx, parent)
	if len(live) != 1 {
		t.Fatalf("live steps = %d, want 1", len(live))
	}
	if live[0].FixtureID != nil {
		t.Fatal("revert kept a reference to a deleted fixture")
	}
}

type blankInferencer struct{}

func (blankInferencer) InferSteps(_ context.Context, lines []string) ([]InferredStep, error) {
	out := make([]InferredStep, len(lines))
	for i := range lines {
		out[i] = InferredStep{ActionDescription: "   "}
	}
	return out, nil
}

func TestAddStepsFromCodeRejectsBlankInference(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "blankinf-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Blank Inference")
	parent := types.TestCaseParent(tc.ID)

	steps := NewStepService(env.db, env.log, env.stepRepo, env.testCaseRepo, env.fixtureRepo, env.ordering, env.ledger, blankInferencer{})
	lines := []string{"await page.goto('/');"}
	created, err := steps.AddStepsFromCode(ctx, env.tx, parent, lines)
	if err != nil {
		t.Fatalf("add from code: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("created = %d, want 1", len(created))
	}
	if created[0].ActionDescription != lines[0] {
		t.Fatalf("blank inferred description stored as %q, want raw line fallback", created[0].ActionDescription)
	}
}

func TestNoopReorderDoesNotSnapshot(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "noop-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Noop Reorder")
	parent := types.TestCaseParent(tc.ID)
	env.addStep(t, ctx, parent, "only step")

	before := env.reloadTestCase(t, ctx, tc.ID)
	if err := env.steps.ReorderStep(ctx, env.tx, parent, 0, 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	after := env.reloadTestCase(t, ctx, tc.ID)
	if after.Version != before.Version {
		t.Fatalf("no-op reorder bumped version: %q -> %q", before.Version, after.Version)
	}
	history, err := env.revert.ListTestCaseHistory(ctx, env.tx, tc.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
}

func TestMutationAbortsOnOrderGap(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "gap-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Order Gap")
	parent := types.TestCaseParent(tc.ID)
	env.addStep(t, ctx, parent, "first")
	step := env.addStep(t, ctx, parent, "second")

	// Force a gap behind the service's back; the next mutation's density
	// check must refuse to commit.
	if err := env.stepRepo.SetOrder(ctx, env.tx, step.ID, 5); err != nil {
		t.Fatalf("set order: %v", err)
	}
	_, err := env.steps.AddStep(ctx, env.tx, parent, StepInput{ActionDescription: "third"})
	if !errors.Is(err, ErrOrderingConflict) {
		t.Fatalf("err = %v, want ErrOrderingConflict", err)
	}
}

func TestRevertToEmptySnapshotRejected(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "emptysnap-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Empty Snapshot")
	env.addStep(t, ctx, types.TestCaseParent(tc.ID), "a step")

	orphan := &types.TestCaseVersion{
		ID:         uuid.New(),
		TestCaseID: tc.ID,
		Version:    "1.0.0",
		Name:       tc.Name,
	}
	if _, err := env.tcVersions.Create(ctx, env.tx, []*types.TestCaseVersion{orphan}); err != nil {
		t.Fatalf("create orphan version: %v", err)
	}
	_, err := env.revert.RevertTestCase(ctx, env.tx, tc.ID, orphan.ID)
	if !errors.Is(err, ErrEmptyHistorySnapshot) {
		t.Fatalf("err = %v, want ErrEmptyHistorySnapshot", err)
	}
}

func TestReleaseBindingPinsVersion(t *testing.T) {
	env, ctx := newEnv(t)
	p := testutil.SeedProject(t, ctx, env.tx, "pin-"+uuid.NewString()[:8])
	tc := testutil.SeedTestCase(t, ctx, env.tx, p.ID, "Pinned")
	parent := types.TestCaseParent(tc.ID)
	env.addStep(t, ctx, parent, "one")

	release, err := env.releases.CreateRelease(ctx, env.tx, p.ID, CreateReleaseInput{Name: "2026.08"})
	if err != nil {
		t.Fatalf("create release: %v", err)
	}
	binding, err := env.releases.BindTestCase(ctx, env.tx, release.ID, tc.ID)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if binding.PinnedVersion != "1.0.1" {
		t.Fatalf("pinned version = %q, want 1.0.1", binding.PinnedVersion)
	}

	env.addStep(t, ctx, parent, "two")
	bindings, err := env.releases.ListBindings(ctx, env.tx, release.ID)
	if err != nil || len(bindings) != 1 {
		t.Fatalf("list bindings: %v", err)
	}
	if bindings[0].PinnedVersion != "1.0.1" {
		t.Fatalf("pin moved to %q after edit", bindings[0].PinnedVersion)
	}
}
