package materialize

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

type targetKind int

const (
	targetTestCase targetKind = iota
	targetFixture
	targetProject
)

type job struct {
	kind targetKind
	id   uuid.UUID
}

// Dispatcher decouples file generation from the request path. Handlers
// enqueue after their transaction commits; workers render and write in the
// background. Failures are logged as warnings and never propagate back —
// materialization is idempotent and can be re-triggered at any time.
type Dispatcher struct {
	log     *logger.Logger
	mat     Materializer
	jobs    chan job
	wg      sync.WaitGroup
	cancel  context.CancelFunc
	started bool
	mu      sync.Mutex
}

func NewDispatcher(baseLog *logger.Logger, mat Materializer) *Dispatcher {
	return &Dispatcher{
		log:  baseLog.With("component", "MaterializeDispatcher"),
		mat:  mat,
		jobs: make(chan job, 256),
	}
}

func (d *Dispatcher) Start(ctx context.Context, workers int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	ctx, d.cancel = context.WithCancel(ctx)
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.run(ctx)
	}
}

func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.started {
		return
	}
	d.cancel()
	close(d.jobs)
	d.wg.Wait()
	d.started = false
}

func (d *Dispatcher) EnqueueTestCase(id uuid.UUID) { d.enqueue(job{kind: targetTestCase, id: id}) }
func (d *Dispatcher) EnqueueFixture(id uuid.UUID)  { d.enqueue(job{kind: targetFixture, id: id}) }
func (d *Dispatcher) EnqueueProject(id uuid.UUID)  { d.enqueue(job{kind: targetProject, id: id}) }

// enqueue never blocks the request path; when the queue is full the job is
// dropped with a warning and can be re-triggered through the retry endpoint.
func (d *Dispatcher) enqueue(j job) {
	select {
	case d.jobs <- j:
	default:
		d.log.Warn("materialize queue full, dropping job", "target_id", j.id)
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-d.jobs:
			if !ok {
				return
			}
			d.handle(ctx, j)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("materialize worker panic", "target_id", j.id, "panic", r)
		}
	}()
	var err error
	switch j.kind {
	case targetTestCase:
		_, err = d.mat.MaterializeTestCase(ctx, j.id)
	case targetFixture:
		_, err = d.mat.MaterializeFixture(ctx, j.id)
	case targetProject:
		err = d.mat.RematerializeProject(ctx, j.id)
	}
	if errors.Is(err, ErrManualTestCase) {
		return
	}
	if err != nil {
		d.log.Warn("materialization failed", "target_id", j.id, "error", err)
	}
}
