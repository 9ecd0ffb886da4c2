package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/materialize"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/realtime"
	"github.com/caseforge/caseforge-backend/internal/services"
)

// StepHandler serves both step collections; routes bind each method to a
// parent kind, so /test-cases/:id/steps and /fixtures/:id/steps share code.
type StepHandler struct {
	log             *logger.Logger
	stepService     services.StepService
	testCaseService services.TestCaseService
	fixtureService  services.FixtureService
	permissions     services.PermissionService
	dispatcher      *materialize.Dispatcher
	bus             realtime.Bus
}

func NewStepHandler(
	baseLog *logger.Logger,
	stepService services.StepService,
	testCaseService services.TestCaseService,
	fixtureService services.FixtureService,
	permissions services.PermissionService,
	dispatcher *materialize.Dispatcher,
	bus realtime.Bus,
) *StepHandler {
	return &StepHandler{
		log:             baseLog.With("handler", "StepHandler"),
		stepService:     stepService,
		testCaseService: testCaseService,
		fixtureService:  fixtureService,
		permissions:     permissions,
		dispatcher:      dispatcher,
		bus:             bus,
	}
}

func (h *StepHandler) parentRef(kind types.ParentKind, id uuid.UUID) types.ParentRef {
	if kind == types.ParentTestCase {
		return types.TestCaseParent(id)
	}
	return types.FixtureParent(id)
}

// afterMutation regenerates the parent's file and announces the change.
func (h *StepHandler) afterMutation(c *gin.Context, parent types.ParentRef) {
	var projectID uuid.UUID
	var version string
	if parent.Kind == types.ParentTestCase {
		h.dispatcher.EnqueueTestCase(parent.ID)
		if tc, err := h.testCaseService.GetTestCase(c.Request.Context(), nil, parent.ID); err == nil {
			projectID, version = tc.ProjectID, tc.Version
		}
	} else {
		h.dispatcher.EnqueueFixture(parent.ID)
		if fx, err := h.fixtureService.GetFixture(c.Request.Context(), nil, parent.ID); err == nil {
			projectID, version = fx.ProjectID, fx.Version
		}
	}
	ev := realtime.Event{
		Type:       "steps.changed",
		ProjectID:  projectID,
		EntityID:   parent.ID,
		Version:    version,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.bus.Publish(c.Request.Context(), ev); err != nil {
		h.log.Warn("event publish failed", "type", ev.Type, "error", err)
	}
}

func (h *StepHandler) List(kind types.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		if !allowed(c, h.permissions, services.ActionRead, id) {
			return
		}
		steps, err := h.stepService.ListSteps(c.Request.Context(), nil, h.parentRef(kind, id))
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, steps)
	}
}

func (h *StepHandler) Add(kind types.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		if !allowed(c, h.permissions, services.ActionWrite, id) {
			return
		}
		var input services.StepInput
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		parent := h.parentRef(kind, id)
		step, err := h.stepService.AddStep(c.Request.Context(), nil, parent, input)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		h.afterMutation(c, parent)
		c.JSON(http.StatusCreated, step)
	}
}

func (h *StepHandler) AddFromCode(kind types.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		if !allowed(c, h.permissions, services.ActionWrite, id) {
			return
		}
		var input struct {
			CodeLines []string `json:"code_lines" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		parent := h.parentRef(kind, id)
		steps, err := h.stepService.AddStepsFromCode(c.Request.Context(), nil, parent, input.CodeLines)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		h.afterMutation(c, parent)
		c.JSON(http.StatusCreated, steps)
	}
}

func (h *StepHandler) Reorder(kind types.ParentKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := pathID(c, "id")
		if err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		if !allowed(c, h.permissions, services.ActionWrite, id) {
			return
		}
		var input struct {
			FromOrder int `json:"from_order"`
			ToOrder   int `json:"to_order"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			RespondError(c, http.StatusBadRequest, "bad_request", err)
			return
		}
		parent := h.parentRef(kind, id)
		if err := h.stepService.ReorderStep(c.Request.Context(), nil, parent, input.FromOrder, input.ToOrder); err != nil {
			RespondServiceError(c, err)
			return
		}
		h.afterMutation(c, parent)
		steps, err := h.stepService.ListSteps(c.Request.Context(), nil, parent)
		if err != nil {
			RespondServiceError(c, err)
			return
		}
		RespondOK(c, steps)
	}
}

func (h *StepHandler) Update(c *gin.Context) {
	stepID, err := pathID(c, "stepId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, stepID) {
		return
	}
	var input services.StepInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	step, err := h.stepService.UpdateStep(c.Request.Context(), nil, stepID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	h.afterMutation(c, step.Parent)
	RespondOK(c, step)
}

func (h *StepHandler) Duplicate(c *gin.Context) {
	stepID, err := pathID(c, "stepId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, stepID) {
		return
	}
	step, err := h.stepService.DuplicateStep(c.Request.Context(), nil, stepID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	h.afterMutation(c, step.Parent)
	c.JSON(http.StatusCreated, step)
}

func (h *StepHandler) Delete(c *gin.Context) {
	stepID, err := pathID(c, "stepId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionDelete, stepID) {
		return
	}
	step, err := h.stepService.DeleteStep(c.Request.Context(), nil, stepID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	h.afterMutation(c, step.Parent)
	c.Status(http.StatusNoContent)
}
