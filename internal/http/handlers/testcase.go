package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/caseforge/caseforge-backend/internal/materialize"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/realtime"
	"github.com/caseforge/caseforge-backend/internal/services"
)

type TestCaseHandler struct {
	log             *logger.Logger
	testCaseService services.TestCaseService
	revertService   services.RevertService
	cloneService    services.CloneService
	permissions     services.PermissionService
	dispatcher      *materialize.Dispatcher
	bus             realtime.Bus
}

func NewTestCaseHandler(
	baseLog *logger.Logger,
	testCaseService services.TestCaseService,
	revertService services.RevertService,
	cloneService services.CloneService,
	permissions services.PermissionService,
	dispatcher *materialize.Dispatcher,
	bus realtime.Bus,
) *TestCaseHandler {
	return &TestCaseHandler{
		log:             baseLog.With("handler", "TestCaseHandler"),
		testCaseService: testCaseService,
		revertService:   revertService,
		cloneService:    cloneService,
		permissions:     permissions,
		dispatcher:      dispatcher,
		bus:             bus,
	}
}

func (h *TestCaseHandler) publish(c *gin.Context, eventType string, projectID, entityID uuid.UUID, version string) {
	ev := realtime.Event{
		Type:       eventType,
		ProjectID:  projectID,
		EntityID:   entityID,
		Version:    version,
		OccurredAt: time.Now().UTC(),
	}
	if err := h.bus.Publish(c.Request.Context(), ev); err != nil {
		h.log.Warn("event publish failed", "type", eventType, "error", err)
	}
}

func (h *TestCaseHandler) Create(c *gin.Context) {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, projectID) {
		return
	}
	var input services.CreateTestCaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	tc, err := h.testCaseService.CreateTestCase(c.Request.Context(), nil, projectID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	h.publish(c, "testcase.created", tc.ProjectID, tc.ID, tc.Version)
	c.JSON(http.StatusCreated, tc)
}

func (h *TestCaseHandler) List(c *gin.Context) {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionRead, projectID) {
		return
	}
	cases, err := h.testCaseService.ListTestCases(c.Request.Context(), nil, projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, cases)
}

func (h *TestCaseHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionRead, id) {
		return
	}
	tc, err := h.testCaseService.GetTestCase(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, tc)
}

func (h *TestCaseHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	var input services.UpdateTestCaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	tc, err := h.testCaseService.UpdateTestCase(c.Request.Context(), nil, id, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	// Renames move the generated file, so regenerate even though the step set
	// is untouched.
	if input.Name != nil {
		h.dispatcher.EnqueueTestCase(tc.ID)
	}
	h.publish(c, "testcase.updated", tc.ProjectID, tc.ID, tc.Version)
	RespondOK(c, tc)
}

func (h *TestCaseHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionDelete, id) {
		return
	}
	tc, err := h.testCaseService.GetTestCase(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := h.testCaseService.DeleteTestCase(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	h.publish(c, "testcase.deleted", tc.ProjectID, tc.ID, tc.Version)
	c.Status(http.StatusNoContent)
}

func (h *TestCaseHandler) History(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionRead, id) {
		return
	}
	history, err := h.revertService.ListTestCaseHistory(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, history)
}

func (h *TestCaseHandler) Revert(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	var input struct {
		VersionID uuid.UUID `json:"version_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	tc, err := h.revertService.RevertTestCase(c.Request.Context(), nil, id, input.VersionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	h.dispatcher.EnqueueTestCase(tc.ID)
	h.publish(c, "testcase.reverted", tc.ProjectID, tc.ID, tc.Version)
	RespondOK(c, tc)
}

func (h *TestCaseHandler) Clone(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	clone, err := h.cloneService.CloneTestCase(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	h.dispatcher.EnqueueTestCase(clone.ID)
	h.publish(c, "testcase.cloned", clone.ProjectID, clone.ID, clone.Version)
	c.JSON(http.StatusCreated, clone)
}

func (h *TestCaseHandler) Materialize(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	if _, err := h.testCaseService.GetTestCase(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	h.dispatcher.EnqueueTestCase(id)
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
