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

type FixtureHandler struct {
	log            *logger.Logger
	fixtureService services.FixtureService
	revertService  services.RevertService
	cloneService   services.CloneService
	permissions    services.PermissionService
	dispatcher     *materialize.Dispatcher
	bus            realtime.Bus
}

func NewFixtureHandler(
	baseLog *logger.Logger,
	fixtureService services.FixtureService,
	revertService services.RevertService,
	cloneService services.CloneService,
	permissions services.PermissionService,
	dispatcher *materialize.Dispatcher,
	bus realtime.Bus,
) *FixtureHandler {
	return &FixtureHandler{
		log:            baseLog.With("handler", "FixtureHandler"),
		fixtureService: fixtureService,
		revertService:  revertService,
		cloneService:   cloneService,
		permissions:    permissions,
		dispatcher:     dispatcher,
		bus:            bus,
	}
}

func (h *FixtureHandler) publish(c *gin.Context, eventType string, projectID, entityID uuid.UUID, version string) {
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

func (h *FixtureHandler) Create(c *gin.Context) {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, projectID) {
		return
	}
	var input services.CreateFixtureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	fx, err := h.fixtureService.CreateFixture(c.Request.Context(), nil, projectID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	h.publish(c, "fixture.created", fx.ProjectID, fx.ID, fx.Version)
	c.JSON(http.StatusCreated, fx)
}

func (h *FixtureHandler) List(c *gin.Context) {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionRead, projectID) {
		return
	}
	fixtures, err := h.fixtureService.ListFixtures(c.Request.Context(), nil, projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, fixtures)
}

func (h *FixtureHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionRead, id) {
		return
	}
	fx, err := h.fixtureService.GetFixture(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, fx)
}

func (h *FixtureHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	var input services.UpdateFixtureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	fx, err := h.fixtureService.UpdateFixture(c.Request.Context(), nil, id, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if input.Name != nil || input.Kind != nil || input.ExportIdentifier != nil {
		h.dispatcher.EnqueueFixture(fx.ID)
	}
	h.publish(c, "fixture.updated", fx.ProjectID, fx.ID, fx.Version)
	RespondOK(c, fx)
}

func (h *FixtureHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionDelete, id) {
		return
	}
	fx, err := h.fixtureService.GetFixture(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if err := h.fixtureService.DeleteFixture(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	h.publish(c, "fixture.deleted", fx.ProjectID, fx.ID, fx.Version)
	c.Status(http.StatusNoContent)
}

func (h *FixtureHandler) History(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionRead, id) {
		return
	}
	history, err := h.revertService.ListFixtureHistory(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, history)
}

func (h *FixtureHandler) Revert(c *gin.Context) {
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
	fx, err := h.revertService.RevertFixture(c.Request.Context(), nil, id, input.VersionID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	h.dispatcher.EnqueueFixture(fx.ID)
	h.publish(c, "fixture.reverted", fx.ProjectID, fx.ID, fx.Version)
	RespondOK(c, fx)
}

func (h *FixtureHandler) Clone(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	clone, err := h.cloneService.CloneFixture(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	h.dispatcher.EnqueueFixture(clone.ID)
	h.publish(c, "fixture.cloned", clone.ProjectID, clone.ID, clone.Version)
	c.JSON(http.StatusCreated, clone)
}

func (h *FixtureHandler) Materialize(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	if _, err := h.fixtureService.GetFixture(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	h.dispatcher.EnqueueFixture(id)
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
