package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/services"
)

type ReleaseHandler struct {
	log            *logger.Logger
	releaseService services.ReleaseService
	permissions    services.PermissionService
}

func NewReleaseHandler(baseLog *logger.Logger, releaseService services.ReleaseService, permissions services.PermissionService) *ReleaseHandler {
	return &ReleaseHandler{
		log:            baseLog.With("handler", "ReleaseHandler"),
		releaseService: releaseService,
		permissions:    permissions,
	}
}

func (h *ReleaseHandler) Create(c *gin.Context) {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, projectID) {
		return
	}
	var input services.CreateReleaseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	release, err := h.releaseService.CreateRelease(c.Request.Context(), nil, projectID, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, release)
}

func (h *ReleaseHandler) List(c *gin.Context) {
	projectID, err := pathID(c, "projectId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionRead, projectID) {
		return
	}
	releases, err := h.releaseService.ListReleases(c.Request.Context(), nil, projectID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, releases)
}

func (h *ReleaseHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionRead, id) {
		return
	}
	release, err := h.releaseService.GetRelease(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, release)
}

func (h *ReleaseHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionDelete, id) {
		return
	}
	if err := h.releaseService.DeleteRelease(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReleaseHandler) Bind(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	testCaseID, err := pathID(c, "testCaseId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	binding, err := h.releaseService.BindTestCase(c.Request.Context(), nil, id, testCaseID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, binding)
}

func (h *ReleaseHandler) Unbind(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	testCaseID, err := pathID(c, "testCaseId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	if err := h.releaseService.UnbindTestCase(c.Request.Context(), nil, id, testCaseID); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ReleaseHandler) Bindings(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionRead, id) {
		return
	}
	bindings, err := h.releaseService.ListBindings(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, bindings)
}
