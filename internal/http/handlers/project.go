package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/caseforge/caseforge-backend/internal/materialize"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/services"
)

type ProjectHandler struct {
	log            *logger.Logger
	projectService services.ProjectService
	permissions    services.PermissionService
	dispatcher     *materialize.Dispatcher
}

func NewProjectHandler(
	baseLog *logger.Logger,
	projectService services.ProjectService,
	permissions services.PermissionService,
	dispatcher *materialize.Dispatcher,
) *ProjectHandler {
	return &ProjectHandler{
		log:            baseLog.With("handler", "ProjectHandler"),
		projectService: projectService,
		permissions:    permissions,
		dispatcher:     dispatcher,
	}
}

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func allowed(c *gin.Context, permissions services.PermissionService, action string, resourceID uuid.UUID) bool {
	if permissions.CanPerform(c.Request.Context(), action, resourceID) {
		return true
	}
	RespondError(c, http.StatusForbidden, "forbidden", fmt.Errorf("not allowed to %s this resource", action))
	return false
}

func (h *ProjectHandler) Create(c *gin.Context) {
	if !allowed(c, h.permissions, services.ActionManage, uuid.Nil) {
		return
	}
	var input services.CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	project, err := h.projectService.CreateProject(c.Request.Context(), nil, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) List(c *gin.Context) {
	if !allowed(c, h.permissions, services.ActionRead, uuid.Nil) {
		return
	}
	projects, err := h.projectService.ListProjects(c.Request.Context(), nil)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, projects)
}

func (h *ProjectHandler) Get(c *gin.Context) {
	id, err := pathID(c, "projectId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionRead, id) {
		return
	}
	project, err := h.projectService.GetProject(c.Request.Context(), nil, id)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, project)
}

func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := pathID(c, "projectId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	var input services.UpdateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	project, err := h.projectService.UpdateProject(c.Request.Context(), nil, id, input)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, project)
}

func (h *ProjectHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "projectId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionManage, id) {
		return
	}
	if err := h.projectService.DeleteProject(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Rematerialize regenerates every file of the project in the background.
func (h *ProjectHandler) Rematerialize(c *gin.Context) {
	id, err := pathID(c, "projectId")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	if !allowed(c, h.permissions, services.ActionWrite, id) {
		return
	}
	if _, err := h.projectService.GetProject(c.Request.Context(), nil, id); err != nil {
		RespondServiceError(c, err)
		return
	}
	h.dispatcher.EnqueueProject(id)
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
