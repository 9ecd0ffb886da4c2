package services

import (
	"context"

	"github.com/google/uuid"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/requestdata"
)

// Actions checked before any mutating operation. The core versioning and
// step logic performs no authorization itself; the request layer asks here.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
	ActionManage = "manage"
)

type PermissionService interface {
	CanPerform(ctx context.Context, action string, resourceID uuid.UUID) bool
}

type permissionService struct {
	log *logger.Logger
}

func NewPermissionService(baseLog *logger.Logger) PermissionService {
	return &permissionService{log: baseLog.With("service", "PermissionService")}
}

// CanPerform maps roles to actions: viewers read, editors read and write,
// admins do everything. Anonymous callers can do nothing.
func (s *permissionService) CanPerform(ctx context.Context, action string, resourceID uuid.UUID) bool {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return false
	}
	switch rd.Role {
	case types.RoleAdmin:
		return true
	case types.RoleEditor:
		return action == ActionRead || action == ActionWrite || action == ActionDelete
	case types.RoleViewer:
		return action == ActionRead
	}
	s.log.Warn("unknown role in permission check", "role", rd.Role, "action", action, "resource_id", resourceID)
	return false
}
