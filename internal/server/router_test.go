package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/caseforge/caseforge-backend/internal/http/handlers"
	"github.com/caseforge/caseforge-backend/internal/http/middleware"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
)

// Route registration must not panic: gin rejects two wildcard names at the
// same path position, so every route under /projects/ has to agree on one
// parameter name.
func TestNewRouterRegistersRoutes(t *testing.T) {
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	router := NewRouter(RouterConfig{
		AuthHandler:     handlers.NewAuthHandler(log, nil),
		AuthMiddleware:  middleware.NewAuthMiddleware(log, nil),
		ProjectHandler:  handlers.NewProjectHandler(log, nil, nil, nil),
		TestCaseHandler: handlers.NewTestCaseHandler(log, nil, nil, nil, nil, nil, nil),
		FixtureHandler:  handlers.NewFixtureHandler(log, nil, nil, nil, nil, nil, nil),
		StepHandler:     handlers.NewStepHandler(log, nil, nil, nil, nil, nil, nil),
		ReleaseHandler:  handlers.NewReleaseHandler(log, nil, nil),
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthcheck", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("healthcheck status = %d, want %d", w.Code, http.StatusOK)
	}

	routes := router.Routes()
	want := map[string]bool{
		"GET /api/projects/:projectId":                  false,
		"POST /api/projects/:projectId/test-cases":      false,
		"POST /api/projects/:projectId/fixtures":        false,
		"POST /api/projects/:projectId/releases":        false,
		"POST /api/projects/:projectId/materialize":     false,
		"POST /api/test-cases/:id/revert":               false,
		"POST /api/fixtures/:id/clone":                  false,
		"POST /api/releases/:id/test-cases/:testCaseId": false,
	}
	for _, r := range routes {
		key := r.Method + " " + r.Path
		if _, ok := want[key]; ok {
			want[key] = true
		}
	}
	for key, seen := range want {
		if !seen {
			t.Errorf("route %s not registered", key)
		}
	}
}
