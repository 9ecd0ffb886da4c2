package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/caseforge/caseforge-backend/internal/domain"
	"github.com/caseforge/caseforge-backend/internal/http/handlers"
	"github.com/caseforge/caseforge-backend/internal/http/middleware"
	"github.com/caseforge/caseforge-backend/internal/platform/envutil"
)

type RouterConfig struct {
	AuthHandler     *handlers.AuthHandler
	AuthMiddleware  *middleware.AuthMiddleware
	ProjectHandler  *handlers.ProjectHandler
	TestCaseHandler *handlers.TestCaseHandler
	FixtureHandler  *handlers.FixtureHandler
	StepHandler     *handlers.StepHandler
	ReleaseHandler  *handlers.ReleaseHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("caseforge-backend"))

	origins := strings.Split(envutil.String("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173"), ",")
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.RequireAuth())

	// Projects
	api.POST("/projects", cfg.ProjectHandler.Create)
	api.GET("/projects", cfg.ProjectHandler.List)
	api.GET("/projects/:projectId", cfg.ProjectHandler.Get)
	api.PATCH("/projects/:projectId", cfg.ProjectHandler.Update)
	api.DELETE("/projects/:projectId", cfg.ProjectHandler.Delete)
	api.POST("/projects/:projectId/materialize", cfg.ProjectHandler.Rematerialize)

	// Test cases
	api.POST("/projects/:projectId/test-cases", cfg.TestCaseHandler.Create)
	api.GET("/projects/:projectId/test-cases", cfg.TestCaseHandler.List)
	api.GET("/test-cases/:id", cfg.TestCaseHandler.Get)
	api.PATCH("/test-cases/:id", cfg.TestCaseHandler.Update)
	api.DELETE("/test-cases/:id", cfg.TestCaseHandler.Delete)
	api.GET("/test-cases/:id/versions", cfg.TestCaseHandler.History)
	api.POST("/test-cases/:id/revert", cfg.TestCaseHandler.Revert)
	api.POST("/test-cases/:id/clone", cfg.TestCaseHandler.Clone)
	api.POST("/test-cases/:id/materialize", cfg.TestCaseHandler.Materialize)

	// Fixtures
	api.POST("/projects/:projectId/fixtures", cfg.FixtureHandler.Create)
	api.GET("/projects/:projectId/fixtures", cfg.FixtureHandler.List)
	api.GET("/fixtures/:id", cfg.FixtureHandler.Get)
	api.PATCH("/fixtures/:id", cfg.FixtureHandler.Update)
	api.DELETE("/fixtures/:id", cfg.FixtureHandler.Delete)
	api.GET("/fixtures/:id/versions", cfg.FixtureHandler.History)
	api.POST("/fixtures/:id/revert", cfg.FixtureHandler.Revert)
	api.POST("/fixtures/:id/clone", cfg.FixtureHandler.Clone)
	api.POST("/fixtures/:id/materialize", cfg.FixtureHandler.Materialize)

	// Steps, per parent collection
	api.GET("/test-cases/:id/steps", cfg.StepHandler.List(types.ParentTestCase))
	api.POST("/test-cases/:id/steps", cfg.StepHandler.Add(types.ParentTestCase))
	api.POST("/test-cases/:id/steps/from-code", cfg.StepHandler.AddFromCode(types.ParentTestCase))
	api.POST("/test-cases/:id/steps/reorder", cfg.StepHandler.Reorder(types.ParentTestCase))
	api.GET("/fixtures/:id/steps", cfg.StepHandler.List(types.ParentFixture))
	api.POST("/fixtures/:id/steps", cfg.StepHandler.Add(types.ParentFixture))
	api.POST("/fixtures/:id/steps/from-code", cfg.StepHandler.AddFromCode(types.ParentFixture))
	api.POST("/fixtures/:id/steps/reorder", cfg.StepHandler.Reorder(types.ParentFixture))
	api.PATCH("/steps/:stepId", cfg.StepHandler.Update)
	api.POST("/steps/:stepId/duplicate", cfg.StepHandler.Duplicate)
	api.DELETE("/steps/:stepId", cfg.StepHandler.Delete)

	// Releases
	api.POST("/projects/:projectId/releases", cfg.ReleaseHandler.Create)
	api.GET("/projects/:projectId/releases", cfg.ReleaseHandler.List)
	api.GET("/releases/:id", cfg.ReleaseHandler.Get)
	api.DELETE("/releases/:id", cfg.ReleaseHandler.Delete)
	api.GET("/releases/:id/test-cases", cfg.ReleaseHandler.Bindings)
	api.POST("/releases/:id/test-cases/:testCaseId", cfg.ReleaseHandler.Bind)
	api.DELETE("/releases/:id/test-cases/:testCaseId", cfg.ReleaseHandler.Unbind)

	return router
}
