package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/caseforge/caseforge-backend/internal/clients/openai"
	"github.com/caseforge/caseforge-backend/internal/data/db"
	"github.com/caseforge/caseforge-backend/internal/data/repos"
	"github.com/caseforge/caseforge-backend/internal/http/handlers"
	"github.com/caseforge/caseforge-backend/internal/http/middleware"
	"github.com/caseforge/caseforge-backend/internal/materialize"
	"github.com/caseforge/caseforge-backend/internal/observability"
	"github.com/caseforge/caseforge-backend/internal/platform/envutil"
	"github.com/caseforge/caseforge-backend/internal/platform/logger"
	"github.com/caseforge/caseforge-backend/internal/realtime"
	"github.com/caseforge/caseforge-backend/internal/server"
	"github.com/caseforge/caseforge-backend/internal/services"
)

func main() {
	_ = godotenv.Load()

	log, err := logger.New(envutil.String("LOG_MODE", "development"))
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	accessTTL := envutil.Duration("ACCESS_TOKEN_TTL", time.Hour)

	ctx := context.Background()
	shutdownTracing := observability.Init(ctx, log, observability.Config{
		ServiceName: "caseforge-backend",
		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", "dev"),
	})

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("Postgres init failed", "error", err)
	}
	if err := postgresService.AutoMigrateAll(); err != nil {
		log.Fatal("Postgres auto migration failed", "error", err)
	}
	pg := postgresService.DB()

	// Repos
	userRepo := repos.NewUserRepo(pg, log)
	projectRepo := repos.NewProjectRepo(pg, log)
	releaseRepo := repos.NewReleaseRepo(pg, log)
	releaseTestCaseRepo := repos.NewReleaseTestCaseRepo(pg, log)
	testCaseRepo := repos.NewTestCaseRepo(pg, log)
	fixtureRepo := repos.NewFixtureRepo(pg, log)
	stepRepo := repos.NewStepRepo(pg, log)
	testCaseVersionRepo := repos.NewTestCaseVersionRepo(pg, log)
	fixtureVersionRepo := repos.NewFixtureVersionRepo(pg, log)
	stepVersionRepo := repos.NewStepVersionRepo(pg, log)

	// Realtime bus: redis when configured, otherwise in-process no-op.
	var bus realtime.Bus
	if envutil.String("REDIS_ADDR", "") != "" {
		bus, err = realtime.NewRedisBus(log)
		if err != nil {
			log.Warn("redis bus init failed, falling back to noop", "error", err)
			bus = realtime.NewNoopBus()
		}
	} else {
		bus = realtime.NewNoopBus()
	}
	defer bus.Close()

	// Optional AI step inference.
	var inferencer services.StepInferencer
	if envutil.String("OPENAI_API_KEY", "") != "" {
		client, err := openai.New(log)
		if err != nil {
			log.Warn("openai client init failed, step inference disabled", "error", err)
		} else {
			inferencer = client
		}
	}

	// Services
	ordering := services.NewOrderingService(pg, log, stepRepo)
	ledger := services.NewVersionLedger(pg, log, testCaseRepo, fixtureRepo, stepRepo, testCaseVersionRepo, fixtureVersionRepo, stepVersionRepo)
	stepService := services.NewStepService(pg, log, stepRepo, testCaseRepo, fixtureRepo, ordering, ledger, inferencer)
	revertService := services.NewRevertService(pg, log, testCaseRepo, fixtureRepo, stepRepo, testCaseVersionRepo, fixtureVersionRepo, stepVersionRepo, ordering, ledger)
	cloneService := services.NewCloneService(pg, log, testCaseRepo, fixtureRepo, stepRepo)
	testCaseService := services.NewTestCaseService(pg, log, testCaseRepo, stepRepo, testCaseVersionRepo, stepVersionRepo, releaseTestCaseRepo)
	fixtureService := services.NewFixtureService(pg, log, fixtureRepo, stepRepo, fixtureVersionRepo, stepVersionRepo)
	projectService := services.NewProjectService(pg, log, projectRepo)
	releaseService := services.NewReleaseService(pg, log, releaseRepo, releaseTestCaseRepo, testCaseRepo)
	authService := services.NewAuthService(pg, log, userRepo, jwtSecretKey, accessTTL)
	permissions := services.NewPermissionService(log)

	// Materializer worker pool
	materializer := materialize.New(pg, log, projectRepo, testCaseRepo, fixtureRepo, stepRepo)
	dispatcher := materialize.NewDispatcher(log, materializer)
	dispatcher.Start(ctx, envutil.Int("MATERIALIZE_WORKERS", 2))
	defer dispatcher.Stop()

	// HTTP
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:     handlers.NewAuthHandler(log, authService),
		AuthMiddleware:  middleware.NewAuthMiddleware(log, authService),
		ProjectHandler:  handlers.NewProjectHandler(log, projectService, permissions, dispatcher),
		TestCaseHandler: handlers.NewTestCaseHandler(log, testCaseService, revertService, cloneService, permissions, dispatcher, bus),
		FixtureHandler:  handlers.NewFixtureHandler(log, fixtureService, revertService, cloneService, permissions, dispatcher, bus),
		StepHandler:     handlers.NewStepHandler(log, stepService, testCaseService, fixtureService, permissions, dispatcher, bus),
		ReleaseHandler:  handlers.NewReleaseHandler(log, releaseService, permissions),
	})

	addr := ":" + envutil.String("PORT", "8080")
	log.Info("Starting server", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Error("Server exited", "error", err)
	}

	if shutdownTracing != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}
}
