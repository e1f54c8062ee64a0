package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/projectdesk/projectdesk/internal/app"
	"github.com/projectdesk/projectdesk/internal/auth"
	"github.com/projectdesk/projectdesk/internal/backend"
	"github.com/projectdesk/projectdesk/internal/comments"
	"github.com/projectdesk/projectdesk/internal/customers"
	"github.com/projectdesk/projectdesk/internal/dashboard"
	"github.com/projectdesk/projectdesk/internal/identity"
	"github.com/projectdesk/projectdesk/internal/invoices"
	jobmetrics "github.com/projectdesk/projectdesk/internal/jobs"
	"github.com/projectdesk/projectdesk/internal/observability"
	"github.com/projectdesk/projectdesk/internal/platform/cache"
	"github.com/projectdesk/projectdesk/internal/platform/db"
	"github.com/projectdesk/projectdesk/internal/projects"
	"github.com/projectdesk/projectdesk/internal/rbac"
	"github.com/projectdesk/projectdesk/internal/roles"
	"github.com/projectdesk/projectdesk/internal/shared"
	"github.com/projectdesk/projectdesk/internal/users"
	"github.com/projectdesk/projectdesk/internal/view"
	"github.com/projectdesk/projectdesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var auditDB shared.Execer
	if cfg.PGDSN != "" {
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		if err := db.EnsureAuditSchema(ctx, pool); err != nil {
			logger.Error("prepare audit table", slog.Any("error", err))
			os.Exit(1)
		}
		auditDB = pool
	}
	auditLogger := shared.NewAuditLogger(auditDB, logger)

	sessionManager := shared.NewSessionManager(redisClient, "projectdesk_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	sealer, err := shared.NewSealer(cfg.SessionSecret)
	if err != nil {
		logger.Error("init token sealer", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	var (
		scheduler identity.Scheduler
		inspector *asynq.Inspector
	)
	switch cfg.ExpiryMode {
	case app.ExpiryModeQueue:
		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
		queueClient := asynq.NewClient(redisOpts)
		defer queueClient.Close()
		inspector = asynq.NewInspector(redisOpts)
		defer inspector.Close()
		scheduler = identity.NewQueueScheduler(queueClient, inspector)
	default:
		jobMetrics := jobmetrics.NewMetrics(metrics.Registerer())
		expire := jobMetrics.Instrument(jobs.TaskSessionExpire, identity.ExpireSession(sessionManager))
		scheduler = identity.NewTimerScheduler(expire, logger)
	}
	guard := identity.NewGuard(identity.NewStore(sealer), identity.NewMonitor(scheduler, logger), sessionManager, logger)

	templates, err := view.NewEngine(cfg.AssetURL)
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	rbacMiddleware := rbac.Middleware{Resolver: rbac.NewResolver(client, logger), Logger: logger}

	authService := auth.NewService(client)
	authHandler := auth.NewHandler(logger, authService, guard, templates, csrfManager, cfg.LoginRateLimit)

	rolesService := roles.NewService(roles.NewRepository(client), auditLogger)
	rolesHandler := roles.NewHandler(logger, rolesService, templates, csrfManager, rbacMiddleware)

	usersService := users.NewService(users.NewRepository(client), rolesService, auditLogger)
	usersHandler := users.NewHandler(logger, usersService, templates, csrfManager, rbacMiddleware)

	projectsService := projects.NewService(projects.NewRepository(client), rolesService, auditLogger)
	projectsHandler := projects.NewHandler(logger, projectsService, templates, csrfManager, rbacMiddleware)

	invoicesService := invoices.NewService(invoices.NewRepository(client), auditLogger)
	invoicesHandler := invoices.NewHandler(logger, invoicesService, templates, csrfManager, rbacMiddleware)

	displayZone, err := cfg.Location()
	if err != nil {
		logger.Error("resolve display timezone", slog.Any("error", err))
		os.Exit(1)
	}
	commentsService := comments.NewService(comments.NewRepository(client), auditLogger, comments.WithLocation(displayZone))
	commentsHandler := comments.NewHandler(logger, commentsService, templates, csrfManager, rbacMiddleware)

	customersService := customers.NewService(customers.NewRepository(client))
	customersHandler := customers.NewHandler(logger, customersService, templates, csrfManager, rbacMiddleware)

	dashboardService := dashboard.NewService(projectsService, usersService)
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, templates, csrfManager, cfg.SessionTTL)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		SessionManager:     sessionManager,
		CSRFManager:        csrfManager,
		Guard:              guard,
		RBACMiddleware:     rbacMiddleware,
		Metrics:            metrics,
		AuthHandler:        authHandler,
		DashboardHandler:   dashboardHandler,
		RolesHandler:       rolesHandler,
		UsersHandler:       usersHandler,
		ProjectsHandler:    projectsHandler,
		InvoicesHandler:    invoicesHandler,
		CommentsHandler:    commentsHandler,
		CustomersHandler:   customersHandler,
		PermissionsHandler: rbac.NewPermissionsHandler(),
		JobHandler:         jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("backend", cfg.BackendURL))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
