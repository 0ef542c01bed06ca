// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "careline/internal/docs" // swagger docs
	"careline/internal/auth"
	"careline/internal/cache"
	"careline/internal/config"
	"careline/internal/middleware"
	"careline/internal/models"
	"careline/internal/notifications"
	"careline/internal/policy"
	"careline/internal/repository"
	"careline/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const requestTimeout = 15 * time.Second

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	tokens     *auth.TokenIssuer
	accounts   repository.AccountRepository
	notifier   *notifications.Notifier
	hub        *notifications.InboxHub
	dispatcher *notifications.Dispatcher

	accountService    *service.AccountService
	invitationService *service.InvitationService
	requestService    *service.AccountRequestService
	allergyService    *service.AllergyService
	diagnosisService  *service.DiagnosisService
	medicationService *service.MedicationService
	documentService   *service.DocumentService
	capabilityService *service.CapabilityService
	inventoryService  *service.InventoryService
	messageService    *service.MessageService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil; caching, rate limiting and realtime push are then off.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	return newServer(cfg, db, redisClient, auth.NewBcryptHasher())
}

func newServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, hasher auth.Hasher) (*Server, error) {
	if db == nil {
		return nil, fmt.Errorf("database is required")
	}

	notifier := notifications.NewNotifier(redisClient)
	var mailer notifications.Mailer = notifications.LogMailer{}
	if cfg.MailAPIURL != "" {
		mailer = notifications.NewMailClient(cfg.MailAPIURL, cfg.MailAPIKey, cfg.MailFrom, cfg.PublicBaseURL)
	}
	dispatcher := notifications.NewDispatcher(mailer, notifier)

	accounts := repository.NewAccountRepository(db, cache.New(redisClient))
	lifecycle := service.LifecycleConfigFrom(cfg)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("careline-api"),
		tokens:         auth.NewTokenIssuer(cfg.JWTSecret),
		accounts:       accounts,
		notifier:       notifier,
		dispatcher:     dispatcher,
	}

	s.accountService = service.NewAccountService(accounts, hasher, s.tokens)
	s.invitationService = service.NewInvitationService(
		repository.NewInvitationRepository(db), accounts, hasher, dispatcher, lifecycle)
	s.requestService = service.NewAccountRequestService(
		repository.NewAccountRequestRepository(db), accounts, hasher, dispatcher, lifecycle)
	s.allergyService = service.NewAllergyService(repository.NewAllergyRepository(db), accounts)
	s.diagnosisService = service.NewDiagnosisService(repository.NewDiagnosisRepository(db), accounts)
	s.medicationService = service.NewMedicationService(repository.NewMedicationRepository(db), accounts)
	s.documentService = service.NewDocumentService(repository.NewDocumentRepository(db), accounts)
	s.capabilityService = service.NewCapabilityService(repository.NewCapabilityRepository(db), accounts)
	s.inventoryService = service.NewInventoryService(
		repository.NewSupplierRepository(db), repository.NewInventoryRepository(db))
	s.messageService = service.NewMessageService(repository.NewMessageRepository(db), accounts, dispatcher)

	if redisClient != nil {
		s.hub = notifications.NewInboxHub()
	}
	return s, nil
}

// NewApp builds the Fiber application with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Careline API",
		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message, Code: models.CodeValidation})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.Any("error", err))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}
	app.Use(middleware.ContextMiddleware())
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())

	// CORS runs before anything that can short-circuit so error responses
	// still carry the headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || s.config.Env == "test"
		},
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")
	api.Get("/swagger/*", swagger.HandlerDefault)

	// WebSocket: ticket issuance is authenticated; the upgrade itself
	// authenticates with the single-use ticket.
	api.Post("/ws/ticket", s.AuthRequired(), s.IssueWSTicket)
	api.Get("/ws", s.AuthRequired(), s.InboxWebSocketHandler())

	wrap := func(h fiber.Handler) fiber.Handler {
		return timeout.NewWithContext(h, requestTimeout)
	}

	// Credentials: invitation path and login
	cred := api.Group("/accountCredential")
	cred.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), wrap(s.Login))
	cred.Post("/register", middleware.RateLimit(s.redis, 5, 10*time.Minute, "register"), wrap(s.Register))
	cred.Get("/invitations/:token", middleware.RateLimit(s.redis, 30, time.Minute, "invitation_preview"), wrap(s.PreviewInvitation))
	cred.Post("/invite", s.AuthRequired(), s.AdminRequired(), wrap(s.Invite))
	cred.Get("/invitations", s.AuthRequired(), s.AdminRequired(), wrap(s.ListInvitations))
	cred.Post("/invitations/:id/revoke", s.AuthRequired(), s.AdminRequired(), wrap(s.RevokeInvitation))

	// Self-service account requests
	requests := api.Group("/accountRequests")
	requests.Post("/", middleware.RateLimit(s.redis, 5, 10*time.Minute, "account_request"), wrap(s.CreateAccountRequest))
	requests.Post("/activate", middleware.RateLimit(s.redis, 10, 10*time.Minute, "activate"), wrap(s.ActivateAccount))
	adminRequests := requests.Group("", s.AuthRequired(), s.AdminRequired())
	adminRequests.Get("/", wrap(s.ListAccountRequests))
	adminRequests.Get("/:id", wrap(s.GetAccountRequest))
	adminRequests.Put("/:id", wrap(s.UpdateAccountRequest))
	adminRequests.Post("/:id/approve", wrap(s.ApproveAccountRequest))
	adminRequests.Post("/:id/deny", wrap(s.DenyAccountRequest))
	adminRequests.Post("/:id/resend", wrap(s.ResendActivationCode))

	protected := api.Group("", s.AuthRequired())

	accounts := protected.Group("/accounts")
	accounts.Get("/", wrap(s.ListAccounts))
	accounts.Get("/me", wrap(s.GetMe))
	accounts.Get("/:id", wrap(s.GetAccount))
	accounts.Delete("/:id", wrap(s.DeleteAccount))

	residents := protected.Group("/residents/:residentId")
	registerRecordRoutes(residents.Group("/allergies"), s.allergyService, wrap)
	registerRecordRoutes(residents.Group("/diagnoses"), s.diagnosisService, wrap)
	registerRecordRoutes(residents.Group("/medications"), s.medicationService, wrap)
	registerRecordRoutes(residents.Group("/documents"), s.documentService, wrap)
	residents.Get("/capability", wrap(s.GetCapability))
	residents.Put("/capability", wrap(s.UpsertCapability))

	inventory := protected.Group("/inventory")
	inventory.Get("/export", wrap(s.ExportInventory))
	suppliers := inventory.Group("/suppliers")
	suppliers.Get("/", wrap(s.ListSuppliers))
	suppliers.Post("/", wrap(s.CreateSupplier))
	suppliers.Get("/:id", wrap(s.GetSupplier))
	suppliers.Put("/:id", wrap(s.UpdateSupplier))
	suppliers.Delete("/:id", wrap(s.DeleteSupplier))
	items := inventory.Group("/items")
	items.Get("/", wrap(s.ListItems))
	items.Post("/", wrap(s.CreateItem))
	// Specific routes before generic /:id
	items.Get("/low-stock", wrap(s.LowStock))
	items.Post("/:id/adjust", wrap(s.AdjustStock))
	items.Get("/:id", wrap(s.GetItem))
	items.Put("/:id", wrap(s.UpdateItem))
	items.Delete("/:id", wrap(s.DeleteItem))

	messages := protected.Group("/messages")
	messages.Post("/", middleware.RateLimit(s.redis, 30, time.Minute, "send_message"), wrap(s.SendMessage))
	messages.Get("/inbox", wrap(s.Inbox))
	messages.Get("/outbox", wrap(s.Outbox))
	messages.Post("/:id/read", wrap(s.MarkMessageRead))
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "up",
		"time":   time.Now().UTC(),
	})
}

// ReadinessCheck reports database and Redis health. Redis is optional, so
// only the database decides readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if sqlDB, err := s.db.DB(); err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status, overall := fiber.StatusOK, "healthy"
	if dbStatus != "healthy" {
		status, overall = fiber.StatusServiceUnavailable, "unhealthy"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now().UTC(),
	})
}

// AuthRequired returns the authentication middleware. It accepts a Bearer
// session token, or a single-use WebSocket ticket on /api/ws.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var accountID uint

		if ticket := c.Query("ticket"); ticket != "" && strings.HasPrefix(c.Path(), "/api/ws") {
			id, ok := s.redeemWSTicket(c.UserContext(), ticket)
			if !ok {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
			accountID = id
		} else {
			header := c.Get(fiber.HeaderAuthorization)
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Authorization required"))
			}
			claims, err := s.tokens.Parse(strings.TrimSpace(token))
			if err != nil {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired token"))
			}
			accountID = claims.AccountID
		}

		// The role is read from the directory, not the token, so deleted
		// accounts lose access immediately.
		account, err := s.accounts.GetByID(c.UserContext(), accountID)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Account no longer exists"))
			}
			return respondError(c, err)
		}

		c.Locals("userID", account.ID)
		c.Locals("subject", policy.SubjectOf(account))
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, account.ID)
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// AdminRequired rejects non-admin callers with 403. It must follow AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := policy.RequireAdmin(subjectOf(c)); err != nil {
			return respondError(c, err)
		}
		return c.Next()
	}
}

// Start builds the app, wires realtime push and listens on the configured port.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	s.app = s.NewApp()

	if s.hub != nil {
		if err := s.hub.StartWiring(s.shutdownCtx, s.notifier); err != nil {
			middleware.Logger.Error("failed to start inbox wiring", slog.Any("error", err))
		}
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, waits for in-flight notifications and
// closes the stores.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.Any("error", err))
		}
	}
	if s.hub != nil {
		_ = s.hub.Shutdown(ctx)
	}
	if err := s.dispatcher.Wait(ctx); err != nil {
		middleware.Logger.Warn("notifications still in flight at shutdown", slog.Any("error", err))
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.Any("error", cerr))
		}
	}
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.Any("error", rerr))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
