// Package server exposes the application's operations over HTTP. Handlers
// are thin adapters: they parse the request, call the same services the
// console dispatcher uses, and translate service errors to status codes.
package server

import (
	"context"
	"strings"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"

	"gather/internal/config"
	"gather/internal/models"
	"gather/internal/observability"
	"gather/internal/service"
	"gather/internal/session"
)

// Server holds the web tier's dependencies and provides handlers.
type Server struct {
	config   *config.Config
	accounts *service.AccountService
	posts    *service.PostService
	comments *service.CommentService
	cascade  *service.Cascade
	sessions *session.Manager
	redis    *redis.Client
	app      *fiber.App
	prom     *fiberprometheus.FiberPrometheus
}

// NewServer creates a server over already-initialized services. The redis
// client may be nil; sessions then live in process memory only.
func NewServer(cfg *config.Config, accounts *service.AccountService, posts *service.PostService,
	comments *service.CommentService, cascade *service.Cascade,
	sessions *session.Manager, redisClient *redis.Client) *Server {
	return &Server{
		config:   cfg,
		accounts: accounts,
		posts:    posts,
		comments: comments,
		cascade:  cascade,
		sessions: sessions,
		redis:    redisClient,
		prom:     observability.InitMetrics("gather-api"),
	}
}

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(observability.ContextMiddleware())

	if s.prom != nil {
		app.Use(s.prom.Middleware)
	}

	app.Use(helmet.New())
	app.Use(observability.RequestLogger())

	// CORS runs before the limiter so browser clients still receive CORS
	// headers on rate-limited responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	if s.prom != nil {
		s.prom.RegisterAt(app, "/metrics")
	}

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/signup", s.Signup)
	auth.Post("/login", s.Login)
	auth.Post("/logout", s.AuthRequired(), s.Logout)

	protected := api.Group("", s.AuthRequired())

	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Delete("/me", s.DeleteMyAccount)
	users.Get("/me/feed", s.GetMyFeed)
	users.Get("/me/history", s.GetMyLoginHistory)
	users.Get("/me/followers", s.GetMyFollowers)
	users.Get("/me/following", s.GetMyFollowing)
	// Specific /:username/:resource routes before the generic /:username route.
	users.Post("/:username/follow", s.FollowUser)
	users.Delete("/:username/follow", s.UnfollowUser)
	users.Get("/:username/posts", s.GetUserPosts)
	users.Get("/:username", s.GetUserProfile)

	posts := protected.Group("/posts")
	posts.Post("/", s.CreatePost)
	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", s.CreateComment)
	posts.Get("/:id", s.GetPost)
	posts.Delete("/:id", s.DeletePost)

	comments := protected.Group("/comments")
	comments.Get("/:id/replies", s.GetComments)
	comments.Post("/:id/replies", s.CreateComment)

	admin := protected.Group("/admin", s.AdminRequired())
	admin.Get("/users", s.ListUsers)
	admin.Post("/users", s.CreateAdmin)
	admin.Post("/users/:username/ban", s.BanUser)
	admin.Delete("/users/:username/ban", s.UnbanUser)
	admin.Post("/users/:username/promote", s.PromoteUser)
	admin.Post("/users/:username/demote", s.DemoteUser)
	admin.Delete("/users/:username", s.DeleteUser)
}

// LivenessCheck handles liveness probe requests.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional, so
// its state is reported but never fails readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	redisStatus := "unavailable"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		} else {
			redisStatus = "healthy"
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "healthy",
		"checks": fiber.Map{
			"storage": s.config.StorageBackend,
			"redis":   redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns middleware that resolves the bearer token to a
// username and re-checks the ban flag, so a ban cuts off an existing
// session on its next request.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization header required"))
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid authorization header format"))
		}

		username, err := s.sessions.Resolve(c.UserContext(), parts[1])
		if err != nil {
			return models.RespondWithError(c, models.StatusForError(err), err)
		}

		banned, err := s.accounts.IsBanned(c.UserContext(), username)
		if err != nil {
			// The account may have been deleted since the token was issued.
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Session is no longer valid"))
		}
		if banned {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Account is banned"))
		}

		c.Locals("username", username)
		c.SetUserContext(observability.WithUsername(c.UserContext(), username))
		return c.Next()
	}
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so the username is available.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		username := s.currentUsername(c)

		admin, err := s.accounts.IsAdmin(c.UserContext(), username)
		if err != nil {
			return models.RespondWithError(c, models.StatusForError(err), err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewPermissionError("Admin access required"))
		}
		return c.Next()
	}
}

// currentUsername reads the identity established by AuthRequired.
func (s *Server) currentUsername(c *fiber.Ctx) string {
	if username, ok := c.Locals("username").(string); ok {
		return username
	}
	return ""
}

// Start starts the server and blocks until it stops.
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Gather API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			observability.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	observability.Logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			observability.Logger.Error("error shutting down HTTP server", "error", err)
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			observability.Logger.Error("error closing redis", "error", err)
		}
	}
	observability.Logger.Info("server shutdown complete")
	return nil
}
