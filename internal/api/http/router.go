package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/application-tracker/internal/api/http/handlers"
	"github.com/spec-kit/application-tracker/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Applications   *handlers.ApplicationsHandler
	Documents      *handlers.DocumentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Get("/media/:ref", cfg.Documents.Fetch)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", cfg.Auth.Signup)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/login/otp", cfg.Auth.RequestLoginOTP)
	authGroup.Post("/verify", cfg.Auth.Verify)
	authGroup.Post("/resend", cfg.Auth.Resend)
	authGroup.Post("/password-reset-request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password-reset-confirm/:token", cfg.Auth.ConfirmPasswordReset)

	applications := api.Group("/applications", cfg.AuthMiddleware.Handle)
	applications.Post("/", cfg.Applications.Create)
	applications.Get("/", cfg.Applications.ListMine)
	applications.Get("/:id", cfg.Applications.Get)
	applications.Post("/:id/forward", cfg.Applications.Forward)
	applications.Patch("/:id", cfg.Applications.Update)
	applications.Post("/:id/verify", cfg.Applications.Verify)
}
