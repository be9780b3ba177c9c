package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/production-booking/internal/api/http/handlers"
	"github.com/spec-kit/production-booking/internal/auth"
	"github.com/spec-kit/production-booking/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Productions    *handlers.ProductionsHandler
	Staff          *handlers.StaffHandler
	Issues         *handlers.IssuesHandler
	AuthMiddleware *auth.AuthMiddleware
	// Metrics serves the Prometheus exposition; nil disables the route.
	Metrics     fiber.Handler
	MetricsPath string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, cfg.Metrics)
	}

	officerOnly := auth.RequireCapability(domain.CapabilityBookingOfficer)
	requesters := auth.RequireCapability(domain.CapabilityProducer, domain.CapabilityBookingOfficer)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireCapability())

	productions := api.Group("/productions")
	productions.Post("/", requesters, cfg.Productions.CreateProduction)
	productions.Get("/", cfg.Productions.ListProductions)
	productions.Get("/:id", cfg.Productions.GetProduction)
	productions.Post("/:id/assignment/preview", officerOnly, cfg.Productions.PreviewAssignment)
	productions.Put("/:id/assignment", officerOnly, cfg.Productions.AssignStaff)
	productions.Post("/:id/cancel", officerOnly, cfg.Productions.CancelProduction)
	productions.Post("/:id/complete", cfg.Productions.CompleteProduction)
	productions.Post("/:id/overtime", cfg.Productions.ReportOvertime)
	productions.Get("/:id/notes", cfg.Productions.ListNotes)
	productions.Post("/:id/notes", cfg.Productions.AddNote)
	productions.Get("/:id/history", cfg.Productions.ListHistory)
	productions.Get("/:id/issues", cfg.Issues.ListIssues)
	productions.Post("/:id/issues", cfg.Issues.ReportIssue)

	staff := api.Group("/staff")
	staff.Post("/", officerOnly, cfg.Staff.RegisterStaff)
	staff.Get("/", cfg.Staff.ListStaff)
	staff.Get("/:id", cfg.Staff.GetStaff)
	staff.Get("/:id/availability", cfg.Staff.CheckAvailability)
	staff.Get("/:id/schedule", cfg.Staff.Schedule)

	issues := api.Group("/issues")
	issues.Get("/:id", cfg.Issues.GetIssue)
	issues.Patch("/:id/status", cfg.Issues.UpdateStatus)
	issues.Patch("/:id/priority", cfg.Issues.UpdatePriority)
}
