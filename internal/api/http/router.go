package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/policy"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Tasks          *handlers.TasksHandler
	Directory      *handlers.DirectoryHandler
	Announcements  *handlers.AnnouncementsHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
	Policy         *policy.Evaluator
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)
	app.Post("/auth/external/verify", cfg.Auth.VerifyExternalAccess)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	protected.Post("/auth/logout", cfg.Auth.Logout)

	protected.Post("/tickets", cfg.Tickets.CreateTicket)
	protected.Get("/tickets", cfg.Tickets.ListTickets)
	protected.Get("/tickets/statuses", cfg.Tickets.ListStatuses)
	protected.Get("/tickets/:id", cfg.Tickets.GetTicket)
	protected.Post("/tickets/:id/comments", cfg.Tickets.AddComment)
	protected.Post("/tickets/:id/status", cfg.Tickets.ChangeStatus)

	protected.Post("/tasks", cfg.Tasks.CreateTask)
	protected.Get("/tasks", cfg.Tasks.ListTasks)
	protected.Get("/tasks/:id", cfg.Tasks.GetTask)
	protected.Post("/tasks/:id/tickets", cfg.Tasks.AttachTicket)

	protected.Get("/announcements", cfg.Announcements.List)
	protected.Get("/announcements/unread", cfg.Announcements.UnreadCount)
	protected.Post("/announcements",
		auth.RequireCapability(cfg.Policy, policy.CapBroadcast), cfg.Announcements.Create)
	protected.Put("/notifications/subscription", cfg.Announcements.Subscribe)

	protected.Get("/profile", cfg.Directory.GetProfile)
	protected.Put("/profile", cfg.Directory.UpdateProfile)
	protected.Post("/profile/password", cfg.Directory.ChangeOwnPassword)

	protected.Get("/areas", cfg.Directory.ListAreas)

	protected.Get("/reports/stale-tickets",
		auth.RequireCapability(cfg.Policy, policy.CapSeeReports), cfg.Reports.StaleTickets)

	admin := protected.Group("/admin", auth.RequireStaff())
	admin.Post("/accounts", cfg.Directory.CreateAccount)
	admin.Get("/accounts", cfg.Directory.ListAccounts)
	admin.Post("/accounts/:id/toggle", cfg.Directory.ToggleActive)
	admin.Put("/accounts/:id/area", cfg.Directory.ChangeArea)
	admin.Put("/accounts/:id/groups", cfg.Directory.ChangeGroups)
	admin.Put("/accounts/:id/role", cfg.Directory.ChangeRole)
	admin.Put("/accounts/:id/password", cfg.Directory.SetPassword)
	admin.Post("/areas", cfg.Directory.CreateArea)
	admin.Get("/activity-log", cfg.Reports.ActivityLog)
}
