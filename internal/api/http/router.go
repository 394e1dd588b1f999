package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/api/http/handlers"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/auth"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/domain"
	"github.com/amowogbaje/HelpBoardFullstackAmowogbaje-sub000/internal/hub"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Agents         *handlers.AgentsHandler
	Conversations  *handlers.ConversationsHandler
	Training       *handlers.TrainingHandler
	Gateway        *hub.Gateway
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Agents.Login)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Agents.Logout)

	agents := app.Group("/agents", cfg.AuthMiddleware.Handle)
	agents.Get("/me", cfg.Agents.Me)
	agents.Patch("/me", cfg.Agents.UpdateMe)
	agents.Get("/", cfg.Agents.List)
	agents.Post("/", auth.RequireRole(domain.AgentRoleAdmin), cfg.Agents.Create)

	conversations := app.Group("/conversations", cfg.AuthMiddleware.Handle)
	conversations.Get("/", cfg.Conversations.List)
	conversations.Get("/:id", cfg.Conversations.Get)
	conversations.Post("/:id/assign", cfg.Conversations.Assign)
	conversations.Post("/:id/close", cfg.Conversations.Close)
	conversations.Get("/:id/messages", cfg.Conversations.ListMessages)
	conversations.Post("/:id/messages", cfg.Conversations.AddMessage)

	training := app.Group("/training", cfg.AuthMiddleware.Handle)
	training.Get("/", cfg.Training.List)
	training.Post("/", auth.RequireRole(domain.AgentRoleAdmin, domain.AgentRoleSupervisor), cfg.Training.Create)
	training.Delete("/:id", auth.RequireRole(domain.AgentRoleAdmin, domain.AgentRoleSupervisor), cfg.Training.Delete)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals(hub.LocalClientIP, c.IP())
			c.Locals(hub.LocalUserAgent, string(c.Request().Header.UserAgent()))
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(cfg.Gateway.Handle))
}
