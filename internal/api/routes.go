package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/querypilot/querypilot-backend/internal/api/handlers"
	"github.com/querypilot/querypilot-backend/internal/api/middleware"
	"github.com/querypilot/querypilot-backend/internal/auth"
	"github.com/querypilot/querypilot-backend/internal/services"
)

// SetupRoutes configures all API routes. authService may be nil, which
// disables authentication (development mode).
func SetupRoutes(app *fiber.App, svc *services.Services, authService *auth.Service) {
	connectionHandlers := handlers.NewConnectionHandlers(svc.Connections)
	chatHandlers := handlers.NewChatHandlers(svc.Chat)
	executeHandlers := handlers.NewExecuteHandlers(svc.Executor)
	historyHandlers := handlers.NewHistoryHandlers(svc.History)
	wsHandlers := handlers.NewWSHandlers(svc.Events)

	// Health and metrics stay open.
	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "querypilot-backend",
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Session endpoints exist only when an identity provider is configured.
	var authHandlers *handlers.AuthHandlers
	if authService != nil {
		authHandlers = handlers.NewAuthHandlers(authService)
		app.Post("/api/auth/login", authHandlers.Login)
		app.Post("/api/auth/refresh", authHandlers.Refresh)
	}

	var jwtService *auth.JWTService
	if authService != nil {
		jwtService = authService.JWT()
	}

	api := app.Group("/api", middleware.RequireAuth(jwtService))

	if authHandlers != nil {
		api.Get("/auth/me", authHandlers.Me)
	}

	// Connection registry
	api.Post("/connect", connectionHandlers.Connect)
	api.Post("/prepare_rag", connectionHandlers.Prepare)
	api.Get("/connections", connectionHandlers.ListConnections)
	api.Get("/connections/active", connectionHandlers.ActiveConnection)
	api.Post("/connections/:id/toggle", connectionHandlers.ToggleConnection)
	api.Post("/connections/:id/activate", connectionHandlers.ActivateConnection)
	api.Delete("/connections/:id", connectionHandlers.RemoveConnection)

	// Chat threads
	api.Post("/chat", chatHandlers.GenerateQuery)
	api.Post("/conversation", chatHandlers.AnswerQuestion)
	api.Get("/messages", chatHandlers.Messages)

	// Execution surface
	api.Post("/execute", executeHandlers.Execute)
	api.Get("/query", executeHandlers.CurrentQuery)

	// Query history
	api.Get("/history", historyHandlers.List)
	api.Post("/history/:id/select", historyHandlers.Select)
	api.Delete("/history/:id", historyHandlers.Delete)
	api.Delete("/history", historyHandlers.Clear)

	// WebSocket thread event stream
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/threads", websocket.New(wsHandlers.StreamThreads))
}
