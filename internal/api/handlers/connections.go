package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/querypilot/querypilot-backend/internal/models"
	"github.com/querypilot/querypilot-backend/internal/services"
)

// ConnectionHandlers handles connection registry endpoints
type ConnectionHandlers struct {
	connections *services.ConnectionService
}

// NewConnectionHandlers creates new connection handlers
func NewConnectionHandlers(connections *services.ConnectionService) *ConnectionHandlers {
	return &ConnectionHandlers{connections: connections}
}

// Connect handles POST /api/connect
func (h *ConnectionHandlers) Connect(c *fiber.Ctx) error {
	var req models.ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	conn, err := h.connections.Connect(c.Context(), req)
	if err != nil {
		return connectionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(conn)
}

// Prepare handles POST /api/prepare_rag
func (h *ConnectionHandlers) Prepare(c *fiber.Ctx) error {
	var req struct {
		ConnectionID string `json:"connection_id"`
		DatabaseName string `json:"database_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	id, err := uuid.Parse(req.ConnectionID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid connection id",
		})
	}

	conn, err := h.connections.Prepare(c.Context(), id, req.DatabaseName)
	if err != nil {
		return connectionError(c, err)
	}

	return c.JSON(conn)
}

// ListConnections handles GET /api/connections
func (h *ConnectionHandlers) ListConnections(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"connections": h.connections.List(),
	})
}

// ActiveConnection handles GET /api/connections/active
func (h *ConnectionHandlers) ActiveConnection(c *fiber.Ctx) error {
	conn := h.connections.Active()
	if conn == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No active connection",
		})
	}
	return c.JSON(conn)
}

// ToggleConnection handles POST /api/connections/:id/toggle
func (h *ConnectionHandlers) ToggleConnection(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid connection id",
		})
	}

	conn, err := h.connections.Toggle(id)
	if err != nil {
		return connectionError(c, err)
	}
	return c.JSON(conn)
}

// ActivateConnection handles POST /api/connections/:id/activate
func (h *ConnectionHandlers) ActivateConnection(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid connection id",
		})
	}

	conn, err := h.connections.SetActive(id)
	if err != nil {
		return connectionError(c, err)
	}
	return c.JSON(conn)
}

// RemoveConnection handles DELETE /api/connections/:id
func (h *ConnectionHandlers) RemoveConnection(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid connection id",
		})
	}

	if err := h.connections.Remove(id); err != nil {
		return connectionError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// connectionError maps registry error types onto status codes.
func connectionError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Error(),
		})
	}
	if errors.Is(err, services.ErrConnectionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
		"error": err.Error(),
	})
}
