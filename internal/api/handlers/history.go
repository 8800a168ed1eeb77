package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/querypilot/querypilot-backend/internal/services"
)

// HistoryHandlers handles query history endpoints
type HistoryHandlers struct {
	history *services.HistoryService
}

// NewHistoryHandlers creates new history handlers
func NewHistoryHandlers(history *services.HistoryService) *HistoryHandlers {
	return &HistoryHandlers{history: history}
}

// List handles GET /api/history
func (h *HistoryHandlers) List(c *fiber.Ctx) error {
	entries := h.history.List()
	return c.JSON(fiber.Map{
		"queries": entries,
		"count":   len(entries),
	})
}

// Select handles POST /api/history/:id/select: republishes the entry's
// query to the execution surface without regenerating it.
func (h *HistoryHandlers) Select(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid history id",
		})
	}

	entry, err := h.history.Select(id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(entry)
}

// Delete handles DELETE /api/history/:id
func (h *HistoryHandlers) Delete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid history id",
		})
	}

	if err := h.history.Delete(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Clear handles DELETE /api/history
func (h *HistoryHandlers) Clear(c *fiber.Ctx) error {
	h.history.Clear()
	return c.SendStatus(fiber.StatusNoContent)
}
