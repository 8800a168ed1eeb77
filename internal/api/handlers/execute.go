package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/querypilot/querypilot-backend/internal/services"
)

// ExecuteHandlers handles query execution endpoints
type ExecuteHandlers struct {
	executor *services.ExecutorService
}

// NewExecuteHandlers creates new execute handlers
func NewExecuteHandlers(executor *services.ExecutorService) *ExecuteHandlers {
	return &ExecuteHandlers{executor: executor}
}

// Execute handles POST /api/execute. collection_name fills the last slot
// of the document-store collection resolution chain; clients re-submit
// with it after a missing-collection rejection.
func (h *ExecuteHandlers) Execute(c *fiber.Ctx) error {
	var req struct {
		CollectionName string `json:"collection_name,omitempty"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}
	}

	result, err := h.executor.Execute(c.Context(), req.CollectionName)
	if err != nil {
		return executeError(c, err)
	}
	return c.JSON(result)
}

// CurrentQuery handles GET /api/query: the query currently published to
// the execution surface.
func (h *ExecuteHandlers) CurrentQuery(c *fiber.Ctx) error {
	current := h.executor.Current()
	if current == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No query generated yet",
		})
	}
	return c.JSON(current)
}

func executeError(c *fiber.Ctx, err error) error {
	var execErr *services.ExecutionError
	switch {
	case errors.Is(err, services.ErrNotReady), errors.Is(err, services.ErrNoQuery):
		return c.Status(fiber.StatusPreconditionFailed).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, services.ErrMissingCollection):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":              err.Error(),
			"missing_collection": true,
		})
	case errors.As(err, &execErr):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": execErr.Message,
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
