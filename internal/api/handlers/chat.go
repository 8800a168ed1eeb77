package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/querypilot/querypilot-backend/internal/models"
	"github.com/querypilot/querypilot-backend/internal/services"
)

// ChatHandlers handles chat submission and thread endpoints
type ChatHandlers struct {
	chat *services.ChatService
}

// NewChatHandlers creates new chat handlers
func NewChatHandlers(chat *services.ChatService) *ChatHandlers {
	return &ChatHandlers{chat: chat}
}

// GenerateQuery handles POST /api/chat: a structured-mode submission.
func (h *ChatHandlers) GenerateQuery(c *fiber.Ctx) error {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	reply, err := h.chat.Submit(c.Context(), models.ModeSQL, req.Prompt)
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(reply)
}

// AnswerQuestion handles POST /api/conversation: a conversational-mode
// submission.
func (h *ChatHandlers) AnswerQuestion(c *fiber.Ctx) error {
	var req struct {
		Question string `json:"question"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	reply, err := h.chat.Submit(c.Context(), models.ModeChat, req.Question)
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(reply)
}

// Messages handles GET /api/messages?mode=sql|chat
func (h *ChatHandlers) Messages(c *fiber.Ctx) error {
	mode := models.ChatMode(c.Query("mode", string(models.ModeSQL)))

	messages, err := h.chat.Messages(mode)
	if err != nil {
		return chatError(c, err)
	}
	return c.JSON(fiber.Map{
		"mode":     mode,
		"messages": messages,
	})
}

func chatError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrEmptyInput), errors.Is(err, services.ErrInvalidMode):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, services.ErrBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
