package controller

import (
	"github.com/gofiber/fiber/v2"

	"rag-orchestrator-be/internal/dto"
	"rag-orchestrator-be/internal/pkg/serverutils"
	"rag-orchestrator-be/internal/service"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Chat(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IOrchestratorService
}

func NewChatController(svc service.IOrchestratorService) IChatController {
	return &chatController{service: svc}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("", c.Chat)
}

func (c *chatController) Chat(ctx *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Chat(ctx.Context(), &req)
	if err != nil {
		return err
	}

	// Correlation fields for the request-log middleware.
	ctx.Locals("session_id", res.SessionId)
	ctx.Locals("chunks_returned", res.ContextUsed)

	return ctx.JSON(res)
}
