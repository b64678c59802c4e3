package main

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fablecraft/storyagent/logging"
	"github.com/fablecraft/storyagent/orchestrator"
)

// ChatRequest is the inbound payload of the /chat endpoint. A be_function is
// present when the request originates from a clicked suggestion.
type ChatRequest struct {
	UserID         string         `json:"user_id"`
	ConversationID string         `json:"conversation_id"`
	Message        string         `json:"message" validate:"required"`
	Type           string         `json:"type"`
	ProjectID      string         `json:"project_id" validate:"required,uuid"`
	CharacterID    string         `json:"character_id" validate:"omitempty,uuid"`
	ActID          string         `json:"act_id" validate:"omitempty,uuid"`
	BeFunction     string         `json:"be_function"`
	FunctionParams map[string]any `json:"function_params"`
}

type chatHandler struct {
	orch     *orchestrator.Orchestrator
	validate *validator.Validate
	logger   logging.Logger
}

func newServer(orch *orchestrator.Orchestrator, logger logging.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "storyagent",
		DisableStartupMessage: true,
	})

	h := &chatHandler{
		orch:     orch,
		validate: validator.New(),
		logger:   logger,
	}

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Post("/chat", h.chat)
	return app
}

func (h *chatHandler) chat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	turn, err := h.buildTurnRequest(req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	resp, err := h.orch.ProcessTurn(c.UserContext(), turn)
	if err != nil {
		h.logger.Error("turn processing failed", "user", turn.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "agent processing error"})
	}
	return c.JSON(resp)
}

func (h *chatHandler) buildTurnRequest(req ChatRequest) (orchestrator.TurnRequest, error) {
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return orchestrator.TurnRequest{}, err
	}

	userID := req.UserID
	if userID == "" {
		userID = "test_user"
	}

	turn := orchestrator.TurnRequest{
		UserID:         userID,
		ConversationID: req.ConversationID,
		ProjectID:      projectID,
		TopicHint:      req.Type,
		Message:        req.Message,
		BeFunction:     req.BeFunction,
		FunctionParams: req.FunctionParams,
	}

	if req.CharacterID != "" {
		id, err := uuid.Parse(req.CharacterID)
		if err != nil {
			return orchestrator.TurnRequest{}, err
		}
		turn.CharacterID = &id
	}
	if req.ActID != "" {
		id, err := uuid.Parse(req.ActID)
		if err != nil {
			return orchestrator.TurnRequest{}, err
		}
		turn.ActID = &id
	}
	return turn, nil
}
