package api

import (
	"errors"
	"strings"
	"time"

	"docchat/app/agent"
	"docchat/app/command"
	"docchat/index"
	"docchat/store"
	"docchat/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const searchTopK = 3

type MessageHandler struct {
	store       store.Storer
	engine      *index.Engine
	agent       *agent.Agent
	automations *command.AutomationService
	dataSources *command.DataSourceService
}

func NewMessageHandler(s store.Storer, e *index.Engine, a *agent.Agent,
	autos *command.AutomationService, sources *command.DataSourceService) *MessageHandler {
	return &MessageHandler{
		store:       s,
		engine:      e,
		agent:       a,
		automations: autos,
		dataSources: sources,
	}
}

func (h *MessageHandler) HandleList(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}

	msgs, err := h.store.ListMessages(c.Context(), conv.ID)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []types.Message{}
	}
	return c.JSON(msgs)
}

// HandlePost stores the user turn, produces the assistant turn and returns
// both. A message starting a command goes to the matching dispatcher;
// everything else is answered from the document index.
func (h *MessageHandler) HandlePost(c *fiber.Ctx) error {
	conv, err := h.conversation(c)
	if err != nil {
		return err
	}

	var params types.MessageParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errs := params.Validate(); len(errs) > 0 {
		return NewValidationError(errs)
	}

	history, err := h.store.ListMessages(c.Context(), conv.ID)
	if err != nil {
		return err
	}

	userMsg := &types.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           types.RoleUser,
		Content:        params.Content,
		CreatedAt:      time.Now(),
	}
	if err := h.store.AppendMessage(c.Context(), userMsg); err != nil {
		return err
	}

	answer := h.answer(c, params.Content, history)

	assistantMsg := &types.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           types.RoleAssistant,
		Content:        answer,
		CreatedAt:      time.Now(),
	}
	if err := h.store.AppendMessage(c.Context(), assistantMsg); err != nil {
		return err
	}

	if err := h.store.TouchConversation(c.Context(), conv.ID); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON([]types.Message{*userMsg, *assistantMsg})
}

func (h *MessageHandler) answer(c *fiber.Ctx, content string, history []types.Message) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, command.AutomationTrigger):
		return h.automations.Handle(c.Context(), content)
	case strings.Contains(lower, command.DataSourceTrigger):
		return h.dataSources.Handle(c.Context(), content)
	}

	results := h.engine.Search(content, searchTopK)

	reply, err := h.agent.Answer(content, results, history)
	if err != nil {
		// Retrieval still worked; degrade to quoting the passages.
		return agent.ExtractiveAnswer(results)
	}
	return reply
}

func (h *MessageHandler) conversation(c *fiber.Ctx) (*types.Conversation, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, ErrInvalidID()
	}

	conv, err := h.store.GetConversationByID(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound(id, "conversation")
	}
	if err != nil {
		return nil, err
	}
	return conv, nil
}
