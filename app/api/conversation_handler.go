package api

import (
	"errors"
	"time"

	"docchat/store"
	"docchat/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ConversationHandler struct {
	store store.Storer
}

func NewConversationHandler(s store.Storer) *ConversationHandler {
	return &ConversationHandler{
		store: s,
	}
}

func (h *ConversationHandler) HandleCreate(c *fiber.Ctx) error {
	var params types.ConversationParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errs := params.Validate(); len(errs) > 0 {
		return NewValidationError(errs)
	}

	title := params.Title
	if title == "" {
		title = "New conversation"
	}

	now := time.Now()
	conv := &types.Conversation{
		ID:        uuid.New(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.store.CreateConversation(c.Context(), conv); err != nil {
		return err
	}

	greeting := &types.Message{
		ID:             uuid.New(),
		ConversationID: conv.ID,
		Role:           types.RoleSystem,
		Content:        "I am an assistant that can help you with documents and trigger automations. Upload documents or start chatting.",
		CreatedAt:      now,
	}
	if err := h.store.AppendMessage(c.Context(), greeting); err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(conv)
}

func (h *ConversationHandler) HandleList(c *fiber.Ctx) error {
	convs, err := h.store.ListConversations(c.Context())
	if err != nil {
		return err
	}
	if convs == nil {
		convs = []types.Conversation{}
	}
	return c.JSON(convs)
}

func (h *ConversationHandler) HandleGet(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	conv, err := h.store.GetConversationByID(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(id, "conversation")
	}
	if err != nil {
		return err
	}

	msgs, err := h.store.ListMessages(c.Context(), id)
	if err != nil {
		return err
	}
	if msgs == nil {
		msgs = []types.Message{}
	}

	return c.JSON(fiber.Map{
		"conversation": conv,
		"messages":     msgs,
	})
}

func (h *ConversationHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	if _, err := h.store.GetConversationByID(c.Context(), id); errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(id, "conversation")
	} else if err != nil {
		return err
	}

	if err := h.store.DeleteConversation(c.Context(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"result": "deleted"})
}
