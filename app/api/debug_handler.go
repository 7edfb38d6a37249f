package api

import (
	"docchat/index"
	"docchat/store"

	"github.com/gofiber/fiber/v2"
)

type DebugHandler struct {
	engine *index.Engine
	store  store.Storer
}

func NewDebugHandler(e *index.Engine, s store.Storer) *DebugHandler {
	return &DebugHandler{
		engine: e,
		store:  s,
	}
}

// HandleIndex exposes a snapshot of the retrieval index, plus the database
// document count so drift between the two stores is visible.
func (h *DebugHandler) HandleIndex(c *fiber.Ctx) error {
	docs, err := h.store.ListDocuments(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"index":              h.engine.Snapshot(),
		"database_documents": len(docs),
	})
}
