package api

import (
	"github.com/gofiber/fiber/v2"

	"docchat/index"
)

type CheckHandler struct {
	engine *index.Engine
}

func NewCheckHandler(engine *index.Engine) *CheckHandler {
	return &CheckHandler{engine: engine}
}

// HandleHealthy reports liveness plus whether the retrieval index has
// finished loading its metadata.
func (h CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"result":      "ok",
		"index_ready": h.engine.Snapshot().Initialized,
	})
}
