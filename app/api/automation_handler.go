package api

import (
	"errors"

	"docchat/app/command"
	"docchat/store"
	"docchat/types"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AutomationHandler struct {
	store       store.Storer
	automations *command.AutomationService
}

func NewAutomationHandler(s store.Storer, autos *command.AutomationService) *AutomationHandler {
	return &AutomationHandler{
		store:       s,
		automations: autos,
	}
}

func (h *AutomationHandler) HandleList(c *fiber.Ctx) error {
	autos, err := h.store.ListAutomations(c.Context())
	if err != nil {
		return err
	}
	if autos == nil {
		autos = []types.Automation{}
	}
	return c.JSON(autos)
}

// HandleTrigger executes an automation directly, outside the chat flow. The
// request body supplies the parameter values.
func (h *AutomationHandler) HandleTrigger(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	auto, err := h.store.GetAutomationByID(c.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound(id, "automation")
	}
	if err != nil {
		return err
	}

	params := map[string]string{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&params); err != nil {
			return ErrBadRequest()
		}
	}

	result := h.automations.Execute(c.Context(), auto.Endpoint, params)
	return c.JSON(fiber.Map{
		"automation": auto.Name,
		"result":     result,
	})
}

type DataSourceHandler struct {
	store       store.Storer
	dataSources *command.DataSourceService
}

func NewDataSourceHandler(s store.Storer, sources *command.DataSourceService) *DataSourceHandler {
	return &DataSourceHandler{
		store:       s,
		dataSources: sources,
	}
}

func (h *DataSourceHandler) HandleList(c *fiber.Ctx) error {
	sources, err := h.store.ListDataSources(c.Context())
	if err != nil {
		return err
	}
	if sources == nil {
		sources = []types.DataSource{}
	}
	return c.JSON(sources)
}

// HandleQuery runs a data source query directly, outside the chat flow.
func (h *DataSourceHandler) HandleQuery(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidID()
	}

	sources, err := h.store.ListDataSources(c.Context())
	if err != nil {
		return err
	}

	var source *types.DataSource
	for i := range sources {
		if sources[i].ID == id {
			source = &sources[i]
			break
		}
	}
	if source == nil {
		return ErrNotFound(id, "data source")
	}

	params := map[string]string{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&params); err != nil {
			return ErrBadRequest()
		}
	}

	result := h.dataSources.Query(c.Context(), source.Endpoint, params)
	return c.JSON(fiber.Map{
		"data_source": source.Name,
		"result":      result,
	})
}
