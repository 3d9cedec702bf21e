package handlers

import (
	"log"

	"github.com/fangate/fangate/app/dto"
	businessflow "github.com/fangate/fangate/business_flow"
	"github.com/gofiber/fiber/v3"
)

// GateHandlerInterface defines the contract for the public gate view
type GateHandlerInterface interface {
	View(c fiber.Ctx) error
}

type GateHandler struct {
	flow businessflow.GateViewFlow
}

func NewGateHandler(flow businessflow.GateViewFlow) GateHandlerInterface {
	return &GateHandler{flow: flow}
}

// View resolves a gate by public slug
// @Summary View Gate
// @Description Public gate lookup by slug; records a view event
// @Tags Gates
// @Produce json
// @Param slug path string true "Gate slug"
// @Success 200 {object} dto.APIResponse{data=dto.PublicGateDTO} "Gate found"
// @Failure 404 {object} dto.APIResponse "Gate not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/g/{slug} [get]
func (h *GateHandler) View(c fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false,
			Message: "Gate slug is required",
			Error:   dto.ErrorDetail{Code: "INVALID_SLUG"},
		})
	}

	gate, err := h.flow.View(createRequestContext(c, "/api/v1/g/"+slug), slug, clientMetadata(c), attributionFromQuery(c))
	if err != nil {
		if businessflow.IsGateNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false,
				Message: "Gate not found",
				Error:   dto.ErrorDetail{Code: "GATE_NOT_FOUND"},
			})
		}
		log.Println("Gate view failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to load gate",
			Error:   dto.ErrorDetail{Code: "GATE_VIEW_FAILED"},
		})
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Gate found",
		Data:    gate,
	})
}
