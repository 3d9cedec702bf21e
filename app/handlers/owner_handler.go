package handlers

import (
	"fmt"
	"log"

	"github.com/fangate/fangate/app/dto"
	businessflow "github.com/fangate/fangate/business_flow"
	"github.com/gofiber/fiber/v3"
)

// OwnerHandlerInterface defines the contract for authenticated owner endpoints
type OwnerHandlerInterface interface {
	Stats(c fiber.Ctx) error
	ExportLeads(c fiber.Ctx) error
}

type OwnerHandler struct {
	flow businessflow.OwnerGateFlow
}

func NewOwnerHandler(flow businessflow.OwnerGateFlow) OwnerHandlerInterface {
	return &OwnerHandler{flow: flow}
}

// ownerID reads the authenticated owner set by the auth middleware.
func ownerID(c fiber.Ctx) (uint, bool) {
	id, ok := c.Locals("owner_id").(uint)
	return id, ok
}

// Stats returns the funnel aggregates for one of the owner's gates
// @Summary Gate Stats
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Param uuid path string true "Gate UUID"
// @Success 200 {object} dto.APIResponse{data=dto.GateStatsDTO} "Gate stats"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Gate owned by someone else"
// @Failure 404 {object} dto.APIResponse "Gate not found"
// @Router /api/v1/gates/{uuid}/stats [get]
func (h *OwnerHandler) Stats(c fiber.Ctx) error {
	owner, ok := ownerID(c)
	if !ok {
		return unauthorizedResponse(c)
	}
	gateUUID := c.Params("uuid")

	stats, err := h.flow.Stats(createRequestContext(c, "/api/v1/gates/"+gateUUID+"/stats"), gateUUID, owner)
	if err != nil {
		if resp := ownerGateErrorResponse(c, err); resp != nil {
			return resp()
		}
		log.Println("Gate stats aggregation failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to aggregate gate stats",
			Error:   dto.ErrorDetail{Code: "STATS_FAILED"},
		})
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Gate stats",
		Data:    stats,
	})
}

// ExportLeads streams the gate's collected leads as an Excel workbook
// @Summary Export Gate Leads
// @Tags Owner
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param uuid path string true "Gate UUID"
// @Success 200 {file} binary "Leads workbook"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Gate owned by someone else"
// @Failure 404 {object} dto.APIResponse "Gate not found"
// @Router /api/v1/gates/{uuid}/leads/export [get]
func (h *OwnerHandler) ExportLeads(c fiber.Ctx) error {
	owner, ok := ownerID(c)
	if !ok {
		return unauthorizedResponse(c)
	}
	gateUUID := c.Params("uuid")

	filename, content, err := h.flow.ExportLeads(createRequestContext(c, "/api/v1/gates/"+gateUUID+"/leads/export"), gateUUID, owner)
	if err != nil {
		if resp := ownerGateErrorResponse(c, err); resp != nil {
			return resp()
		}
		log.Println("Leads export failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to export leads",
			Error:   dto.ErrorDetail{Code: "EXPORT_FAILED"},
		})
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Status(fiber.StatusOK).Send(content)
}

func unauthorizedResponse(c fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.APIResponse{
		Success: false,
		Message: "Authentication required",
		Error:   dto.ErrorDetail{Code: "UNAUTHORIZED"},
	})
}

// ownerGateErrorResponse maps the shared gate-ownership failures; returns nil
// when the error is not one of them.
func ownerGateErrorResponse(c fiber.Ctx, err error) func() error {
	switch {
	case businessflow.IsGateNotFound(err):
		return func() error {
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false,
				Message: "Gate not found",
				Error:   dto.ErrorDetail{Code: "GATE_NOT_FOUND"},
			})
		}
	case businessflow.IsGateAccessDenied(err):
		return func() error {
			return c.Status(fiber.StatusForbidden).JSON(dto.APIResponse{
				Success: false,
				Message: "You do not own this gate",
				Error:   dto.ErrorDetail{Code: "ACCESS_DENIED"},
			})
		}
	}
	return nil
}
