package handlers

import (
	"log"

	"github.com/fangate/fangate/app/dto"
	businessflow "github.com/fangate/fangate/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// SubmissionHandlerInterface defines the contract for the email-capture step
type SubmissionHandlerInterface interface {
	SubmitEmail(c fiber.Ctx) error
}

type SubmissionHandler struct {
	flow      businessflow.SubmissionFlow
	validator *validator.Validate
}

func NewSubmissionHandler(flow businessflow.SubmissionFlow) SubmissionHandlerInterface {
	return &SubmissionHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// SubmitEmail handles the entry step of the funnel
// @Summary Submit Email
// @Description Create (or return) the visitor's submission for a gate
// @Tags Submissions
// @Accept json
// @Produce json
// @Param slug path string true "Gate slug"
// @Param request body dto.SubmitEmailRequest true "Visitor email and consent"
// @Success 200 {object} dto.APIResponse{data=dto.SubmissionDTO} "Submission created or returned"
// @Failure 400 {object} dto.APIResponse "Validation error or gate inactive"
// @Failure 404 {object} dto.APIResponse "Gate not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/g/{slug}/submit [post]
func (h *SubmissionHandler) SubmitEmail(c fiber.Ctx) error {
	slug := c.Params("slug")

	var req dto.SubmitEmailRequest
	if err := c.Bind().JSON(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false,
			Message: "Invalid request body",
			Error:   dto.ErrorDetail{Code: "INVALID_REQUEST", Details: err.Error()},
		})
	}

	if err := h.validator.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false,
			Message: "Validation failed",
			Error:   dto.ErrorDetail{Code: "VALIDATION_ERROR", Details: validationMessages(err)},
		})
	}

	// UTM parameters may arrive on the query string instead of the body.
	if req.UtmSource == "" {
		req.UtmSource = c.Query("utm_source")
	}
	if req.UtmMedium == "" {
		req.UtmMedium = c.Query("utm_medium")
	}
	if req.UtmCampaign == "" {
		req.UtmCampaign = c.Query("utm_campaign")
	}
	if req.Referrer == "" {
		req.Referrer = c.Get("Referer")
	}

	submission, err := h.flow.SubmitEmail(createRequestContext(c, "/api/v1/g/"+slug+"/submit"), slug, &req, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsGateNotFound(err):
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false,
				Message: "Gate not found",
				Error:   dto.ErrorDetail{Code: "GATE_NOT_FOUND"},
			})
		case businessflow.IsGateInactive(err):
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false,
				Message: "This gate is no longer accepting submissions",
				Error:   dto.ErrorDetail{Code: "GATE_INACTIVE"},
			})
		case businessflow.IsInvalidEmail(err):
			return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
				Success: false,
				Message: "Email address is invalid",
				Error:   dto.ErrorDetail{Code: "INVALID_EMAIL"},
			})
		}
		log.Println("Submit email failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to create submission",
			Error:   dto.ErrorDetail{Code: "SUBMISSION_FAILED"},
		})
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Submission accepted",
		Data:    submission,
	})
}
