package handlers

import (
	"log"

	"github.com/fangate/fangate/app/dto"
	businessflow "github.com/fangate/fangate/business_flow"
	"github.com/gofiber/fiber/v3"
)

// DownloadHandlerInterface defines the contract for download link issuance
type DownloadHandlerInterface interface {
	Issue(c fiber.Ctx) error
}

type DownloadHandler struct {
	flow businessflow.DownloadFlow
}

func NewDownloadHandler(flow businessflow.DownloadFlow) DownloadHandlerInterface {
	return &DownloadHandler{flow: flow}
}

// Issue mints a signed, expiring download link for a complete submission
// @Summary Issue Download Link
// @Tags Download
// @Produce json
// @Param submission path string true "Submission UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DownloadLinkDTO} "Download link issued"
// @Failure 404 {object} dto.APIResponse "Submission not found"
// @Failure 409 {object} dto.APIResponse "Required steps missing"
// @Failure 410 {object} dto.APIResponse "Download cap reached"
// @Router /api/v1/s/{submission}/download [post]
func (h *DownloadHandler) Issue(c fiber.Ctx) error {
	submissionUUID := c.Params("submission")

	link, err := h.flow.Issue(createRequestContext(c, "/api/v1/s/"+submissionUUID+"/download"), submissionUUID, clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsSubmissionNotFound(err):
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false,
				Message: "Submission not found",
				Error:   dto.ErrorDetail{Code: "SUBMISSION_NOT_FOUND"},
			})
		case businessflow.IsGateNotFound(err):
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false,
				Message: "Gate not found",
				Error:   dto.ErrorDetail{Code: "GATE_NOT_FOUND"},
			})
		case businessflow.IsIncompleteSubmission(err):
			return c.Status(fiber.StatusConflict).JSON(dto.APIResponse{
				Success: false,
				Message: "Required steps are not complete",
				Error: dto.ErrorDetail{
					Code:    "STEPS_INCOMPLETE",
					Details: fiber.Map{"missing_steps": businessflow.MissingStepsFrom(err)},
				},
			})
		case businessflow.IsDownloadCapReached(err):
			return c.Status(fiber.StatusGone).JSON(dto.APIResponse{
				Success: false,
				Message: "Download limit for this gate has been reached",
				Error:   dto.ErrorDetail{Code: "DOWNLOAD_CAP_REACHED"},
			})
		}
		log.Println("Download link issuance failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to issue download link",
			Error:   dto.ErrorDetail{Code: "DOWNLOAD_ISSUE_FAILED"},
		})
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Download link issued",
		Data:    link,
	})
}
