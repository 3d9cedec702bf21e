package handlers

import (
	"log"

	"github.com/fangate/fangate/app/dto"
	businessflow "github.com/fangate/fangate/business_flow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// VerificationHandlerInterface defines the contract for step verification endpoints
type VerificationHandlerInterface interface {
	SoundcloudWebhook(c fiber.Ctx) error
	InstagramClick(c fiber.Ctx) error
	SpotifyCallback(c fiber.Ctx) error
}

type VerificationHandler struct {
	flow      businessflow.VerificationFlow
	validator *validator.Validate
}

func NewVerificationHandler(flow businessflow.VerificationFlow) VerificationHandlerInterface {
	return &VerificationHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

// SoundcloudWebhook handles repost/follow verification callbacks.
// Malformed or unknown-submission callbacks are acknowledged with 200 anyway:
// erroring makes the provider retry forever and the flag semantics underneath
// are idempotent regardless.
// @Summary SoundCloud Verification Webhook
// @Tags Verification
// @Accept json
// @Produce json
// @Param request body dto.SoundcloudWebhookRequest true "Verification callback"
// @Success 200 {object} dto.APIResponse "Acknowledged"
// @Router /api/v1/webhooks/soundcloud [post]
func (h *VerificationHandler) SoundcloudWebhook(c fiber.Ctx) error {
	ack := func(message string, data any) error {
		return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
			Success: true,
			Message: message,
			Data:    data,
		})
	}

	var req dto.SoundcloudWebhookRequest
	if err := c.Bind().JSON(&req); err != nil {
		return ack("Acknowledged", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return ack("Acknowledged", nil)
	}

	result, err := h.flow.VerifySoundcloud(createRequestContext(c, "/api/v1/webhooks/soundcloud"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsSubmissionNotFound(err) || businessflow.IsGateNotFound(err) || businessflow.IsActionNotPerformed(err) {
			return ack("Acknowledged", nil)
		}
		// Transient verification failures are also acknowledged; the gate UI
		// polls again.
		log.Println("SoundCloud verification failed", err)
		return ack("Acknowledged", nil)
	}

	return ack("Step recorded", result)
}

// InstagramClick tracks the click-through and redirects to the profile
// @Summary Instagram Click Tracker
// @Tags Verification
// @Produce json
// @Param submission path string true "Submission UUID"
// @Success 302 {string} string "Redirect to profile"
// @Failure 404 {object} dto.APIResponse "Submission not found"
// @Router /api/v1/c/{submission}/instagram [get]
func (h *VerificationHandler) InstagramClick(c fiber.Ctx) error {
	submissionUUID := c.Params("submission")

	redirect, _, err := h.flow.TrackInstagramClick(createRequestContext(c, "/api/v1/c/"+submissionUUID+"/instagram"), submissionUUID, clientMetadata(c), attributionFromQuery(c))
	if err != nil {
		if businessflow.IsSubmissionNotFound(err) || businessflow.IsGateNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
				Success: false,
				Message: "Submission not found",
				Error:   dto.ErrorDetail{Code: "SUBMISSION_NOT_FOUND"},
			})
		}
		log.Println("Instagram click tracking failed", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.APIResponse{
			Success: false,
			Message: "Failed to track click",
			Error:   dto.ErrorDetail{Code: "CLICK_TRACK_FAILED"},
		})
	}

	c.Redirect().Status(fiber.StatusFound).To(redirect)
	return nil
}

// SpotifyCallback completes the account-connect handshake
// @Summary Spotify Connect Callback
// @Tags Verification
// @Produce json
// @Param state query string true "Submission UUID"
// @Param code query string true "Authorization code"
// @Success 200 {object} dto.APIResponse{data=dto.StepResultDTO} "Account connected"
// @Failure 400 {object} dto.APIResponse "Missing parameters"
// @Router /api/v1/connect/spotify/callback [get]
func (h *VerificationHandler) SpotifyCallback(c fiber.Ctx) error {
	submissionUUID := c.Query("state")
	code := c.Query("code")
	if submissionUUID == "" || code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.APIResponse{
			Success: false,
			Message: "state and code query parameters are required",
			Error:   dto.ErrorDetail{Code: "INVALID_CALLBACK"},
		})
	}

	result, err := h.flow.ConnectSpotify(createRequestContext(c, "/api/v1/connect/spotify/callback"), submissionUUID, code, clientMetadata(c))
	if err != nil {
		// The browser lands here mid-funnel; acknowledge rather than dead-end
		// the visitor, and let the gate UI re-poll submission state.
		if businessflow.IsSubmissionNotFound(err) || businessflow.IsGateNotFound(err) {
			return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
				Success: true,
				Message: "Acknowledged",
			})
		}
		log.Println("Spotify connect failed", err)
		return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
			Success: true,
			Message: "Acknowledged",
		})
	}

	return c.Status(fiber.StatusOK).JSON(dto.APIResponse{
		Success: true,
		Message: "Account connected",
		Data:    result,
	})
}
