// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/fangate/fangate/app/dto"
	"github.com/fangate/fangate/models"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for event attribution
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// Attribution holds marketing-source metadata captured on analytics events.
// Every field is optional; absence never blocks event recording.
type Attribution struct {
	Referrer    string `json:"referrer,omitempty"`
	UtmSource   string `json:"utm_source,omitempty"`
	UtmMedium   string `json:"utm_medium,omitempty"`
	UtmCampaign string `json:"utm_campaign,omitempty"`
}

// ToPublicGateDTO projects a gate for anonymous visitors. This is the public
// projection required before any gate leaves the service: numeric ID, owner
// linkage, file reference, and pixel config are stripped.
func ToPublicGateDTO(gate *models.Gate) *dto.PublicGateDTO {
	out := &dto.PublicGateDTO{
		UUID:          gate.UUID.String(),
		Slug:          gate.Slug,
		Title:         gate.Title,
		ArtistName:    gate.ArtistName,
		MediaType:     gate.MediaType,
		FileSizeBytes: gate.FileSizeBytes,
		RequiredSteps: stepNames(gate.RequiredSteps()),
		Live:          gate.IsLive(time.Now().UTC()),
	}
	if gate.ExpiresAt != nil {
		out.ExpiresAt = gate.ExpiresAt.Format(time.RFC3339)
	}
	if gate.SoundcloudTrackURL != nil {
		out.SoundcloudTrackURL = *gate.SoundcloudTrackURL
	}
	if gate.InstagramProfileURL != nil {
		out.InstagramProfileURL = *gate.InstagramProfileURL
	}
	return out
}

// ToSubmissionDTO projects a submission for the visitor who owns it. Internal
// numeric IDs stay inside; the gate is referenced by UUID only.
func ToSubmissionDTO(submission *models.Submission, gate *models.Gate) *dto.SubmissionDTO {
	out := &dto.SubmissionDTO{
		UUID:          submission.UUID.String(),
		GateUUID:      gate.UUID.String(),
		Email:         submission.Email,
		Complete:      submission.IsCompleteFor(gate),
		MissingSteps:  stepNames(submission.MissingSteps(gate)),
		CreatedAt:     submission.CreatedAt.Format(time.RFC3339),
		StepsDone:     doneStepNames(submission, gate),
		ConsentGiven:  submission.ConsentMarketing != nil && *submission.ConsentMarketing,
		DownloadReady: submission.IsCompleteFor(gate) && gate.IsLive(time.Now().UTC()),
	}
	if submission.FirstName != nil {
		out.FirstName = *submission.FirstName
	}
	return out
}

func stepNames(steps []models.Step) []string {
	names := make([]string, 0, len(steps))
	for _, step := range steps {
		names = append(names, string(step))
	}
	return names
}

func doneStepNames(submission *models.Submission, gate *models.Gate) []string {
	var done []string
	for _, step := range gate.RequiredSteps() {
		if submission.StepDone(step) {
			done = append(done, string(step))
		}
	}
	return done
}
