package dto

// SubmitEmailRequest is the entry step of the funnel. UTM fields ride along in
// the body when the front end has captured them from the landing URL.
type SubmitEmailRequest struct {
	Email            string `json:"email" validate:"required,email,max=255"`
	FirstName        string `json:"first_name" validate:"omitempty,max=128"`
	ConsentMarketing bool   `json:"consent_marketing"`
	UtmSource        string `json:"utm_source" validate:"omitempty,max=255"`
	UtmMedium        string `json:"utm_medium" validate:"omitempty,max=255"`
	UtmCampaign      string `json:"utm_campaign" validate:"omitempty,max=255"`
	Referrer         string `json:"referrer" validate:"omitempty,max=2048"`
}

// SubmissionDTO is the visitor-facing view of their own progress record.
type SubmissionDTO struct {
	UUID             string   `json:"uuid"`
	GateUUID         string   `json:"gate_uuid"`
	Email            string   `json:"email"`
	FirstName        string   `json:"first_name,omitempty"`
	ConsentGiven     bool     `json:"consent_given"`
	Complete         bool     `json:"complete"`
	DownloadReady    bool     `json:"download_ready"`
	StepsDone        []string `json:"steps_done"`
	MissingSteps     []string `json:"missing_steps"`
	AlreadySubmitted bool     `json:"already_submitted"`
	CreatedAt        string   `json:"created_at"`
}

// StepResultDTO reports the outcome of a step verification. AlreadyTracked is
// the idempotency signal retried callbacks rely on.
type StepResultDTO struct {
	SubmissionUUID string   `json:"submission_uuid"`
	Step           string   `json:"step"`
	AlreadyTracked bool     `json:"already_tracked"`
	Complete       bool     `json:"complete"`
	MissingSteps   []string `json:"missing_steps"`
}

// SoundcloudWebhookRequest is the verification callback for repost/follow
// steps. Senders may deliver it more than once.
type SoundcloudWebhookRequest struct {
	SubmissionUUID   string `json:"submission_uuid" validate:"required,uuid4"`
	Action           string `json:"action" validate:"required,oneof=repost follow"`
	SoundcloudUserID string `json:"soundcloud_user_id" validate:"required,max=128"`
}

// SpotifyCallbackRequest captures the OAuth redirect parameters.
type SpotifyCallbackRequest struct {
	SubmissionUUID string `json:"submission_uuid" query:"state" validate:"required,uuid4"`
	Code           string `json:"code" query:"code" validate:"required"`
}
