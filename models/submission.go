package models

import (
	"time"

	"github.com/fangate/fangate/utils"
	"github.com/google/uuid"
)

// Submission is one visitor's progress record against one gate. There is at
// most one row per (gate, email); email is stored lower-cased.
//
// Each step carries a verified flag plus a timestamp. Flags only ever go
// false -> true and are never reversed, which is what makes repeated
// verification callbacks safe. There is no stored "state" column: completeness
// is always derived from these flags against the gate's current requirements.
type Submission struct {
	ID     uint      `gorm:"primaryKey" json:"id"`
	UUID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_submissions_uuid" json:"uuid"`
	GateID uint      `gorm:"not null;uniqueIndex:uk_submissions_gate_email;index:idx_submissions_gate_id" json:"gate_id"`

	Email     string  `gorm:"size:255;not null;uniqueIndex:uk_submissions_gate_email" json:"email"`
	FirstName *string `gorm:"size:128" json:"first_name,omitempty"`

	// Consent is a legal record captured at submission time, immutable afterward.
	ConsentMarketing *bool `gorm:"not null;default:false" json:"consent_marketing"`

	SoundcloudRepostVerified *bool      `gorm:"default:false" json:"soundcloud_repost_verified"`
	SoundcloudRepostedAt     *time.Time `json:"soundcloud_reposted_at,omitempty"`
	SoundcloudFollowVerified *bool      `gorm:"default:false" json:"soundcloud_follow_verified"`
	SoundcloudFollowedAt     *time.Time `json:"soundcloud_followed_at,omitempty"`
	InstagramClickTracked    *bool      `gorm:"default:false" json:"instagram_click_tracked"`
	InstagramClickedAt       *time.Time `json:"instagram_clicked_at,omitempty"`
	SpotifyConnected         *bool      `gorm:"default:false" json:"spotify_connected"`
	SpotifyConnectedAt       *time.Time `json:"spotify_connected_at,omitempty"`

	DownloadCompleted *bool      `gorm:"default:false" json:"download_completed"`
	DownloadedAt      *time.Time `json:"downloaded_at,omitempty"`

	IPAddress *string `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent *string `gorm:"type:text" json:"user_agent,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_submissions_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Submission
func (Submission) TableName() string { return "submissions" }

// StepDone reports whether the given step has been completed on this
// submission. Email capture is implicit: the row existing means it happened.
func (s *Submission) StepDone(step Step) bool {
	switch step {
	case StepEmail:
		return true
	case StepSoundcloudRepost:
		return utils.IsTrue(s.SoundcloudRepostVerified)
	case StepSoundcloudFollow:
		return utils.IsTrue(s.SoundcloudFollowVerified)
	case StepInstagramFollow:
		return utils.IsTrue(s.InstagramClickTracked)
	case StepSpotifyConnect:
		return utils.IsTrue(s.SpotifyConnected)
	}
	return false
}

// MissingSteps returns the gate's required steps that this submission has not
// completed yet, in funnel order. Steps the gate does not require are ignored
// regardless of their flag value.
func (s *Submission) MissingSteps(gate *Gate) []Step {
	var missing []Step
	for _, step := range gate.RequiredSteps() {
		if !s.StepDone(step) {
			missing = append(missing, step)
		}
	}
	return missing
}

// IsCompleteFor reports download eligibility: every step the gate currently
// requires is done. Evaluated against the gate's current configuration, not a
// snapshot taken at submission time.
func (s *Submission) IsCompleteFor(gate *Gate) bool {
	return len(s.MissingSteps(gate)) == 0
}

// SubmissionFilter provides filter fields for repository queries
type SubmissionFilter struct {
	ID                *uint
	UUID              *string
	GateID            *uint
	Email             *string
	DownloadCompleted *bool
	CreatedAfter      *time.Time
	CreatedBefore     *time.Time
}
