package models

import (
	"time"

	"github.com/fangate/fangate/utils"
	"github.com/google/uuid"
)

// Step identifies a single engagement requirement a gate can enforce.
type Step string

const (
	StepEmail            Step = "email"
	StepSoundcloudRepost Step = "soundcloud_repost"
	StepSoundcloudFollow Step = "soundcloud_follow"
	StepInstagramFollow  Step = "instagram_follow"
	StepSpotifyConnect   Step = "spotify_connect"
)

// Gate represents a published download gate: a public slug that withholds a
// file until a visitor completes the required engagement steps.
// Slug is unique and immutable after creation. PixelConfig is an opaque JSON
// blob forwarded to analytics events, never returned to visitors.
type Gate struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UUID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_gates_uuid" json:"uuid"`
	Slug    string    `gorm:"size:128;not null;uniqueIndex:uk_gates_slug" json:"slug"`
	OwnerID uint      `gorm:"not null;index:idx_gates_owner_id" json:"owner_id"`

	Title      string `gorm:"size:255;not null" json:"title"`
	ArtistName string `gorm:"size:255;not null" json:"artist_name"`

	RequireEmail            *bool `gorm:"default:true" json:"require_email"`
	RequireSoundcloudRepost *bool `gorm:"default:false" json:"require_soundcloud_repost"`
	RequireSoundcloudFollow *bool `gorm:"default:false" json:"require_soundcloud_follow"`
	RequireInstagramFollow  *bool `gorm:"default:false" json:"require_instagram_follow"`
	RequireSpotifyConnect   *bool `gorm:"default:false" json:"require_spotify_connect"`

	FileRef       string `gorm:"type:text;not null" json:"file_ref"`
	FileSizeBytes int64  `gorm:"not null;default:0" json:"file_size_bytes"`
	MediaType     string `gorm:"size:128" json:"media_type"`

	SoundcloudTrackURL  *string `gorm:"type:text" json:"soundcloud_track_url,omitempty"`
	SoundcloudArtistURN *string `gorm:"size:128" json:"soundcloud_artist_urn,omitempty"`
	InstagramProfileURL *string `gorm:"type:text" json:"instagram_profile_url,omitempty"`

	PixelConfig *string `gorm:"type:jsonb" json:"pixel_config,omitempty"`

	IsActive      *bool      `gorm:"default:true;index:idx_gates_is_active" json:"is_active"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	MaxDownloads  *int       `json:"max_downloads,omitempty"`
	DownloadCount int        `gorm:"not null;default:0" json:"download_count"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_gates_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`
}

// TableName returns the table name for Gate
func (Gate) TableName() string { return "gates" }

// IsLive reports whether the gate accepts visitors at the given instant:
// active, not expired, and under its download cap.
func (g *Gate) IsLive(now time.Time) bool {
	if !utils.IsTrue(g.IsActive) {
		return false
	}
	if g.ExpiresAt != nil && !now.Before(*g.ExpiresAt) {
		return false
	}
	if g.MaxDownloads != nil && g.DownloadCount >= *g.MaxDownloads {
		return false
	}
	return true
}

// RequiredSteps returns the steps this gate currently enforces, in funnel order.
// Email capture is the entry step and is always listed when required.
func (g *Gate) RequiredSteps() []Step {
	var steps []Step
	if utils.IsTrue(g.RequireEmail) {
		steps = append(steps, StepEmail)
	}
	if utils.IsTrue(g.RequireSoundcloudRepost) {
		steps = append(steps, StepSoundcloudRepost)
	}
	if utils.IsTrue(g.RequireSoundcloudFollow) {
		steps = append(steps, StepSoundcloudFollow)
	}
	if utils.IsTrue(g.RequireInstagramFollow) {
		steps = append(steps, StepInstagramFollow)
	}
	if utils.IsTrue(g.RequireSpotifyConnect) {
		steps = append(steps, StepSpotifyConnect)
	}
	return steps
}

// Requires reports whether the gate currently enforces the given step.
func (g *Gate) Requires(step Step) bool {
	switch step {
	case StepEmail:
		return utils.IsTrue(g.RequireEmail)
	case StepSoundcloudRepost:
		return utils.IsTrue(g.RequireSoundcloudRepost)
	case StepSoundcloudFollow:
		return utils.IsTrue(g.RequireSoundcloudFollow)
	case StepInstagramFollow:
		return utils.IsTrue(g.RequireInstagramFollow)
	case StepSpotifyConnect:
		return utils.IsTrue(g.RequireSpotifyConnect)
	}
	return false
}

// GateFilter provides filter fields for repository queries
type GateFilter struct {
	ID            *uint
	UUID          *string
	Slug          *string
	OwnerID       *uint
	IsActive      *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
