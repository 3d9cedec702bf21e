package models

import "time"

// Analytics event types emitted by the funnel. Step completions use the step
// name as the event type so aggregates can be grouped without a join.
const (
	EventTypeView             = "view"
	EventTypeSubmit           = "submit"
	EventTypeSoundcloudRepost = "soundcloud_repost"
	EventTypeSoundcloudFollow = "soundcloud_follow"
	EventTypeInstagramClick   = "instagram_click"
	EventTypeSpotifyConnect   = "spotify_connect"
	EventTypeDownload         = "download"
)

// AnalyticsEvent is one append-only funnel event with marketing attribution.
// Rows are never updated or deleted; aggregates are derived by query.
// Pixel carries the gate's pixel config as captured at event time, opaque to
// this service.
type AnalyticsEvent struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	GateID    uint   `gorm:"not null;index:idx_analytics_events_gate_id" json:"gate_id"`
	EventType string `gorm:"size:64;not null;index:idx_analytics_events_event_type" json:"event_type"`

	Referrer    *string `gorm:"type:text" json:"referrer,omitempty"`
	UtmSource   *string `gorm:"size:255" json:"utm_source,omitempty"`
	UtmMedium   *string `gorm:"size:255" json:"utm_medium,omitempty"`
	UtmCampaign *string `gorm:"size:255" json:"utm_campaign,omitempty"`
	IPAddress   *string `gorm:"size:64" json:"ip_address,omitempty"`
	UserAgent   *string `gorm:"type:text" json:"user_agent,omitempty"`
	Pixel       *string `gorm:"type:jsonb" json:"pixel,omitempty"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_analytics_events_created_at" json:"created_at"`
}

// TableName returns the table name for AnalyticsEvent
func (AnalyticsEvent) TableName() string { return "analytics_events" }

// AnalyticsEventFilter provides filter fields for repository queries
type AnalyticsEventFilter struct {
	GateID        *uint
	EventType     *string
	UtmSource     *string
	UtmCampaign   *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
