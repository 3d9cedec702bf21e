package dto

// PublicGateDTO is the anonymous-visitor projection of a gate. It must never
// carry the numeric ID, owner ID, file reference, or pixel secrets.
type PublicGateDTO struct {
	UUID                string   `json:"uuid"`
	Slug                string   `json:"slug"`
	Title               string   `json:"title"`
	ArtistName          string   `json:"artist_name"`
	MediaType           string   `json:"media_type,omitempty"`
	FileSizeBytes       int64    `json:"file_size_bytes"`
	RequiredSteps       []string `json:"required_steps"`
	Live                bool     `json:"live"`
	ExpiresAt           string   `json:"expires_at,omitempty"`
	SoundcloudTrackURL  string   `json:"soundcloud_track_url,omitempty"`
	InstagramProfileURL string   `json:"instagram_profile_url,omitempty"`
}

// GateStatsDTO is the owner-facing aggregate over a gate's analytics events.
// All counters are derived by query, never stored.
type GateStatsDTO struct {
	GateUUID        string             `json:"gate_uuid"`
	Views           int64              `json:"views"`
	Submissions     int64              `json:"submissions"`
	Downloads       int64              `json:"downloads"`
	ConversionRate  float64            `json:"conversion_rate"`
	StepCompletions map[string]int64   `json:"step_completions"`
	StepRates       map[string]float64 `json:"step_rates"`
}
