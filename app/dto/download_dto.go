package dto

// DownloadLinkDTO is a minted, time-limited download link. The URL embeds a
// signed token; nothing else about the submission can be derived from it.
type DownloadLinkDTO struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expires_at"`
	MediaType string `json:"media_type,omitempty"`
}
