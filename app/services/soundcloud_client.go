package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SoundcloudClient answers whether a SoundCloud user performed a repost or
// follow. The gate UI polls, so callers must tolerate repeated invocations.
type SoundcloudClient interface {
	HasReposted(ctx context.Context, trackURN, soundcloudUserID string) (bool, error)
	IsFollowing(ctx context.Context, artistURN, soundcloudUserID string) (bool, error)
}

type SoundcloudClientImpl struct {
	BaseURL    string
	ClientID   string
	HTTPClient *http.Client
}

func NewSoundcloudClient(baseURL, clientID string, timeout time.Duration) SoundcloudClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SoundcloudClientImpl{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ClientID:   clientID,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type soundcloudRelationResp struct {
	Collection []struct {
		User struct {
			URN string `json:"urn"`
			ID  int64  `json:"id"`
		} `json:"user"`
	} `json:"collection"`
}

func (c *SoundcloudClientImpl) HasReposted(ctx context.Context, trackURN, soundcloudUserID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/tracks/%s/reposters", c.BaseURL, url.PathEscape(trackURN))
	return c.userInCollection(ctx, endpoint, soundcloudUserID)
}

func (c *SoundcloudClientImpl) IsFollowing(ctx context.Context, artistURN, soundcloudUserID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/users/%s/followers", c.BaseURL, url.PathEscape(artistURN))
	return c.userInCollection(ctx, endpoint, soundcloudUserID)
}

func (c *SoundcloudClientImpl) userInCollection(ctx context.Context, endpoint, soundcloudUserID string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	q := req.URL.Query()
	q.Set("client_id", c.ClientID)
	q.Set("limit", "200")
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("soundcloud returned status %d", resp.StatusCode)
	}

	var out soundcloudRelationResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, err
	}
	for _, entry := range out.Collection {
		if entry.User.URN == soundcloudUserID || fmt.Sprintf("%d", entry.User.ID) == soundcloudUserID {
			return true, nil
		}
	}
	return false, nil
}

// MockSoundcloudClient is a configurable stub for tests and local development.
type MockSoundcloudClient struct {
	Reposted  bool
	Following bool
	Err       error
}

func NewMockSoundcloudClient() *MockSoundcloudClient {
	return &MockSoundcloudClient{Reposted: true, Following: true}
}

func (m *MockSoundcloudClient) HasReposted(ctx context.Context, trackURN, soundcloudUserID string) (bool, error) {
	return m.Reposted, m.Err
}

func (m *MockSoundcloudClient) IsFollowing(ctx context.Context, artistURN, soundcloudUserID string) (bool, error) {
	return m.Following, m.Err
}
