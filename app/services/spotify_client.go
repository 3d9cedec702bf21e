package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SpotifyClient completes the account-connect handshake server-side: exchange
// the authorization code, then resolve the connected account.
type SpotifyClient interface {
	ExchangeCode(ctx context.Context, code string) (*SpotifyAccount, error)
}

// SpotifyAccount is the minimal profile of a connected Spotify account.
type SpotifyAccount struct {
	UserID      string
	DisplayName string
	AccessToken string
}

type SpotifyClientImpl struct {
	TokenURL     string
	ProfileURL   string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	HTTPClient   *http.Client
}

func NewSpotifyClient(tokenURL, profileURL, clientID, clientSecret, redirectURI string, timeout time.Duration) SpotifyClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SpotifyClientImpl{
		TokenURL:     tokenURL,
		ProfileURL:   strings.TrimRight(profileURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURI:  redirectURI,
		HTTPClient:   &http.Client{Timeout: timeout},
	}
}

type spotifyTokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type spotifyProfileResp struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

func (c *SpotifyClientImpl) ExchangeCode(ctx context.Context, code string) (*SpotifyAccount, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.RedirectURI)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	basic := base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify token exchange returned status %d", resp.StatusCode)
	}

	var token spotifyTokenResp
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, err
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("spotify token exchange returned empty access token")
	}

	profile, err := c.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	return &SpotifyAccount{
		UserID:      profile.ID,
		DisplayName: profile.DisplayName,
		AccessToken: token.AccessToken,
	}, nil
}

func (c *SpotifyClientImpl) fetchProfile(ctx context.Context, accessToken string) (*spotifyProfileResp, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ProfileURL+"/me", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify profile fetch returned status %d", resp.StatusCode)
	}

	var profile spotifyProfileResp
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// MockSpotifyClient is a configurable stub for tests and local development.
type MockSpotifyClient struct {
	Account *SpotifyAccount
	Err     error
}

func NewMockSpotifyClient() *MockSpotifyClient {
	return &MockSpotifyClient{Account: &SpotifyAccount{UserID: "mock-user", DisplayName: "Mock User"}}
}

func (m *MockSpotifyClient) ExchangeCode(ctx context.Context, code string) (*SpotifyAccount, error) {
	return m.Account, m.Err
}
