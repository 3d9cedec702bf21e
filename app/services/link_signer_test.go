package services

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningKey = "test-signing-key-at-least-32-chars-long"

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	token := parsed.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func TestLinkSignerIssueAndVerify(t *testing.T) {
	signer, err := NewLinkSigner("https://dl.example.com", testSigningKey, "fangate", time.Hour)
	require.NoError(t, err)

	link, expiresAt, err := signer.IssueURL("files/drop.wav", "9c7a1f0e-0000-0000-0000-000000000001")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(link, "https://dl.example.com/download?token="))
	assert.WithinDuration(t, time.Now().UTC().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := signer.Verify(tokenFromLink(t, link))
	require.NoError(t, err)
	assert.Equal(t, "files/drop.wav", claims.FileRef)
	assert.Equal(t, "9c7a1f0e-0000-0000-0000-000000000001", claims.SubmissionUUID)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt, time.Second)
}

func TestLinkSignerTokenIDsAreUnique(t *testing.T) {
	signer, err := NewLinkSigner("https://dl.example.com", testSigningKey, "fangate", time.Hour)
	require.NoError(t, err)

	first, _, err := signer.IssueURL("files/drop.wav", "sub-1")
	require.NoError(t, err)
	second, _, err := signer.IssueURL("files/drop.wav", "sub-1")
	require.NoError(t, err)

	firstClaims, err := signer.Verify(tokenFromLink(t, first))
	require.NoError(t, err)
	secondClaims, err := signer.Verify(tokenFromLink(t, second))
	require.NoError(t, err)

	assert.NotEqual(t, firstClaims.TokenID, secondClaims.TokenID)
}

func TestLinkSignerRejectsExpiredToken(t *testing.T) {
	signer, err := NewLinkSigner("https://dl.example.com", testSigningKey, "fangate", time.Millisecond)
	require.NoError(t, err)

	link, _, err := signer.IssueURL("files/drop.wav", "sub-1")
	require.NoError(t, err)

	time.Sleep(1100 * time.Millisecond) // exp has second resolution

	_, err = signer.Verify(tokenFromLink(t, link))
	assert.ErrorIs(t, err, ErrLinkTokenExpired)
}

func TestLinkSignerRejectsTamperedToken(t *testing.T) {
	signer, err := NewLinkSigner("https://dl.example.com", testSigningKey, "fangate", time.Hour)
	require.NoError(t, err)

	link, _, err := signer.IssueURL("files/drop.wav", "sub-1")
	require.NoError(t, err)
	token := tokenFromLink(t, link)

	// Flip a character in the signature segment
	tampered := token[:len(token)-2] + "xx"
	_, err = signer.Verify(tampered)
	assert.ErrorIs(t, err, ErrLinkTokenInvalid)
}

func TestLinkSignerRejectsForeignSecret(t *testing.T) {
	signer, err := NewLinkSigner("https://dl.example.com", testSigningKey, "fangate", time.Hour)
	require.NoError(t, err)
	other, err := NewLinkSigner("https://dl.example.com", "another-signing-key-also-32-chars-x", "fangate", time.Hour)
	require.NoError(t, err)

	link, _, err := other.IssueURL("files/drop.wav", "sub-1")
	require.NoError(t, err)

	_, err = signer.Verify(tokenFromLink(t, link))
	assert.ErrorIs(t, err, ErrLinkTokenInvalid)
}

func TestLinkSignerRequiresSecret(t *testing.T) {
	_, err := NewLinkSigner("https://dl.example.com", "", "fangate", time.Hour)
	assert.Error(t, err)
}
