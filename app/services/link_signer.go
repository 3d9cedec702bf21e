// Package services provides external service integrations and technical concerns for the download gate
package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/fangate/fangate/utils"
	"github.com/golang-jwt/jwt/v5"
)

// Link signing errors
var (
	ErrLinkTokenExpired = errors.New("download link has expired")
	ErrLinkTokenInvalid = errors.New("download link is invalid")
)

// DownloadClaims are the claims embedded in a signed download link. The token
// is single-purpose: it resolves to one file and reveals nothing else about
// the submission.
type DownloadClaims struct {
	FileRef        string
	SubmissionUUID string
	TokenID        string
	ExpiresAt      time.Time
}

// LinkSigner mints signed, expiring download URLs for the storage gateway.
type LinkSigner interface {
	IssueURL(fileRef, submissionUUID string) (link string, expiresAt time.Time, err error)
	Verify(token string) (*DownloadClaims, error)
}

type LinkSignerImpl struct {
	baseURL   string
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

// NewLinkSigner creates a link signer. baseURL is the storage gateway endpoint
// that serves the file when presented with a valid token; ttl is the fixed
// policy window, independent of any gate expiry.
func NewLinkSigner(baseURL, secretKey, issuer string, ttl time.Duration) (LinkSigner, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required for link signing")
	}
	if ttl <= 0 {
		ttl = utils.DownloadLinkTTL
	}
	return &LinkSignerImpl{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
	}, nil
}

func (s *LinkSignerImpl) IssueURL(fileRef, submissionUUID string) (string, time.Time, error) {
	now := utils.UTCNow()
	expiresAt := now.Add(s.ttl)

	tokenID, err := generateTokenID()
	if err != nil {
		return "", time.Time{}, err
	}

	claims := jwt.MapClaims{
		"file_ref": fileRef,
		"sub":      submissionUUID,
		"jti":      tokenID,
		"iat":      now.Unix(),
		"exp":      expiresAt.Unix(),
		"iss":      s.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign download link: %w", err)
	}

	link := fmt.Sprintf("%s/download?token=%s", s.baseURL, url.QueryEscape(signed))
	return link, expiresAt, nil
}

func (s *LinkSignerImpl) Verify(tokenString string) (*DownloadClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrLinkTokenExpired
		}
		return nil, ErrLinkTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrLinkTokenInvalid
	}

	fileRef, _ := claims["file_ref"].(string)
	sub, _ := claims["sub"].(string)
	jti, _ := claims["jti"].(string)
	if fileRef == "" || sub == "" {
		return nil, ErrLinkTokenInvalid
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrLinkTokenInvalid
	}

	return &DownloadClaims{
		FileRef:        fileRef,
		SubmissionUUID: sub,
		TokenID:        jti,
		ExpiresAt:      exp.Time,
	}, nil
}

// generateTokenID generates a random hex token identifier
func generateTokenID() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate token ID: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}
