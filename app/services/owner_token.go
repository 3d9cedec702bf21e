package services

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Owner token errors
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// OwnerClaims identifies the authenticated gate owner. Tokens are issued by
// the external auth service; this core only validates them.
type OwnerClaims struct {
	OwnerID uint
	TokenID string
}

// OwnerTokenService validates owner JWTs for the stats/export endpoints.
type OwnerTokenService interface {
	Validate(token string) (*OwnerClaims, error)
}

type OwnerTokenServiceImpl struct {
	secretKey []byte
	issuer    string
	audience  string
}

func NewOwnerTokenService(secretKey, issuer, audience string) (OwnerTokenService, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("secret key is required for owner token validation")
	}
	return &OwnerTokenServiceImpl{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		audience:  audience,
	}, nil
}

func (s *OwnerTokenServiceImpl) Validate(tokenString string) (*OwnerClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	ownerID, ok := claims["owner_id"].(float64)
	if !ok || ownerID <= 0 {
		return nil, ErrTokenInvalid
	}
	jti, _ := claims["jti"].(string)

	return &OwnerClaims{
		OwnerID: uint(ownerID),
		TokenID: jti,
	}, nil
}
