package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mansoorceksport/repsync/internal/domain"
)

// TokenService issues the device tokens the sync agent presents to the ingest API
type TokenService struct {
	secret string
	issuer string
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: secret,
		issuer: "repsync",
	}
}

// IssueDeviceToken signs an HS256 token for userID. ttl of 0 means no expiry.
func (s *TokenService) IssueDeviceToken(userID, deviceID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id is required")
	}
	now := time.Now()
	claims := domain.DeviceClaims{
		UserID:   userID,
		DeviceID: deviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			Issuer:   s.issuer,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign device token: %w", err)
	}
	return signed, nil
}
