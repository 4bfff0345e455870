package domain

import (
	"github.com/golang-jwt/jwt/v5"
)

// DeviceClaims are the claims carried by the bearer token the sync agent presents
type DeviceClaims struct {
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
	jwt.RegisteredClaims
}
