// Package session issues and verifies the resume tokens handed back on
// hello_device so a device can reconnect without replaying its full
// identity handshake. Built on golang-jwt/v5 with HS512 signing.
package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims binds a resume token to one device/session pair.
type Claims struct {
	DeviceID  string `json:"deviceId"`
	SessionID string `json:"sessionId"`
	jwt.RegisteredClaims
}

const tokenLifetime = 30 * 24 * time.Hour

var secret []byte

// Setup records the signing secret. Call once at startup.
func Setup(key string) {
	secret = []byte(key)
}

// IssueToken signs a resume token for (deviceID, sessionID).
func IssueToken(deviceID, sessionID string) (string, error) {
	now := time.Now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		DeviceID:  deviceID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	})
	return token.SignedString(secret)
}

// VerifyToken parses and validates a resume token, returning its claims.
func VerifyToken(tokenString string) (Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return Claims{}, errors.New("invalid resume token")
	}
	return *claims, nil
}
