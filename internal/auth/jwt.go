// Package auth provides JWT issuing and Echo middleware for request authentication.
package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const userContextKey = "user"

// GenerateToken signs a JWT for the given user ID, valid for expiresIn.
// It returns the signed token and its expiry time.
func GenerateToken(userID, secret string, expiresIn time.Duration) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("user id is required")
	}
	if strings.TrimSpace(secret) == "" {
		return "", time.Time{}, errors.New("jwt secret is required")
	}
	if expiresIn <= 0 {
		return "", time.Time{}, errors.New("jwt expiry must be positive")
	}

	expiresAt := time.Now().Add(expiresIn)
	claims := jwt.MapClaims{
		"sub":     userID,
		"user_id": userID,
		"iat":     time.Now().Unix(),
		"exp":     expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// JWTMiddleware returns Echo middleware that validates Bearer tokens signed
// with secret. Requests for which skip returns true bypass validation.
func JWTMiddleware(secret string, skip func(c echo.Context) bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		Skipper:       skip,
		SigningKey:    []byte(secret),
		SigningMethod: jwt.SigningMethodHS256.Name,
		ContextKey:    userContextKey,
	})
}

// UserIDFromContext extracts the authenticated user ID from the request context.
func UserIDFromContext(c echo.Context) (string, error) {
	token, ok := c.Get(userContextKey).(*jwt.Token)
	if !ok || token == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	if userID, _ := claims["user_id"].(string); strings.TrimSpace(userID) != "" {
		return userID, nil
	}
	if sub, _ := claims["sub"].(string); strings.TrimSpace(sub) != "" {
		return sub, nil
	}
	return "", echo.NewHTTPError(http.StatusUnauthorized, "token missing user id")
}
