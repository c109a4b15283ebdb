// Package auth implements the session token codec. A session is an HS256
// JWT carried in an HTTP-only cookie; its claims hold the user id and the
// role the user had at login. The role claim is advisory only; admin-gated
// operations re-verify the role against the store.
package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/anicore/backend/internal/models"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "session"

// SessionManager issues and validates session tokens.
type SessionManager struct {
	secret string
	ttl    time.Duration
	secure bool
}

// NewSessionManager creates a new session manager.
func NewSessionManager(secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		secret: secret,
		ttl:    ttl,
		secure: secure,
	}
}

// Issue creates a session token for the given user.
func (m *SessionManager) Issue(userID int, role models.Role) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(m.ttl).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signed, nil
}

// Validate parses a session token and returns the user id and cached role.
func (m *SessionManager) Validate(tokenString string) (int, models.Role, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil {
		return 0, "", fmt.Errorf("failed to parse session token: %w", err)
	}

	if !token.Valid {
		return 0, "", fmt.Errorf("session token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", fmt.Errorf("invalid session claims")
	}

	// JWT claims decode numbers as float64
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, "", fmt.Errorf("user_id not found in session")
	}

	roleStr, ok := claims["role"].(string)
	if !ok {
		return 0, "", fmt.Errorf("role not found in session")
	}

	return int(userIDFloat), models.Role(roleStr), nil
}

// SetCookie attaches the session token to the response.
func (m *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie from the client.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
