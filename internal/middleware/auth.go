package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/anicore/backend/internal/auth"
	"github.com/anicore/backend/internal/models"
)

const (
	userIDKey contextKey = "userID"
	roleKey   contextKey = "role"
)

// RoleSource looks up a user's current role in the store. The session's
// cached role claim is advisory only; admin gates re-verify against this.
type RoleSource interface {
	// Method GetRoleByID retrieves the current role of a user from the store.
	//
	// "userID" parameter identifies the user.
	//
	// If the user does not exist or the lookup fails, the error is returned
	// together with an empty role.
	GetRoleByID(ctx context.Context, userID int) (models.Role, error)
}

// RequireAuth validates the session cookie (or Bearer header) and injects
// the user id and cached role into the request context. Unauthenticated
// requests get a JSON 401 or, for form clients, a redirect to the login
// page with a human-readable reason.
func RequireAuth(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token == "" {
				denyUnauthenticated(w, r)
				return
			}

			userID, role, err := sessions.Validate(token)
			if err != nil {
				denyUnauthenticated(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			ctx = context.WithValue(ctx, roleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth injects the user id and cached role into the request context
// when a valid session is present, and passes the request through untouched
// otherwise. Public pages use it to personalize responses for logged-in
// visitors.
func OptionalAuth(sessions *auth.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := sessionToken(r)
			if token != "" {
				if userID, role, err := sessions.Validate(token); err == nil {
					ctx := context.WithValue(r.Context(), userIDKey, userID)
					ctx = context.WithValue(ctx, roleKey, role)
					r = r.WithContext(ctx)
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates admin-only routes. It implies RequireAuth and then
// re-reads the role from the store rather than trusting the cached session
// claim, since roles can change out-of-band.
func RequireAdmin(roles RoleSource, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				denyUnauthenticated(w, r)
				return
			}

			role, err := roles.GetRoleByID(r.Context(), userID)
			if err != nil {
				logger.Warn("failed to verify admin role",
					zap.Int("user_id", userID),
					zap.Error(err),
				)
				denyForbidden(w, r)
				return
			}

			if role != models.RoleAdmin {
				denyForbidden(w, r)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID retrieves the authenticated user id from context.
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// GetRole retrieves the session's cached role from context. Display only;
// authoritative checks go through RequireAdmin.
func GetRole(ctx context.Context) (models.Role, bool) {
	role, ok := ctx.Value(roleKey).(models.Role)
	return role, ok
}

// WantsJSON reports whether the client negotiated a JSON response: an AJAX
// marker header, a JSON Accept, or a JSON request body.
func WantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("X-Requested-With"), "xmlhttprequest") {
		return true
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.Contains(r.Header.Get("Content-Type"), "application/json")
}

func sessionToken(r *http.Request) string {
	// Try Authorization header first
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	// If not in header, try cookie
	cookie, err := r.Cookie(auth.SessionCookie)
	if err == nil {
		return cookie.Value
	}
	return ""
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"please log in to access this page"}`))
		return
	}
	redirectWithMessage(w, r, "/login", "Please log in to access this page")
}

func denyForbidden(w http.ResponseWriter, r *http.Request) {
	if WantsJSON(r) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"success":false,"message":"you do not have permission to access this page"}`))
		return
	}
	redirectWithMessage(w, r, "/", "You do not have permission to access this page")
}

func redirectWithMessage(w http.ResponseWriter, r *http.Request, target, message string) {
	q := url.Values{}
	q.Set("message", message)
	q.Set("error", "1")
	http.Redirect(w, r, target+"?"+q.Encode(), http.StatusSeeOther)
}
