package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anicore/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionManager_IssueAndValidate(t *testing.T) {
	m := NewSessionManager("b8a3c2267dc85f855dea9b46b452bf20", time.Hour, false)

	t.Run("round trip keeps user id and role", func(t *testing.T) {
		token, err := m.Issue(42, models.RoleUser)
		require.NoError(t, err)
		assert.NotEmpty(t, token)

		userID, role, err := m.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, 42, userID)
		assert.Equal(t, models.RoleUser, role)
	})

	t.Run("admin role survives the round trip", func(t *testing.T) {
		token, err := m.Issue(1, models.RoleAdmin)
		require.NoError(t, err)

		_, role, err := m.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, role)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		other := NewSessionManager("different-secret", time.Hour, false)
		token, err := other.Issue(42, models.RoleUser)
		require.NoError(t, err)

		_, _, err = m.Validate(token)
		assert.Error(t, err)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		short := NewSessionManager("b8a3c2267dc85f855dea9b46b452bf20", -time.Minute, false)
		token, err := short.Issue(42, models.RoleUser)
		require.NoError(t, err)

		_, _, err = m.Validate(token)
		assert.Error(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, _, err := m.Validate("not.a.token")
		assert.Error(t, err)
	})
}

func TestSessionManager_Cookies(t *testing.T) {
	m := NewSessionManager("secret", time.Hour, true)

	t.Run("set", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.SetCookie(rec, "token-value")

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		cookie := cookies[0]
		assert.Equal(t, SessionCookie, cookie.Name)
		assert.Equal(t, "token-value", cookie.Value)
		assert.True(t, cookie.HttpOnly)
		assert.True(t, cookie.Secure)
		assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		assert.Equal(t, int(time.Hour.Seconds()), cookie.MaxAge)
	})

	t.Run("clear", func(t *testing.T) {
		rec := httptest.NewRecorder()
		m.ClearCookie(rec)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
		assert.Negative(t, cookies[0].MaxAge)
	})
}
