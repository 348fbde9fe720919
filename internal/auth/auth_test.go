package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"rehearse-backend/internal/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	token, claims, err := issuer.Issue(7)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.SessionID)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), parsed.UserID)
	assert.Equal(t, claims.SessionID, parsed.SessionID)

	_, err = NewIssuer("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _, err := NewIssuer("secret", -time.Minute).Issue(7)
	require.NoError(t, err)
	_, err = issuer.Parse(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: 7, SessionID: "x"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = issuer.Parse(none)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	revokedToken, revokedClaims, err := issuer.Issue(7)
	require.NoError(t, err)
	otherToken, _, err := issuer.Issue(7)
	require.NoError(t, err)

	issuer.Revoke(revokedClaims)

	_, err = issuer.Parse(revokedToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	parsed, err := issuer.Parse(otherToken)
	require.NoError(t, err)
	assert.Equal(t, uint(7), parsed.UserID)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDatabase("sqlite", filepath.Join(t.TempDir(), "auth.db"))
	require.NoError(t, err)

	service := NewService(db, NewIssuer("secret", time.Hour))

	session, err := service.Register(ctx, "asha", " Asha@Example.com ", "pw123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "asha", session.Username)

	_, err = service.Register(ctx, "asha2", "asha@example.com", "pw")
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = service.Register(ctx, "", "b@example.com", "pw")
	assert.ErrorIs(t, err, ErrMissingFields)

	login, err := service.Login(ctx, "ASHA@example.com", "pw123")
	require.NoError(t, err)
	assert.Equal(t, session.UserID, login.UserID)
	assert.NotEqual(t, session.SessionID, login.SessionID)

	_, err = service.Login(ctx, "asha@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = service.Login(ctx, "nobody@example.com", "pw123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, err := database.GetUserByEmail(ctx, db, "asha@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "pw123", user.PasswordHash)
}

func TestMiddleware(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, _, err := issuer.Issue(3)
	require.NoError(t, err)

	handler := Middleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		assert.True(t, ok)
		assert.Equal(t, uint(3), claims.UserID)
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"missing or invalid token"}`, rec.Body.String())
	})

	t.Run("invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer garbage")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
