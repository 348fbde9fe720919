package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"rehearse-backend/internal/auth"
	"rehearse-backend/pkg/api"
)

func (s *BackendService) setSessionCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *BackendService) writeSession(w http.ResponseWriter, session auth.Session) {
	s.setSessionCookie(w, session.Token, session.ExpiresAt)
	WriteJsonResponse(w, api.AuthResponse{
		Token:     session.Token,
		UserID:    session.UserID,
		Username:  session.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

func (s *BackendService) Register(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest[api.RegisterRequest](r)
	if err != nil {
		WriteError(w, err)
		return
	}

	session, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingFields):
		WriteError(w, CodedError(http.StatusBadRequest, err))
	case errors.Is(err, auth.ErrUserExists):
		WriteError(w, CodedError(http.StatusConflict, err))
	case err != nil:
		slog.Error("error registering user", "error", err)
		WriteError(w, CodedErrorf(http.StatusInternalServerError, "error registering user"))
	default:
		s.writeSession(w, session)
	}
}

func (s *BackendService) Login(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest[api.LoginRequest](r)
	if err != nil {
		WriteError(w, err)
		return
	}

	session, err := s.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteError(w, CodedError(http.StatusUnauthorized, err))
	case err != nil:
		slog.Error("error logging in", "error", err)
		WriteError(w, CodedErrorf(http.StatusInternalServerError, "error logging in"))
	default:
		s.writeSession(w, session)
	}
}

func (s *BackendService) Logout(w http.ResponseWriter, r *http.Request) {
	claims, err := claimsFromRequest(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	s.sessions.Clear(claims.SessionID)
	s.issuer.Revoke(claims)
	s.setSessionCookie(w, "", time.Unix(0, 0))
	WriteJsonResponse(w, api.StatusResponse{Status: "Logged out"})
}
