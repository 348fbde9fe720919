package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rehearse-backend/internal/database"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("username, email and password are required")
)

type Session struct {
	Token     string
	UserID    uint
	Username  string
	SessionID string
	ExpiresAt time.Time
}

type Service struct {
	db     *gorm.DB
	issuer *Issuer
}

func NewService(db *gorm.DB, issuer *Issuer) *Service {
	return &Service{db: db, issuer: issuer}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, username, email, password string) (Session, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return Session{}, ErrMissingFields
	}

	if _, err := database.GetUserByEmail(ctx, s.db, email); err == nil {
		return Session{}, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("error hashing password: %w", err)
	}

	user := database.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := database.CreateUser(ctx, s.db, &user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return Session{}, ErrUserExists
		}
		return Session{}, fmt.Errorf("error creating user: %w", err)
	}

	slog.Info("registered user", "user_id", user.ID)
	return s.session(user)
}

func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := database.GetUserByEmail(ctx, s.db, normalizeEmail(email))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, fmt.Errorf("error looking up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	return s.session(user)
}

func (s *Service) session(user database.User) (Session, error) {
	token, claims, err := s.issuer.Issue(user.ID)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    user.ID,
		Username:  user.Username,
		SessionID: claims.SessionID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
