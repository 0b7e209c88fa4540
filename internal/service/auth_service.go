package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"feeledger/internal/models"
	"feeledger/internal/password"
	"feeledger/internal/repository"
	"feeledger/internal/sessions"
)

// ErrInvalidCredentials represents login failure.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// StaffStore defines the staff lookup contract used by the auth service.
type StaffStore interface {
	GetByUsername(ctx context.Context, username string) (*models.Staff, error)
	GetByID(ctx context.Context, id int64) (*models.Staff, error)
}

// SessionStore tracks active staff sessions.
type SessionStore interface {
	Save(ctx context.Context, session sessions.ActiveSession) error
	Get(ctx context.Context, staffID int64) (*sessions.ActiveSession, error)
	Delete(ctx context.Context, staffID int64) error
}

// AuthService handles staff login, logout and identity lookup.
type AuthService struct {
	staff    StaffStore
	hasher   password.Hasher
	tokens   *TokenService
	sessions SessionStore
	logger   *zap.Logger
}

// NewAuthService builds AuthService.
func NewAuthService(staff StaffStore, hasher password.Hasher, tokens *TokenService, sessionStore SessionStore, logger *zap.Logger) *AuthService {
	return &AuthService{
		staff:    staff,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessionStore,
		logger:   logger,
	}
}

// Login verifies credentials, issues a token and marks the session active.
func (s *AuthService) Login(ctx context.Context, username, pass string) (string, *models.Staff, error) {
	username = strings.TrimSpace(username)
	if username == "" || pass == "" {
		return "", nil, ErrInvalidCredentials
	}

	staff, err := s.staff.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := s.hasher.Compare(staff.PasswordHash, pass); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(staff.ID, staff.Name, staff.Role)
	if err != nil {
		return "", nil, err
	}

	if err := s.sessions.Save(ctx, sessions.ActiveSession{
		StaffID:  staff.ID,
		Name:     staff.Name,
		Role:     staff.Role,
		IssuedAt: time.Now().UTC(),
	}); err != nil {
		// Session mirroring is advisory; the token alone still authenticates.
		s.logger.Warn("failed to save active session", zap.Int64("staff_id", staff.ID), zap.Error(err))
	}

	s.logger.Info("staff logged in", zap.Int64("staff_id", staff.ID), zap.String("username", staff.Username))
	return token, staff, nil
}

// Logout drops the active session for the staff member.
func (s *AuthService) Logout(ctx context.Context, staffID int64) {
	if err := s.sessions.Delete(ctx, staffID); err != nil {
		s.logger.Warn("failed to delete active session", zap.Int64("staff_id", staffID), zap.Error(err))
	}
}

// CurrentStaff resolves the staff member behind a validated token, requiring
// a live session.
func (s *AuthService) CurrentStaff(ctx context.Context, staffID int64) (*models.Staff, error) {
	if _, err := s.sessions.Get(ctx, staffID); err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	staff, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return staff, nil
}
